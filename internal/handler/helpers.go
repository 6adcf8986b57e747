package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"triostack/internal/apierror"
	"triostack/internal/dto"
	"triostack/internal/middleware"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Envelope{
			Success: false,
			Message: "Invalid JSON body",
		})
		return false
	}
	return validateStruct(c, req)
}

// bindQuery binds query-string parameters and validates them the same way.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Envelope{
			Success: false,
			Message: "Invalid query parameters",
		})
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, dto.Envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  fields,
		})
		return false
	}
	return true
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Message: message, Data: data})
}

func created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, dto.Envelope{Success: true, Message: message, Data: data})
}

func paginated(c *gin.Context, message string, data interface{}, p *dto.Pagination) {
	c.JSON(http.StatusOK, dto.Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: p,
	})
}

// fail maps a service error onto the response envelope. Internal causes are
// logged under the request id and replaced by the generic message.
func fail(c *gin.Context, err error) {
	apiErr := apierror.AsError(err)
	if apiErr.Kind == apierror.KindInternal {
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(apiErr.Err).
			Msg("request failed")
	}
	env := dto.Envelope{Success: false, Message: apiErr.Message}
	if len(apiErr.Fields) > 0 {
		env.Errors = apiErr.Fields
	}
	c.JSON(apiErr.Status(), env)
}
