package handler

import (
	"github.com/gin-gonic/gin"

	"triostack/internal/dto"
	"triostack/internal/service"
)

type UserHandler struct{ svc service.UserService }

func NewUserHandler(svc service.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(c *gin.Context) {
	var filter dto.UserFilter
	if !bindQuery(c, &filter) {
		return
	}
	users, pagination, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	paginated(c, "Users retrieved", users, pagination)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "User retrieved", user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, "User created successfully", user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "User updated successfully", user)
}

// Delete deactivates the account rather than removing the document, so
// allocation history keeps pointing at a real user.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, "User deactivated successfully", nil)
}

func (h *UserHandler) ToggleStatus(c *gin.Context) {
	user, err := h.svc.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "User status updated", user)
}

// ChangePassword requires the current password even for admins; the
// self-or-admin guard lives on the route.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), c.Param("id"), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "Password changed successfully", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), c.Param("id"), req); err != nil {
		fail(c, err)
		return
	}
	ok(c, "Password reset successfully", nil)
}

func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "User statistics retrieved", stats)
}

func (h *UserHandler) ByRole(c *gin.Context) {
	users, err := h.svc.ByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Users retrieved", users)
}

func (h *UserHandler) ByDepartment(c *gin.Context) {
	users, err := h.svc.ByDepartment(c.Request.Context(), c.Param("department"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Users retrieved", users)
}
