package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"triostack/internal/dto"
	"triostack/internal/middleware"
	"triostack/internal/service"
)

type AssetHandler struct {
	svc     service.AssetService
	reports service.ReportService
}

func NewAssetHandler(svc service.AssetService, reports service.ReportService) *AssetHandler {
	return &AssetHandler{svc: svc, reports: reports}
}

func (h *AssetHandler) List(c *gin.Context) {
	var filter dto.AssetFilter
	if !bindQuery(c, &filter) {
		return
	}
	assets, pagination, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	paginated(c, "Assets retrieved", assets, pagination)
}

func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset retrieved", asset)
}

func (h *AssetHandler) Create(c *gin.Context) {
	var req dto.CreateAssetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	asset, err := h.svc.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, "Asset created successfully", asset)
}

func (h *AssetHandler) Update(c *gin.Context) {
	var req dto.UpdateAssetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	asset, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset updated successfully", asset)
}

func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset deleted successfully", nil)
}

func (h *AssetHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset statistics retrieved", stats)
}

// Expiring lists assets whose expiry falls within ?days (default 30).
func (h *AssetHandler) Expiring(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(400, dto.Envelope{Success: false, Message: "Invalid days parameter"})
			return
		}
		days = parsed
	}
	assets, err := h.svc.Expiring(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Expiring assets retrieved", assets)
}

func (h *AssetHandler) Expired(c *gin.Context) {
	assets, err := h.svc.Expired(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Expired assets retrieved", assets)
}

// UpdateExpired runs the expiry sweep on demand, the same operation the
// scheduler performs daily.
func (h *AssetHandler) UpdateExpired(c *gin.Context) {
	updated, err := h.svc.SweepExpired(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, fmt.Sprintf("%d asset(s) marked as expired", updated), gin.H{"updated": updated})
}

func (h *AssetHandler) Assign(c *gin.Context) {
	var req dto.AssignAssetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	asset, err := h.svc.Assign(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset assigned successfully", asset)
}

func (h *AssetHandler) Unassign(c *gin.Context) {
	asset, err := h.svc.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset unassigned successfully", asset)
}

func (h *AssetHandler) ByType(c *gin.Context) {
	assets, err := h.svc.ByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Assets retrieved", assets)
}

func (h *AssetHandler) Available(c *gin.Context) {
	assets, err := h.svc.Available(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Available assets retrieved", assets)
}

// RegisterPDF streams the asset register report.
func (h *AssetHandler) RegisterPDF(c *gin.Context) {
	pdf, err := h.reports.AssetRegisterPDF(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	filename := fmt.Sprintf("asset-register-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "application/pdf", pdf)
}
