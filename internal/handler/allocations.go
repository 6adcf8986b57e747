package handler

import (
	"github.com/gin-gonic/gin"

	"triostack/internal/dto"
	"triostack/internal/middleware"
	"triostack/internal/service"
)

type AllocationHandler struct{ svc service.AllocationService }

func NewAllocationHandler(svc service.AllocationService) *AllocationHandler {
	return &AllocationHandler{svc: svc}
}

func (h *AllocationHandler) List(c *gin.Context) {
	var filter dto.AllocationFilter
	if !bindQuery(c, &filter) {
		return
	}
	allocations, pagination, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	paginated(c, "Allocations retrieved", allocations, pagination)
}

func (h *AllocationHandler) Get(c *gin.Context) {
	allocation, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Allocation retrieved", allocation)
}

func (h *AllocationHandler) Create(c *gin.Context) {
	var req dto.CreateAllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	allocation, err := h.svc.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, "Allocation created successfully", allocation)
}

func (h *AllocationHandler) Update(c *gin.Context) {
	var req dto.UpdateAllocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	allocation, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Allocation updated successfully", allocation)
}

func (h *AllocationHandler) Return(c *gin.Context) {
	allocation, err := h.svc.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Asset returned successfully", allocation)
}

func (h *AllocationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, "Allocation deleted successfully", nil)
}

func (h *AllocationHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Allocation statistics retrieved", stats)
}

func (h *AllocationHandler) ActiveForUser(c *gin.Context) {
	allocations, err := h.svc.ActiveForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Active allocations retrieved", allocations)
}

func (h *AllocationHandler) ActiveForAsset(c *gin.Context) {
	allocation, err := h.svc.ActiveForAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Active allocation retrieved", allocation)
}

func (h *AllocationHandler) HistoryForUser(c *gin.Context) {
	var page dto.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	allocations, pagination, err := h.svc.HistoryForUser(c.Request.Context(), c.Param("id"), page.Page, page.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	paginated(c, "Allocation history retrieved", allocations, pagination)
}

func (h *AllocationHandler) HistoryForAsset(c *gin.Context) {
	var page dto.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	allocations, pagination, err := h.svc.HistoryForAsset(c.Request.Context(), c.Param("id"), page.Page, page.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	paginated(c, "Allocation history retrieved", allocations, pagination)
}
