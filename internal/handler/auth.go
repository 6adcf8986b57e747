package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triostack/internal/dto"
	"triostack/internal/middleware"
	"triostack/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Login successful", resp)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, "User registered successfully", resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Token refreshed", resp)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, dto.Envelope{Success: false, Message: "Authentication required"})
		return
	}
	resp, err := h.svc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Profile retrieved", resp)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, dto.Envelope{Success: false, Message: "Authentication required"})
		return
	}
	var req dto.UpdateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "Profile updated", resp)
}
