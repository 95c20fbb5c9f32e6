package handler

import (
	"bhrc/backend/internal/api/middleware"
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Login checks the credentials and returns a session token, also set as a cookie.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, res.Token, time.Until(res.ExpiresAt))
	response.OK(c, http.StatusOK, "signed in", res)
}

// Logout ends the caller's session and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), principal(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, "", -time.Second)
	response.OK(c, http.StatusOK, "signed out", nil)
}

// Me returns the signed-in caller.
func (h *Handler) Me(c *gin.Context) {
	p := principal(c)
	if !p.Authenticated() {
		response.Error(c, apperrors.NewUnauthorized("authentication required"))
		return
	}
	response.OK(c, http.StatusOK, "", p)
}

// CreateAdmin adds a staff account.
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	user, err := h.Auth.CreateAdmin(c.Request.Context(), req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "administrator created", user)
}

// ListAdmins returns every staff account.
func (h *Handler) ListAdmins(c *gin.Context) {
	users, err := h.Auth.Users.FindAll(c.Request.Context(), nil, "email ASC")
	if err != nil {
		response.Error(c, apperrors.NewUnexpected("failed to list administrators", err))
		return
	}
	if users == nil {
		users = []models.AdminUser{}
	}
	response.OK(c, http.StatusOK, "", users)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", h.SecureCookies, true)
}
