package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seedplatform/control-interface/internal/service"
	"github.com/seedplatform/control-interface/pkg/response"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	maxAge := 0
	if !sess.ExpiresAt.IsZero() {
		maxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	c.SetCookie(SessionCookie, sess.Token, maxAge, "/", "", false, true)
	response.WriteData(c, http.StatusOK, loginResponse{Token: sess.Token, Email: sess.Email})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), extractToken(c)); err != nil {
		response.WriteError(c, err)
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	response.WriteData(c, http.StatusOK, gin.H{"status": "logged out"})
}
