package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userdomain "bizit/internal/user/domain"
)

type signinRequest struct {
	Email    string `json:"user_email"`
	Password string `json:"password"`
}

// Signup handler pour POST /api/user/signup
func (h *Handler) Signup(c *gin.Context) {
	var req userdomain.Signup
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if _, err := h.services.Users.Signup(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "Signup successful"})
}

// Signin handler pour POST /api/user/signin
func (h *Handler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	session, err := h.services.Users.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":       "Login successful",
		"token":     session.Token,
		"user_name": session.UserName,
	})
}

// Signout handler pour POST /api/user/signout; la conversation en cours est fermée
func (h *Handler) Signout(c *gin.Context) {
	h.services.Chat.Reset(currentUser(c))
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out successfully"})
}
