package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/middleware"
	"catalog/internal/services"
)

type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId" binding:"required"`
	OTP    string `json:"otp" binding:"required"`
}

type RegisterRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Name         string `json:"name"`
	Password     string `json:"password"`
}

func codeIssueBody(issue services.CodeIssue, message string) gin.H {
	body := gin.H{
		"success": true,
		"message": message,
		"userId":  issue.UserID,
	}
	if issue.Code != "" {
		body["otp"] = issue.Code
	}
	return body
}

func Login(auth *services.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		issue, err := auth.RequestCode(c.Request.Context(), req.EmailOrPhone)
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, codeIssueBody(issue, "OTP sent successfully"))
	}
}

func Register(auth *services.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		issue, err := auth.Register(c.Request.Context(), req.EmailOrPhone, req.Name, req.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusCreated, codeIssueBody(issue, "User registered successfully. OTP sent."))
	}
}

func VerifyOTP(auth *services.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := auth.VerifyCode(c.Request.Context(), req.UserID, req.OTP)
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"token":   session.Token,
			"user":    session.User,
		})
	}
}

func GetMe(auth *services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": auth.Me(user)})
	}
}
