package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

type recoveryEnableRequest struct {
	Secret string `json:"secret" binding:"required"`
}

func (s *Server) handleRecoveryEnable(c *gin.Context) {
	var req recoveryEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	secret, err := base64.StdEncoding.DecodeString(req.Secret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	words, err := s.recovery.EnableRecovery(c.Request.Context(), currentUserID(c), secret)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	// The phrase is shown exactly once; it is not derivable afterwards.
	c.JSON(http.StatusOK, gin.H{"mnemonic": words})
}

type recoveryMnemonicRequest struct {
	Username string   `json:"username" binding:"required"`
	Words    []string `json:"words" binding:"required"`
}

func (s *Server) handleRecoveryMnemonic(c *gin.Context) {
	var req recoveryMnemonicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	secret, err := s.recovery.RecoverWithMnemonic(c.Request.Context(), req.Username, req.Words)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": base64.StdEncoding.EncodeToString(secret)})
}

type recoveryPINRequest struct {
	Username string `json:"username" binding:"required"`
}

func (s *Server) handleRecoveryPIN(c *gin.Context) {
	var req recoveryPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := s.recovery.RequestPIN(c.Request.Context(), req.Username); err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	// Accepted regardless of whether the username exists.
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type recoveryResetRequest struct {
	Username    string `json:"username" binding:"required"`
	PIN         string `json:"pin" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (s *Server) handleRecoveryReset(c *gin.Context) {
	var req recoveryResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := s.recovery.VerifyPINAndChangePassword(c.Request.Context(), req.Username, req.PIN, req.NewPassword); err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}
