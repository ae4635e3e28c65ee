package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkadym/sealbox/internal/server/models"
	"github.com/arkadym/sealbox/internal/server/services"
)

type offerRequest struct {
	FileID          string `json:"file_id" binding:"required"`
	RecipientID     string `json:"recipient_id" binding:"required"`
	WrappedFileKey  string `json:"wrapped_file_key" binding:"required"`
	EphemeralPublic string `json:"ephemeral_public" binding:"required"`
	OPKIndex        *int   `json:"opk_index"`
	Permission      string `json:"permission" binding:"required"`
}

func (s *Server) handleOfferShare(c *gin.Context) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	wrapped, err := base64.StdEncoding.DecodeString(req.WrappedFileKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	share, err := s.shares.Offer(c.Request.Context(), currentUserID(c), &services.OfferParams{
		FileID:          req.FileID,
		RecipientID:     req.RecipientID,
		WrappedFileKey:  wrapped,
		EphemeralPublic: req.EphemeralPublic,
		OPKIndex:        req.OPKIndex,
		Permission:      req.Permission,
	})
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shareJSON(share))
}

type respondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

func (s *Server) handleRespondShare(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	share, err := s.shares.Respond(c.Request.Context(), currentUserID(c), c.Param("id"), *req.Accept)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, shareJSON(share))
}

func (s *Server) handleRevokeShare(c *gin.Context) {
	if err := s.shares.Revoke(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.ShareStatusRevoked})
}

func (s *Server) handleListShares(c *gin.Context) {
	outbox, inbox, err := s.shares.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	toJSON := func(list []*models.FileShare) []gin.H {
		out := make([]gin.H, 0, len(list))
		for _, sh := range list {
			out = append(out, shareJSON(sh))
		}
		return out
	}
	c.JSON(http.StatusOK, gin.H{"outbox": toJSON(outbox), "inbox": toJSON(inbox)})
}

func shareJSON(sh *models.FileShare) gin.H {
	out := gin.H{
		"id":           sh.ID,
		"file_id":      sh.FileID,
		"owner_id":     sh.OwnerID,
		"recipient_id": sh.RecipientID,
		"permission":   sh.Permission,
		"status":       sh.Status,
		"created_at":   sh.CreatedAt,
	}
	// The wrapped key and handshake parameters only matter to the
	// recipient while the share can still be opened.
	if sh.Status == models.ShareStatusPending || sh.Status == models.ShareStatusAccepted {
		out["wrapped_file_key"] = base64.StdEncoding.EncodeToString(sh.WrappedFileKey)
		out["ephemeral_public"] = sh.EphemeralPublic
		if sh.OPKIndex != nil {
			out["opk_index"] = *sh.OPKIndex
		}
	}
	if sh.RespondedAt != nil {
		out["responded_at"] = *sh.RespondedAt
	}
	return out
}
