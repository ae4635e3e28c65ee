package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arkadym/sealbox/internal/server/services"
	"github.com/arkadym/sealbox/internal/vaultclient"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`

	IKPublic        string   `json:"ik_public" binding:"required"`
	IKSigningPublic string   `json:"ik_signing_public" binding:"required"`
	SPKPublic       string   `json:"spk_public" binding:"required"`
	SPKSignature    string   `json:"spk_signature" binding:"required"`
	OPKPublics      []string `json:"opks" binding:"required"`

	Nonce string `json:"nonce" binding:"required"`
	Salt  string `json:"salt" binding:"required"`

	EncryptedID string   `json:"encrypted_id" binding:"required"`
	IKPrivate   string   `json:"ik_private_key" binding:"required"`
	SPKPrivate  string   `json:"spk_private_key" binding:"required"`
	OPKsPrivate []string `json:"opks_private" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := s.bundles.RegisterBundle(c.Request.Context(), &services.RegisterParams{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		IKPublic:        req.IKPublic,
		IKSigningPublic: req.IKSigningPublic,
		SPKPublic:       req.SPKPublic,
		SPKSignature:    req.SPKSignature,
		OPKPublics:      req.OPKPublics,
		Nonce:           req.Nonce,
		Salt:            req.Salt,
		EncryptedID:     req.EncryptedID,
		IKPrivate:       req.IKPrivate,
		SPKPrivate:      req.SPKPrivate,
		OPKsPrivate:     req.OPKsPrivate,
	})
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Same shape as a failed login; the two are indistinguishable.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (s *Server) handlePublicKeys(c *gin.Context) {
	bundle, err := s.bundles.FetchBundleForInitiation(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}

	resp := gin.H{
		"ik_public":         bundle.IKPublic,
		"ik_signing_public": bundle.IKSigningPublic,
		"spk_public":        bundle.SPKPublic,
		"spk_signature":     bundle.SPKSignature,
		"degraded":          bundle.Degraded,
	}
	if bundle.OPKIndex != nil {
		resp["opk"] = bundle.OPKPublic
		resp["opk_index"] = *bundle.OPKIndex
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	if err := s.bundles.DeleteAccount(c.Request.Context(), currentUserID(c)); err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "account deleted"})
}

func (s *Server) handleRetrieveBundle(c *gin.Context) {
	bundle, err := s.bundles.RetrievePrivateBundle(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) handleHealth(c *gin.Context) {
	vaultStatus := s.bundles.VaultHealth(c.Request.Context())
	status := http.StatusOK
	if vaultStatus == vaultclient.HealthUnknown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "vault": string(vaultStatus)})
}
