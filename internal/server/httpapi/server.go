// Package httpapi exposes the public REST surface: registration, login,
// bundle fetch, ciphertext transfer, the share lifecycle, and recovery.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/arkadym/sealbox/internal/logging"
	"github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/services"
)

// Server routes HTTP requests to the service layer. It holds no request
// state of its own.
type Server struct {
	logger    logging.Logger
	cfg       *config.Config
	users     *services.UserService
	bundles   *services.BundleService
	shares    *services.ShareService
	transfers *services.TransferService
	recovery  *services.RecoveryService
	limiter   *multiLimiter
}

func NewServer(logger logging.Logger, cfg *config.Config,
	users *services.UserService, bundles *services.BundleService,
	shares *services.ShareService, transfers *services.TransferService,
	recovery *services.RecoveryService) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		users:     users,
		bundles:   bundles,
		shares:    shares,
		transfers: transfers,
		recovery:  recovery,
		limiter:   newMultiLimiter(rate.Limit(10), 30, 10*time.Minute),
	}
}

// Router assembles the gin engine. Split out from Run so tests can drive
// the routes with httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.perIPLimit())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/recovery/pin", s.handleRecoveryPIN)
	api.POST("/recovery/reset", s.handleRecoveryReset)
	api.POST("/recovery/mnemonic", s.handleRecoveryMnemonic)

	authed := api.Group("", s.authRequired())
	authed.POST("/recovery/enable", s.handleRecoveryEnable)
	authed.DELETE("/account", s.handleDeleteAccount)
	authed.GET("/keys/bundle/:id", s.handleRetrieveBundle)
	authed.POST("/files", s.handleUpload)
	authed.GET("/files", s.handleListFiles)
	authed.GET("/files/:id", s.handleDownload)
	authed.POST("/shares", s.handleOfferShare)
	authed.POST("/shares/:id/respond", s.handleRespondShare)
	authed.POST("/shares/:id/revoke", s.handleRevokeShare)
	authed.GET("/shares", s.handleListShares)

	r.GET("/users/public-keys/:userId", s.authRequired(), s.handlePublicKeys)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.EndpointAddr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "api server listening", "addr", s.cfg.EndpointAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
