package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/recovery"
	"github.com/arkadym/sealbox/internal/server/auth"
	"github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
)

// UserService verifies credentials and mints access tokens.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// dummyPasswordHash absorbs verification work when no account matches.
// The unknown-username branch must pay the same Argon2id cost as a wrong
// password, or response timing becomes a username oracle.
var dummyPasswordHash = func() string {
	h, err := recovery.HashPassword("no-such-account")
	if err != nil {
		panic(err)
	}
	return h
}()

// Login verifies the password against the stored Argon2id hash and returns
// a signed access token. Unknown usernames and wrong passwords are
// indistinguishable to the caller, in shape and in timing.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = recovery.VerifyPassword(dummyPasswordHash, password)
			return "", common.ErrAuthentication
		}
		return "", common.ErrInternal
	}
	if err := recovery.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", common.ErrAuthentication
	}
	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}
