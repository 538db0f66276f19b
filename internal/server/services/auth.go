// Package services contains server-side business logic: credential
// verification, the login audit trail and the user directory.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/passwords"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/repomanager"
)

// LoginRecorder is the part of AuditService the login flow needs.
type LoginRecorder interface {
	Record(ctx context.Context, userID int64, sourceAddress, userAgent string) (*models.LoginRecord, bool)
}

// LoginResult is the outcome of a successful Login. Record is nil when the
// audit write failed.
type LoginResult struct {
	Identity *models.Identity
	Record   *models.LoginRecord
}

// AuthService checks email/password credentials. Outcomes are booleans:
// an unknown email, a wrong password and a storage fault all look the same
// to the caller.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       passwords.Codec
	audit       LoginRecorder
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec passwords.Codec, audit LoginRecorder, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		codec:       codec,
		audit:       audit,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
	}
}

// Authenticate returns the identity of the account matching email and
// password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Identity, bool) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "authentication failed: unknown email")
		} else {
			s.logger.Error(ctx, "authentication failed: storage error", "error", err)
		}
		return nil, false
	}

	if !s.codec.Verify(password, user.PasswordHash) {
		s.logger.Debug(ctx, "authentication failed: password mismatch", "user_id", user.ID)
		return nil, false
	}

	return user.Identity(), true
}

// UpdateLastLogin stamps ts on userID. Failures are logged and reported as
// false; they never abort a login.
func (s *AuthService) UpdateLastLogin(ctx context.Context, userID int64, ts time.Time) bool {
	ok, err := s.repomanager.Users(s.db).UpdateLastLogin(ctx, userID, ts)
	if err != nil {
		s.logger.Error(ctx, "failed to update last login", "user_id", userID, "error", err)
		return false
	}
	if !ok {
		s.logger.Warn(ctx, "last login not updated: user is gone", "user_id", userID)
	}
	return ok
}

// Login authenticates and, on success, records the login in the audit trail
// and stamps the last-login time. Failed attempts leave no trace in storage.
func (s *AuthService) Login(ctx context.Context, email, password, sourceAddress, userAgent string) (*LoginResult, bool) {
	identity, ok := s.Authenticate(ctx, email, password)
	if !ok {
		return nil, false
	}

	res := &LoginResult{Identity: identity}

	if rec, ok := s.audit.Record(ctx, identity.ID, sourceAddress, userAgent); ok {
		res.Record = rec
	}

	now := s.now().UTC()
	if s.UpdateLastLogin(ctx, identity.ID, now) {
		identity.LastLogin = &now
	}

	s.logger.Info(ctx, "user logged in", "user_id", identity.ID)
	return res, true
}

// Verify checks credentials without touching the audit trail or the
// last-login time.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*models.Identity, bool) {
	return s.Authenticate(ctx, email, password)
}
