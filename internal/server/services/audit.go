package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/repomanager"
)

// AuditService keeps the trail of successful logins. Every read fails open:
// storage faults are logged and reported as an empty result so that listing
// the trail never takes anything else down with it.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AuditService {
	return &AuditService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "audit"),
	}
}

// Record stores one successful login of userID. The returned record carries
// the id and timestamp assigned by storage.
func (s *AuditService) Record(ctx context.Context, userID int64, sourceAddress, userAgent string) (*models.LoginRecord, bool) {
	repo := s.repomanager.Logins(s.db)
	rec, err := repo.Create(ctx, userID, sourceAddress, userAgent)
	if err != nil {
		s.logger.Error(ctx, "failed to record login", "user_id", userID, "error", err)
		return nil, false
	}
	s.logger.Info(ctx, "login recorded", "user_id", userID, "record_id", rec.ID)
	return rec, true
}

// ListByUser returns userID's logins, newest first.
func (s *AuditService) ListByUser(ctx context.Context, userID int64) []models.LoginRecord {
	list, err := s.repomanager.Logins(s.db).ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "failed to list logins by user", "user_id", userID, "error", err)
		return []models.LoginRecord{}
	}
	return nonNil(list)
}

// ListAll returns every login, newest first.
func (s *AuditService) ListAll(ctx context.Context) []models.LoginRecord {
	list, err := s.repomanager.Logins(s.db).ListAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list logins", "error", err)
		return []models.LoginRecord{}
	}
	return nonNil(list)
}

func (s *AuditService) GetByID(ctx context.Context, id int64) (*models.LoginRecord, bool) {
	rec, err := s.repomanager.Logins(s.db).GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "failed to load login record", "record_id", id, "error", err)
		}
		return nil, false
	}
	return rec, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
