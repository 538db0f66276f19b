package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/dbx"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/passwords"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/repomanager"
)

// DirectoryService manages user accounts.
//
// Reads fail open: a storage fault is logged and looks like "not found".
// Mutations fail closed and return one of the common sentinel errors.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       passwords.Codec
	logger      logging.Logger
	now         func() time.Time
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager, codec passwords.Codec, logger logging.Logger) *DirectoryService {
	return &DirectoryService{
		db:          db,
		repomanager: m,
		codec:       codec,
		logger:      logger.With("module", "directory"),
		now:         time.Now,
	}
}

// Create registers a new account. The email is stored in canonical form
// and must not be taken; a zero ProfileID means the default profile.
func (s *DirectoryService) Create(ctx context.Context, in models.NewUser) (*models.Identity, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	digest, err := s.codec.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "failed to hash password", "error", err)
		return nil, err
	}

	profileID := in.ProfileID
	if profileID == 0 {
		profileID = common.DefaultProfileID
	}

	now := s.now().UTC()
	user := &models.User{
		Name:         in.Name,
		Email:        email,
		Nickname:     in.Nickname,
		PasswordHash: digest,
		ProfileID:    profileID,
		CreatedAt:    now,
		LastLogin:    &now,
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}
		var err error
		created, err = repo.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, s.mutationError(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID, "profile_id", created.ProfileID)
	return created.Identity(), nil
}

func (s *DirectoryService) GetByID(ctx context.Context, id int64) (*models.Identity, bool) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		s.logReadError(ctx, "get user by id", err, "user_id", id)
		return nil, false
	}
	return user.Identity(), true
}

func (s *DirectoryService) GetByEmail(ctx context.Context, email string) (*models.Identity, bool) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		s.logReadError(ctx, "get user by email", err)
		return nil, false
	}
	return user.Identity(), true
}

// List returns all accounts, newest first.
func (s *DirectoryService) List(ctx context.Context) []models.Identity {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list users", "error", err)
		return []models.Identity{}
	}

	out := make([]models.Identity, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Identity())
	}
	return out
}

// Update applies a partial update. An empty update returns the current
// record without writing anything.
func (s *DirectoryService) Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.Identity, error) {
	current, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "failed to load user for update", "user_id", id, "error", err)
		return nil, common.ErrorInternal
	}

	if upd.IsEmpty() {
		return current.Identity(), nil
	}

	changes := models.UserChanges{
		Name:      upd.Name,
		Nickname:  upd.Nickname,
		ProfileID: upd.ProfileID,
	}

	if upd.Email != nil {
		email := models.NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", common.ErrorValidation)
		}
		if email != current.Email {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
		}
		changes.Email = &email
	}

	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
		}
		digest, err := s.codec.Hash(*upd.Password)
		if err != nil {
			s.logger.Error(ctx, "failed to hash password", "user_id", id, "error", err)
			return nil, err
		}
		changes.PasswordHash = &digest
	}

	var updated *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.Update(ctx, id, changes); err != nil {
			return err
		}
		var err error
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.mutationError(ctx, "update user", err, "user_id", id)
	}

	s.logger.Info(ctx, "user updated", "user_id", id)
	return updated.Identity(), nil
}

// Delete removes the account and, through the schema, its login records.
// It reports false when there was nothing to delete.
func (s *DirectoryService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "failed to delete user", "user_id", id, "error", err)
		return false, common.ErrorInternal
	}
	if ok {
		s.logger.Info(ctx, "user deleted", "user_id", id)
	}
	return ok, nil
}

// ensureEmailFree is the fast pre-check; the unique constraint in storage
// is what actually guarantees uniqueness.
func (s *DirectoryService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		s.logger.Error(ctx, "failed to check email", "error", err)
		return common.ErrorInternal
	case existing.ID != selfID:
		return common.ErrorDuplicateEmail
	}
	return nil
}

func (s *DirectoryService) mutationError(ctx context.Context, op string, err error, args ...any) error {
	switch {
	case errors.Is(err, common.ErrorDuplicateEmail):
		return common.ErrorDuplicateEmail
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, "failed to "+op, append(args, "error", err)...)
	return common.ErrorInternal
}

func (s *DirectoryService) logReadError(ctx context.Context, op string, err error, args ...any) {
	if errors.Is(err, common.ErrorNotFound) {
		return
	}
	s.logger.Error(ctx, "failed to "+op, append(args, "error", err)...)
}
