package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/dbx"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/passwords"
	loginsrepo "github.com/dmitrijs2005/gamestarter/internal/server/repositories/logins"
	usersrepo "github.com/dmitrijs2005/gamestarter/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newCodec() *passwords.BcryptCodec {
	return passwords.NewBcryptCodec(bcrypt.MinCost, logging.NopLogger{})
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory stand-in for the users and login_records tables,
// including the unique email constraint and the cascade on user delete.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]models.User
	logins  map[int64]models.LoginRecord
	nextUID int64
	nextLID int64
	clock   time.Time

	writes int

	getErr    error
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	lastErr   error
	loginErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]models.User{},
		logins: map[int64]models.LoginRecord{},
		clock:  fixedNow,
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	for _, x := range s.users {
		if x.Email == u.Email {
			return nil, common.ErrorDuplicateEmail
		}
	}
	s.writes++
	s.nextUID++
	u.ID = s.nextUID
	s.users[u.ID] = *u
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) List(context.Context) ([]models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memUsers) Update(_ context.Context, id int64, c models.UserChanges) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if c.Email != nil {
		for _, x := range s.users {
			if x.ID != id && x.Email == *c.Email {
				return common.ErrorDuplicateEmail
			}
		}
		u.Email = *c.Email
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Nickname != nil {
		u.Nickname = *c.Nickname
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.ProfileID != nil {
		u.ProfileID = *c.ProfileID
	}
	s.writes++
	s.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	s.writes++
	delete(s.users, id)
	for lid, l := range s.logins {
		if l.UserID == id {
			delete(s.logins, lid)
		}
	}
	return true, nil
}

func (r memUsers) UpdateLastLogin(_ context.Context, id int64, ts time.Time) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return false, s.lastErr
	}
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	u.LastLogin = &ts
	s.users[id] = u
	return true, nil
}

type memLogins struct{ s *memStore }

func (r memLogins) Create(_ context.Context, userID int64, addr, ua string) (*models.LoginRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	if _, ok := s.users[userID]; !ok {
		return nil, errors.New("foreign key violation")
	}
	s.nextLID++
	s.clock = s.clock.Add(time.Second)
	rec := models.LoginRecord{ID: s.nextLID, SourceAddress: addr, UserAgent: ua, LoggedInAt: s.clock, UserID: userID}
	s.logins[rec.ID] = rec
	return &rec, nil
}

func (r memLogins) GetByID(_ context.Context, id int64) (*models.LoginRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	rec, ok := s.logins[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (r memLogins) ListByUser(ctx context.Context, userID int64) ([]models.LoginRecord, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.LoginRecord, 0)
	for _, l := range all {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memLogins) ListAll(context.Context) ([]models.LoginRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	out := make([]models.LoginRecord, 0, len(s.logins))
	for _, l := range s.logins {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LoggedInAt.Equal(out[j].LoggedInAt) {
			return out[i].LoggedInAt.After(out[j].LoggedInAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type fakeRepoManager struct {
	s *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return memUsers{m.s} }
func (m *fakeRepoManager) Logins(dbx.DBTX) loginsrepo.Repository       { return memLogins{m.s} }

type fixture struct {
	store     *memStore
	mock      sqlmock.Sqlmock
	auth      *AuthService
	audit     *AuditService
	directory *DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	codec := newCodec()
	log := logging.NopLogger{}

	audit := NewAuditService(db, rm, log)
	auth := NewAuthService(db, rm, codec, audit, log)
	auth.now = func() time.Time { return fixedNow.Add(time.Hour) }
	dir := NewDirectoryService(db, rm, codec, log)
	dir.now = func() time.Time { return fixedNow }

	return &fixture{store: store, mock: mock, auth: auth, audit: audit, directory: dir}
}

func (f *fixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *fixture) createAna(t *testing.T) *models.Identity {
	t.Helper()
	f.expectTx()
	id, err := f.directory.Create(context.Background(), models.NewUser{
		Name: "Ana", Email: "ana@x.com", Password: "secret123", Nickname: "anax", ProfileID: 1,
	})
	if err != nil {
		t.Fatalf("create ana: %v", err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }
