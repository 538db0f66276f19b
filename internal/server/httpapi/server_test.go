package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeAuth struct {
	identity  *models.Identity
	gotAddr   string
	gotUA     string
	logins    int
	verifies  int
	hadCtxDdl bool
}

func (f *fakeAuth) Login(ctx context.Context, email, password, addr, ua string) (*services.LoginResult, bool) {
	f.logins++
	f.gotAddr, f.gotUA = addr, ua
	_, f.hadCtxDdl = ctx.Deadline()
	if f.identity == nil || password != "secret123" {
		return nil, false
	}
	return &services.LoginResult{Identity: f.identity}, true
}

func (f *fakeAuth) Verify(ctx context.Context, email, password string) (*models.Identity, bool) {
	f.verifies++
	if f.identity == nil || password != "secret123" {
		return nil, false
	}
	return f.identity, true
}

type fakeDirectory struct {
	users     map[int64]models.Identity
	createErr error
	updateErr error
	deleteErr error
	lastNew   models.NewUser
	lastUpd   models.UserUpdate
}

func (f *fakeDirectory) Create(_ context.Context, in models.NewUser) (*models.Identity, error) {
	f.lastNew = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := models.Identity{ID: int64(len(f.users) + 1), Name: in.Name, Email: in.Email}
	f.users[id.ID] = id
	return &id, nil
}

func (f *fakeDirectory) GetByID(_ context.Context, id int64) (*models.Identity, bool) {
	u, ok := f.users[id]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (f *fakeDirectory) List(context.Context) []models.Identity {
	out := []models.Identity{}
	for _, u := range f.users {
		out = append(out, u)
	}
	return out
}

func (f *fakeDirectory) Update(_ context.Context, id int64, upd models.UserUpdate) (*models.Identity, error) {
	f.lastUpd = upd
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	f.users[id] = u
	return &u, nil
}

func (f *fakeDirectory) Delete(_ context.Context, id int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	_, ok := f.users[id]
	delete(f.users, id)
	return ok, nil
}

type fakeAudit struct {
	records []models.LoginRecord
}

func (f *fakeAudit) ListAll(context.Context) []models.LoginRecord { return f.records }

func (f *fakeAudit) ListByUser(_ context.Context, userID int64) []models.LoginRecord {
	out := []models.LoginRecord{}
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAudit) GetByID(_ context.Context, id int64) (*models.LoginRecord, bool) {
	for _, r := range f.records {
		if r.ID == id {
			return &r, true
		}
	}
	return nil, false
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type harness struct {
	srv   *HTTPServer
	auth  *fakeAuth
	dir   *fakeDirectory
	audit *fakeAudit
	ping  *fakePinger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth:  &fakeAuth{identity: &models.Identity{ID: 7, Name: "Ana", Email: "ana@x.com"}},
		dir:   &fakeDirectory{users: map[int64]models.Identity{}},
		audit: &fakeAudit{},
		ping:  &fakePinger{},
	}
	h.srv = NewHTTPServer(Options{
		Address:         "127.0.0.1:0",
		AllowedOrigins:  []string{"http://localhost:5173"},
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
	}, logging.NopLogger{}, h.auth, h.dir, h.audit, h.ping)
	return h
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.srv.App().Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

// --- auth ---

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)

	resp, b := h.do(t, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"secret123"}`, "User-Agent", "Mozilla/5.0")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[LoginResponse](t, b)
	assert.True(t, got.Success)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(7), *got.UserID)
	assert.Equal(t, "Ana", got.UserName)
	assert.Equal(t, "Mozilla/5.0", h.auth.gotUA)
	assert.NotEmpty(t, h.auth.gotAddr)
	assert.True(t, h.auth.hadCtxDdl, "service calls run under the request deadline")
}

func TestLogin_BadCredentialsIs200(t *testing.T) {
	h := newHarness(t)

	resp, b := h.do(t, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"nope"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[LoginResponse](t, b)
	assert.False(t, got.Success)
	assert.Nil(t, got.UserID)
	assert.Equal(t, msgBadCredentials, got.Message)
}

func TestLogin_BadRequests(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{`{`, `{"email":"","password":"x"}`, `{"email":"a@x.com"}`} {
		resp, _ := h.do(t, http.MethodPost, "/auth/login", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Zero(t, h.auth.logins)
}

func TestVerify(t *testing.T) {
	h := newHarness(t)

	resp, b := h.do(t, http.MethodPost, "/auth/verify", `{"email":"ana@x.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[LoginResponse](t, b).Success)
	assert.Equal(t, 1, h.auth.verifies)
	assert.Zero(t, h.auth.logins)
}

// --- users ---

func TestUsers_CreateGetListDelete(t *testing.T) {
	h := newHarness(t)

	resp, b := h.do(t, http.MethodPost, "/users", `{"name":"Ana","email":"ana@x.com","password":"secret123","nickname":"anax","profile_id":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	created := decode[models.Identity](t, b)
	assert.Equal(t, "ana@x.com", created.Email)
	assert.Equal(t, "secret123", h.dir.lastNew.Password)
	assert.NotContains(t, string(b), "password")

	resp, b = h.do(t, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana", decode[models.Identity](t, b).Name)

	resp, b = h.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Identity](t, b), 1)

	resp, _ = h.do(t, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsers_CreateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate", common.ErrorDuplicateEmail, http.StatusBadRequest},
		{"validation", common.ErrorValidation, http.StatusBadRequest},
		{"codec", common.ErrorCodec, http.StatusInternalServerError},
		{"internal", common.ErrorInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.dir.createErr = tt.err

			resp, b := h.do(t, http.MethodPost, "/users", `{"email":"a@x.com","password":"p"}`)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode[ErrorResponse](t, b).Message)
		})
	}
}

func TestUsers_InternalErrorHidesDetail(t *testing.T) {
	h := newHarness(t)
	h.dir.createErr = errors.New("pq: relation users does not exist")

	resp, b := h.do(t, http.MethodPost, "/users", `{"email":"a@x.com","password":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(b), "relation")
}

func TestUsers_UpdatePartial(t *testing.T) {
	h := newHarness(t)
	h.dir.users[3] = models.Identity{ID: 3, Name: "Ana", Email: "ana@x.com"}

	resp, b := h.do(t, http.MethodPut, "/users/3", `{"name":"Ana B"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana B", decode[models.Identity](t, b).Name)
	require.NotNil(t, h.dir.lastUpd.Name)
	assert.Nil(t, h.dir.lastUpd.Email)
	assert.Nil(t, h.dir.lastUpd.Password)

	resp, _ = h.do(t, http.MethodPut, "/users/99", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.dir.updateErr = common.ErrorDuplicateEmail
	resp, _ = h.do(t, http.MethodPut, "/users/3", `{"email":"bob@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsers_InvalidID(t *testing.T) {
	h := newHarness(t)

	for _, p := range []string{"/users/abc", "/users/0", "/users/-1"} {
		resp, _ := h.do(t, http.MethodGet, p, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, p)
	}
}

func TestUsers_DeleteFault(t *testing.T) {
	h := newHarness(t)
	h.dir.deleteErr = common.ErrorInternal

	resp, _ := h.do(t, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// --- logins ---

func TestLogins_Routes(t *testing.T) {
	h := newHarness(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.audit.records = []models.LoginRecord{
		{ID: 2, UserID: 7, SourceAddress: "b", LoggedInAt: at.Add(time.Minute)},
		{ID: 1, UserID: 8, SourceAddress: "a", LoggedInAt: at},
	}

	resp, b := h.do(t, http.MethodGet, "/logins", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.LoginRecord](t, b), 2)

	resp, b = h.do(t, http.MethodGet, "/logins/user/7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byUser := decode[[]models.LoginRecord](t, b)
	require.Len(t, byUser, 1)
	assert.Equal(t, int64(2), byUser[0].ID)

	resp, b = h.do(t, http.MethodGet, "/logins/user/99", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(b))

	resp, b = h.do(t, http.MethodGet, "/logins/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a", decode[models.LoginRecord](t, b).SourceAddress)

	resp, _ = h.do(t, http.MethodGet, "/logins/5", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- health, middleware ---

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	h.ping.err = errors.New("connection refused")
	resp, b := h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(b), "not_ready")

	resp, b = h.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "gamestarter")
}

func TestReady_StorageErrorStaysInLogs(t *testing.T) {
	var buf bytes.Buffer
	ping := &fakePinger{err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}
	srv := NewHTTPServer(Options{RequestTimeout: time.Second}, logging.NewJSONLogger(&buf, "debug"),
		&fakeAuth{}, &fakeDirectory{users: map[int64]models.Identity{}}, &fakeAudit{}, ping)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"not_ready"}`, string(b))
	assert.Contains(t, buf.String(), "readiness check failed")
	assert.Contains(t, buf.String(), "10.0.0.5:5432")
}

func TestRequestID(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, resp.Header.Get(common.RequestIDHeader))

	resp, _ = h.do(t, http.MethodGet, "/health", "", common.RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", resp.Header.Get(common.RequestIDHeader))
}

func TestCORS_AllowedOrigin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodOptions, "/users", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = h.do(t, http.MethodGet, "/health", "", "Origin", "http://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newHarness(t)
	resp, b := h.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[ErrorResponse](t, b).Message)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewHTTPServer(Options{Address: "127.0.0.1:99999"}, logging.NopLogger{}, &fakeAuth{}, &fakeDirectory{}, &fakeAudit{}, fakePinger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected listen error")
	}
}
