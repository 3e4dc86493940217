package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/config"
	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
	"github.com/jobseek-dev/job-board/backend/internal/service/servicetest"
)

type testServer struct {
	h        *Handler
	store    *servicetest.MemStore
	notifier *servicetest.Notifier
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Redis.ConnectTimeout = 1
	cfg.RateLimit.Login = 10
	cfg.RateLimit.Register = 10
	cfg.RateLimit.Window = 60

	store := servicetest.NewMemStore()
	notifier := &servicetest.Notifier{}
	svc := service.New(store, service.WithNotifier(notifier))

	h, err := NewHandler(cfg, svc, rdb)
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testServer{h: h, store: store, notifier: notifier}
}

func (s *testServer) user(t *testing.T, name, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	u := &domain.User{Name: name, Email: email, Role: role, PasswordHash: "x"}
	require.NoError(t, s.store.CreateUser(context.Background(), u))
	token, _, err := s.h.issueToken(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *testServer) createJob(t *testing.T, token string, extra map[string]any) *domain.Job {
	t.Helper()
	body := map[string]any{
		"title":       "Backend Engineer",
		"description": "Build APIs in Go",
		"company":     "Acme",
		"location":    "Shanghai",
		"type":        "full-time",
		"category":    "Engineering",
	}
	for k, v := range extra {
		body[k] = v
	}

	code, env := s.do(t, http.MethodPost, "/api/jobs", token, body)
	require.Equal(t, http.StatusCreated, code, env.Message)

	var job domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	return &job
}

func (s *testServer) apply(t *testing.T, token string, jobID int64) (int, envelope) {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/applications", token, map[string]any{
		"jobId":       jobID,
		"coverLetter": "I would like to join",
		"resume":      "https://cdn.example.com/resume.pdf",
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/health", "", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Li Lei",
		"email":    "LiLei@Example.com",
		"password": "secret123",
		"role":     "jobseeker",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	var registered authResponse
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "lilei@example.com", registered.User.Email)
	assert.NotContains(t, string(env.Data), "password")

	code, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "lilei@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	var loggedIn authResponse
	require.NoError(t, json.Unmarshal(env.Data, &loggedIn))

	code, env = s.do(t, http.MethodGet, "/api/auth/me", loggedIn.Token, nil)
	require.Equal(t, http.StatusOK, code)

	var me domain.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, registered.User.ID, me.ID)
	assert.Equal(t, domain.RoleJobSeeker, me.Role)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "",
		"email":    "not-an-email",
		"password": "123",
		"role":     "admin",
	})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
	assert.Contains(t, env.Errors, "role")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"name":     "Acme HR",
		"email":    "hr@acme.test",
		"password": "secret123",
		"role":     "employer",
	}

	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestLoginWithWrongPassword(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Li Lei",
		"email":    "lilei@example.com",
		"password": "secret123",
		"role":     "jobseeker",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "lilei@example.com",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid email or password", env.Message)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "request body contains malformed JSON", env.Message)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/jobs", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/applications/my-applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTokenFromCookie(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.h.issueToken(&domain.User{ID: 4242, Role: domain.RoleJobSeeker})
	require.NoError(t, err)

	code, _ := s.do(t, http.MethodGet, "/api/auth/me", token, nil)

	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	code, env := s.do(t, http.MethodPut, "/api/auth/profile", token, map[string]any{
		"name":    "Li Lei Jr.",
		"profile": map[string]any{"skills": []string{"go", "sql"}},
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	var user domain.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Li Lei Jr.", user.Name)
	assert.Equal(t, []string{"go", "sql"}, user.Profile.Skills)
}

func TestJobSeekerCannotCreateJob(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	code, _ := s.do(t, http.MethodPost, "/api/jobs", token, map[string]any{"title": "x"})

	assert.Equal(t, http.StatusForbidden, code)
}

func TestCreateAndGetJob(t *testing.T) {
	s := newTestServer(t)
	employer, token := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)

	job := s.createJob(t, token, map[string]any{
		"salary":              map[string]any{"min": 1000, "max": 2000},
		"applicationDeadline": "2099-12-31",
	})
	assert.Equal(t, employer.ID, job.PostedBy)
	assert.Equal(t, domain.JobStatusActive, job.Status)
	assert.Equal(t, domain.DefaultCurrency, job.Salary.Currency)
	require.NotNil(t, job.ApplicationDeadline)
	assert.Equal(t, 2099, job.ApplicationDeadline.Year())

	code, env := s.do(t, http.MethodGet, "/api/jobs/"+strconv.FormatInt(job.ID, 10), "", nil)
	require.Equal(t, http.StatusOK, code)
	var got domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Backend Engineer", got.Title)

	code, _ = s.do(t, http.MethodGet, "/api/jobs/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/jobs/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateJobValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)

	code, env := s.do(t, http.MethodPost, "/api/jobs", token, map[string]any{
		"title": "Backend Engineer",
		"type":  "permanent",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "type")
	assert.Contains(t, env.Errors, "description")

	code, _ = s.do(t, http.MethodPost, "/api/jobs", token, map[string]any{
		"title":               "Backend Engineer",
		"description":         "Build APIs",
		"company":             "Acme",
		"location":            "Shanghai",
		"type":                "full-time",
		"category":            "Engineering",
		"applicationDeadline": "next week",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateJobOwnership(t *testing.T) {
	s := newTestServer(t)
	_, owner := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	_, rival := s.user(t, "Globex HR", "hr@globex.test", domain.RoleEmployer)
	_, admin := s.user(t, "Admin", "admin@example.com", domain.RoleAdmin)
	job := s.createJob(t, owner, map[string]any{"applicationDeadline": "2099-01-01"})
	path := "/api/jobs/" + strconv.FormatInt(job.ID, 10)

	code, _ := s.do(t, http.MethodPut, path, rival, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPut, path, owner, map[string]any{
		"status":              "closed",
		"applicationDeadline": nil,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, domain.JobStatusClosed, updated.Status)
	assert.Nil(t, updated.ApplicationDeadline)
	assert.Equal(t, "Backend Engineer", updated.Title)

	code, _ = s.do(t, http.MethodPut, path, admin, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodDelete, path, rival, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListJobs(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	s.createJob(t, token, map[string]any{"title": "Go Developer", "location": "Beijing"})
	s.createJob(t, token, map[string]any{"title": "Java Developer", "location": "Shanghai"})
	s.createJob(t, token, map[string]any{"title": "Draft role", "status": "draft"})

	code, env := s.do(t, http.MethodGet, "/api/jobs?location=beijing", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page domain.JobPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "Go Developer", page.Jobs[0].Title)

	code, env = s.do(t, http.MethodGet, "/api/jobs?limit=1&page=2&sortBy=title&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "Java Developer", page.Jobs[0].Title)

	code, _ = s.do(t, http.MethodGet, "/api/jobs?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/jobs?sortBy=password", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestApplicationFlow(t *testing.T) {
	s := newTestServer(t)
	_, employer := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	_, seeker := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)
	_, other := s.user(t, "Han Meimei", "hanmeimei@example.com", domain.RoleJobSeeker)
	job := s.createJob(t, employer, nil)

	code, env := s.apply(t, seeker, job.ID)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var app domain.Application
	require.NoError(t, json.Unmarshal(env.Data, &app))
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Equal(t, 1, s.store.CountApplications(job.ID))

	code, env = s.apply(t, seeker, job.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, _ = s.apply(t, employer, job.ID)
	assert.Equal(t, http.StatusForbidden, code)

	appPath := "/api/applications/" + strconv.FormatInt(app.ID, 10)

	code, _ = s.do(t, http.MethodGet, appPath, other, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, appPath, employer, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/applications/job/"+strconv.FormatInt(job.ID, 10), employer, nil)
	require.Equal(t, http.StatusOK, code)
	var apps []domain.Application
	require.NoError(t, json.Unmarshal(env.Data, &apps))
	assert.Len(t, apps, 1)

	code, _ = s.do(t, http.MethodDelete, appPath, other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// accept 的请求体可以为空
	code, env = s.do(t, http.MethodPut, appPath+"/accept", employer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &app))
	assert.Equal(t, domain.ApplicationStatusHired, app.Status)
	assert.NotNil(t, app.ReviewedAt)

	code, env = s.do(t, http.MethodDelete, appPath, seeker, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 1, s.store.CountApplications(job.ID))

	code, _ = s.do(t, http.MethodPut, appPath+"/status", employer, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWithdrawPendingApplication(t *testing.T) {
	s := newTestServer(t)
	_, employer := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	_, seeker := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)
	job := s.createJob(t, employer, nil)

	code, env := s.apply(t, seeker, job.ID)
	require.Equal(t, http.StatusCreated, code)
	var app domain.Application
	require.NoError(t, json.Unmarshal(env.Data, &app))

	code, _ = s.do(t, http.MethodDelete, "/api/applications/"+strconv.FormatInt(app.ID, 10), seeker, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, s.store.CountApplications(job.ID))

	code, env = s.do(t, http.MethodGet, "/api/jobs/employer/my-jobs", employer, nil)
	require.Equal(t, http.StatusOK, code)
	var jobs []domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &jobs))
	require.Len(t, jobs, 1)
	assert.EqualValues(t, 0, jobs[0].ApplicationsCount)

	// 撤回后可以重新申请
	code, _ = s.apply(t, seeker, job.ID)
	assert.Equal(t, http.StatusCreated, code)
}

func TestApplyRuleViolations(t *testing.T) {
	s := newTestServer(t)
	_, employer := s.user(t, "Acme HR", "hr@acme.test", domain.RoleEmployer)
	_, seeker := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	expired := s.createJob(t, employer, map[string]any{"applicationDeadline": "2000-01-01"})
	code, env := s.apply(t, seeker, expired.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, env.Message)
	assert.Equal(t, 0, s.store.CountApplications(expired.ID))

	closed := s.createJob(t, employer, map[string]any{"status": "closed"})
	code, env = s.apply(t, seeker, closed.ID)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "job not found or no longer active", env.Message)
	assert.Equal(t, 0, s.store.CountApplications(closed.ID))

	code, _ = s.apply(t, seeker, 9999)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodPost, "/api/applications", seeker, map[string]any{"jobId": expired.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "resume")
}

func TestLogoutWithoutRedis(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestLogoutWithUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	s := newTestServerWithRedis(t, rdb)
	_, token := s.user(t, "Li Lei", "lilei@example.com", domain.RoleJobSeeker)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.h.Mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
