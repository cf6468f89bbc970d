package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentiva/rentiva/internal/auth"
	"github.com/rentiva/rentiva/internal/authz"
	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/internal/view"
	_ "github.com/rentiva/rentiva/testing"
)

type stubRepo struct {
	user      *auth.User
	createErr error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &auth.User{ID: "new-user", Email: email, Name: name, Role: "pending", NeedsOnboarding: true, IsActive: true}, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager, *authz.RoleCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	roleCache := authz.NewRoleCache(authz.RoleCacheConfig{TTL: time.Minute})
	t.Cleanup(roleCache.Stop)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), templates, sessionManager, csrfManager, roleCache)
	return handler, sessionManager, roleCache
}

func primeSession(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return sess
}

func postLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, sess *shared.Session, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})

	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session for post: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, loaded); err != nil {
		t.Fatalf("commit session post: %v", err)
	}
	return res
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager, _ := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager, _ := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: "u1", Email: "user@test.local", PasswordHash: string(hashed), Role: "renter", IsActive: true,
	}})

	sess := primeSession(t, handler, sessionManager)

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "wrongpass99")

	res := postLogin(t, handler, sessionManager, sess, form)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password") {
		t.Fatalf("expected error message in response")
	}
}

func TestLoginSuccessWarmsRoleCache(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager, roleCache := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: "owner-1", Email: "owner@test.local", PasswordHash: string(hashed), Role: "owner", IsActive: true,
	}})

	sess := primeSession(t, handler, sessionManager)

	form := url.Values{}
	form.Set("email", "owner@test.local")
	form.Set("password", "correctpass")
	form.Set("redirect", "/owner/vehicles")

	res := postLogin(t, handler, sessionManager, sess, form)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/owner/vehicles" {
		t.Fatalf("expected redirect to /owner/vehicles, got %q", loc)
	}

	role, ok := roleCache.Get(context.Background(), "owner-1")
	if !ok || role != authz.RoleOwner {
		t.Fatalf("expected cached owner role, got %q (hit=%v)", role, ok)
	}
}

func TestLoginDeactivatedAccountRejected(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager, _ := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: "u1", Email: "user@test.local", PasswordHash: string(hashed), Role: "renter", IsActive: false,
	}})

	sess := primeSession(t, handler, sessionManager)

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "correctpass")

	res := postLogin(t, handler, sessionManager, sess, form)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for deactivated account, got %d", res.Code)
	}
}

func TestSignupDuplicateEmailShowsDedicatedError(t *testing.T) {
	handler, sessionManager, _ := newAuthHandler(t, &stubRepo{createErr: shared.ErrDuplicateEmail})

	sess := primeSession(t, handler, sessionManager)

	form := url.Values{}
	form.Set("email", "taken@test.local")
	form.Set("name", "Taken User")
	form.Set("password", "correctpass")

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})

	loaded, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session for post: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), loaded)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	handler.HandleSignupForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "An account with this email already exists") {
		t.Fatalf("expected duplicate-email message in response")
	}
}

func TestLoginRejectsOffsiteRedirect(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager, _ := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: "u1", Email: "user@test.local", PasswordHash: string(hashed), Role: "renter", IsActive: true,
	}})

	sess := primeSession(t, handler, sessionManager)

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "correctpass")
	form.Set("redirect", "//evil.example/phish")

	res := postLogin(t, handler, sessionManager, sess, form)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to landing, got %q", loc)
	}
}
