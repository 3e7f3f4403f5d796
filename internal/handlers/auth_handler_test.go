package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

const (
	testUserID  = "0190a7c4-7b1e-7cc1-8a4e-2f1c3a9d5e01"
	testOtherID = "0190a7c4-7b1e-7cc1-8a4e-2f1c3a9d5e02"
	testItemID  = "0190a7c4-7b1e-7cc1-8a4e-2f1c3a9d5e03"
)

// --- mock user service ---

type mockUserService struct {
	registerFn     func(in services.RegisterInput) (*models.User, error)
	authenticateFn func(email, password string) (*models.User, error)
	createUserFn   func(p *authz.Principal, in services.CreateUserInput) (*models.User, error)
	listUsersFn    func(p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	getUserFn      func(p *authz.Principal, id string) (*models.User, error)
	updateUserFn   func(p *authz.Principal, id string, in services.UpdateUserInput) (*models.User, error)
	deleteUserFn   func(p *authz.Principal, id string) error
}

func (m *mockUserService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(in)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (m *mockUserService) CreateUser(_ context.Context, p *authz.Principal, in services.CreateUserInput) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(p, in)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ListUsers(_ context.Context, p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(p, page)
	}
	resp := pagination.NewPageResponse([]models.User{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockUserService) GetUser(_ context.Context, p *authz.Principal, id string) (*models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(p, id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) UpdateUser(_ context.Context, p *authz.Principal, id string, in services.UpdateUserInput) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(p, id, in)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, p *authz.Principal, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(p, id)
	}
	return nil
}

var _ services.UserServicer = (*mockUserService)(nil)

// --- mock audit service ---

type mockAuditService struct {
	entries []services.AuditEntry
}

func (m *mockAuditService) Log(_ context.Context, entry services.AuditEntry) {
	m.entries = append(m.entries, entry)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) has(action string) bool {
	for _, e := range m.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// --- stub token signer ---

type stubSigner struct {
	err error
}

func (s stubSigner) Sign(user *models.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + user.ID, nil
}

func (stubSigner) Expiry() time.Duration { return 15 * time.Minute }

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectPrincipal(testUserID, models.RoleUser), handler.GetProfile)
	return r
}

func injectPrincipal(id string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, &authz.Principal{SubjectID: id, Role: role})
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if result["error"] != code {
		t.Errorf("expected error code %q, got %v", code, result["error"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(in services.RegisterInput) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: in.Email, Role: models.RoleUser}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{}, audit))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"Str0ng!Pass","first_name":"John","last_name":"Doe"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] != "token-for-"+testUserID {
			t.Errorf("unexpected access_token %v", result["access_token"])
		}
		if result["token_type"] != "Bearer" {
			t.Errorf("expected Bearer token type, got %v", result["token_type"])
		}
		if result["expires_in"] != float64(900) {
			t.Errorf("expected expires_in 900, got %v", result["expires_in"])
		}
		user := result["user"].(map[string]interface{})
		if _, leaked := user["password"]; leaked {
			t.Error("password must not be serialized")
		}
		if !audit.has("REGISTER") {
			t.Error("expected REGISTER audit entry")
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"password":"Str0ng!Pass","first_name":"J","last_name":"D"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "VALIDATION_FAILED")
		if msg, _ := result["message"].(string); !strings.Contains(msg, "email") {
			t.Errorf("expected message to name the email field, got %q", msg)
		}
	})

	t.Run("returns 400 on malformed JSON", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
	})

	t.Run("passes weak password details through", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(services.RegisterInput) (*models.User, error) {
				return nil, apperrors.WithDetails(apperrors.ErrWeakPassword, "Password is too weak",
					[]string{"must contain an uppercase letter", "must contain a digit"})
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"weakpass","first_name":"J","last_name":"D"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "WEAK_PASSWORD")
		details, _ := result["details"].([]interface{})
		if len(details) != 2 {
			t.Errorf("expected 2 details, got %v", result["details"])
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(services.RegisterInput) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"Str0ng!Pass","first_name":"J","last_name":"D"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("returns 500 when signing fails", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(services.RegisterInput) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{err: errors.New("no key")}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"Str0ng!Pass","first_name":"J","last_name":"D"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(email, password string) (*models.User, error) {
				if email != "test@example.com" || password != "Str0ng!Pass" {
					t.Errorf("unexpected credentials %q/%q", email, password)
				}
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{}, audit))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"Str0ng!Pass"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["access_token"] != "token-for-"+testUserID {
			t.Error("expected access token")
		}
		if !audit.has("LOGIN") {
			t.Error("expected LOGIN audit entry")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"nope"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on missing password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the caller's own user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserFn: func(p *authz.Principal, id string) (*models.User, error) {
				if id != p.SubjectID {
					t.Errorf("expected lookup of %s, got %s", p.SubjectID, id)
				}
				return &models.User{Base: models.Base{ID: id}, Email: "me@example.com"}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, stubSigner{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "me@example.com" {
			t.Errorf("unexpected profile %v", user)
		}
	})

	t.Run("returns 401 without principal", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, stubSigner{}, &mockAuditService{})
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHENTICATED")
	})
}
