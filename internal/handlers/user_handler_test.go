package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

func setupUserRouter(handler *UserHandler, role models.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectPrincipal(testUserID, role))
	auth.POST("/users", handler.CreateUser)
	auth.GET("/users", handler.ListUsers)
	auth.GET("/users/:id", handler.GetUser)
	auth.PUT("/users/:id", handler.UpdateUser)
	auth.DELETE("/users/:id", handler.DeleteUser)
	return r
}

func TestUserHandler_CreateUser(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(p *authz.Principal, in services.CreateUserInput) (*models.User, error) {
				if p.SubjectID != testUserID {
					t.Errorf("unexpected principal %s", p.SubjectID)
				}
				return &models.User{Base: models.Base{ID: testOtherID}, Email: in.Email, Role: in.Role}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(userSvc, audit), models.RoleAdmin)

		rec := doRequest(r, "POST", "/users",
			`{"email":"new@example.com","password":"Str0ng!Pass","first_name":"New","last_name":"User","role":"manager"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["role"] != "manager" {
			t.Errorf("expected manager role, got %v", user["role"])
		}
		if !audit.has("CREATE_USER") {
			t.Error("expected CREATE_USER audit entry")
		}
	})

	t.Run("returns 400 on unknown role", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "POST", "/users",
			`{"email":"new@example.com","password":"Str0ng!Pass","first_name":"New","last_name":"User","role":"root"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
	})

	t.Run("returns 403 when the service denies", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(*authz.Principal, services.CreateUserInput) (*models.User, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(userSvc, audit), models.RoleUser)

		rec := doRequest(r, "POST", "/users",
			`{"email":"new@example.com","password":"Str0ng!Pass","first_name":"New","last_name":"User"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
		if len(audit.entries) != 0 {
			t.Error("denied requests must not be audited")
		}
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	userSvc := &mockUserService{
		listUsersFn: func(_ *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
			if page.Page != 2 || page.PageSize != 5 {
				t.Errorf("unexpected page request %+v", page)
			}
			resp := pagination.NewPageResponse([]models.User{{Email: "a@example.com"}}, 2, 5, 6)
			return &resp, nil
		},
	}
	r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}), models.RoleManager)

	rec := doRequest(r, "GET", "/users?page=2&page_size=5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["total_items"] != float64(6) {
		t.Errorf("expected total_items 6, got %v", result["total_items"])
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("returns 400 on non-UUID id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "GET", "/users/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
	})

	t.Run("returns 404 for unknown user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserFn: func(*authz.Principal, string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "GET", "/users/"+testOtherID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Run("audits role changes", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUserFn: func(_ *authz.Principal, id string, in services.UpdateUserInput) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Role: *in.Role}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(userSvc, audit), models.RoleAdmin)

		rec := doRequest(r, "PUT", "/users/"+testOtherID, `{"role":"admin"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !audit.has("CHANGE_ROLE") {
			t.Error("expected CHANGE_ROLE audit entry")
		}
	})

	t.Run("name-only patch is not audited", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(&mockUserService{}, audit), models.RoleUser)

		rec := doRequest(r, "PUT", "/users/"+testUserID, `{"first_name":"Renamed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 403 for role change by manager", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUserFn: func(*authz.Principal, string, services.UpdateUserInput) (*models.User, error) {
				return nil, apperrors.ErrRoleChange
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}), models.RoleManager)

		rec := doRequest(r, "PUT", "/users/"+testOtherID, `{"role":"admin"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestUserHandler_DeleteUser(t *testing.T) {
	t.Run("returns 200 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(&mockUserService{}, audit), models.RoleAdmin)

		rec := doRequest(r, "DELETE", "/users/"+testOtherID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !audit.has("DELETE_USER") {
			t.Error("expected DELETE_USER audit entry")
		}
	})

	t.Run("returns 400 on self deletion", func(t *testing.T) {
		userSvc := &mockUserService{
			deleteUserFn: func(*authz.Principal, string) error { return apperrors.ErrSelfDeletion },
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "DELETE", "/users/"+testUserID, "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SELF_DELETION")
	})
}
