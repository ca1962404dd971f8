package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("", asAdmin())
	g.POST("/users", handler.CreateUser)
	g.GET("/users", handler.ListUsers)
	g.GET("/users/:id", handler.GetUser)
	g.PUT("/users/:id", handler.UpdateUser)
	return r
}

func TestUserHandler_CreateUser(t *testing.T) {
	t.Run("defaults the role to user", func(t *testing.T) {
		var gotRole models.Role
		userSvc := &mockUserService{
			createUserWithRoleFn: func(email, _, _, _ string, role models.Role) (*models.User, error) {
				gotRole = role
				return &models.User{Base: models.Base{ID: testUserID}, Email: email, Role: role}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupUserRouter(NewUserHandler(userSvc, audit))

		rec := doRequest(r, "POST", "/users", `{"email":"new@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusCreated)
		if gotRole != models.RoleUser {
			t.Errorf("expected role user, got %q", gotRole)
		}
		if audit.lastAction() != "CREATE_USER" {
			t.Errorf("expected CREATE_USER audit entry, got %q", audit.lastAction())
		}
	})

	t.Run("returns 400 on unknown role", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/users", `{"email":"new@example.com","password":"password123","role":"owner"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var got services.UserFilter
		userSvc := &mockUserService{
			listUsersFn: func(page pagination.PageRequest, filter services.UserFilter) (*pagination.PageResponse[models.User], error) {
				got = filter
				result := pagination.NewPageResponse([]models.User{{Email: "a@example.com"}}, page.Page, page.PerPage, 1)
				return &result, nil
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/users?role=admin&is_active=true&search=ann", "")

		assertStatus(t, rec, http.StatusOK)
		if got.Role == nil || *got.Role != models.RoleAdmin {
			t.Errorf("expected admin role filter, got %v", got.Role)
		}
		if got.IsActive == nil || !*got.IsActive {
			t.Error("expected is_active filter")
		}
		if got.Search != "ann" {
			t.Errorf("expected search ann, got %q", got.Search)
		}
		result := parseJSON(t, rec)
		meta := result["pagination"].(map[string]interface{})
		if meta["total"] != float64(1) {
			t.Errorf("expected total 1, got %v", meta["total"])
		}
	})

	t.Run("returns 400 on invalid role", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/users?role=root", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/users/42", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/users/"+testUserID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Run("updates role", func(t *testing.T) {
		var got services.UpdateUserInput
		userSvc := &mockUserService{
			updateUserFn: func(id string, in services.UpdateUserInput) (*models.User, error) {
				got = in
				return &models.User{Base: models.Base{ID: id}, Role: *in.Role}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/users/"+testUserID, `{"role":"admin"}`)

		assertStatus(t, rec, http.StatusOK)
		if got.Role == nil || *got.Role != models.RoleAdmin {
			t.Errorf("expected role admin, got %v", got.Role)
		}
	})

	t.Run("refuses to deactivate the caller", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/users/"+testAdminID, `{"is_active":false}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
