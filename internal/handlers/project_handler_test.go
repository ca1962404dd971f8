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

func setupProjectRouter(handler *ProjectHandler, identity gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	g := r.Group("", identity)
	g.POST("/projects", handler.CreateProject)
	g.GET("/projects", handler.ListProjects)
	g.GET("/projects/mine", handler.MyProjects)
	g.GET("/projects/:id", handler.GetProject)
	g.PUT("/projects/:id", handler.UpdateProject)
	g.DELETE("/projects/:id", handler.DeleteProject)
	g.GET("/projects/:id/members", handler.ListMembers)
	g.POST("/projects/:id/members", handler.AssignUser)
	g.DELETE("/projects/:id/members/:userId", handler.UnassignUser)
	return r
}

func TestProjectHandler_CreateProject(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.CreateProjectInput
		projectSvc := &mockProjectService{
			createProjectFn: func(in services.CreateProjectInput) (*models.Project, error) {
				got = in
				return &models.Project{Base: models.Base{ID: testProjectID}, ProjectCode: "WELLS-01", Name: in.Name}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupProjectRouter(NewProjectHandler(projectSvc, audit), asAdmin())

		rec := doRequest(r, "POST", "/projects",
			`{"project_code":"wells-01","name":"Wells","expense_types":["travel"],"start_date":"2026-01-01","end_date":"2026-06-30"}`)

		assertStatus(t, rec, http.StatusCreated)
		if got.CreatedBy != testAdminID {
			t.Errorf("expected created_by %s, got %s", testAdminID, got.CreatedBy)
		}
		if got.StartDate == nil || got.EndDate == nil {
			t.Error("expected dates to be parsed")
		}
		if data := dataOf(t, rec); data["project_code"] != "WELLS-01" {
			t.Errorf("unexpected project code %v", data["project_code"])
		}
		if audit.lastAction() != "CREATE_PROJECT" {
			t.Errorf("expected CREATE_PROJECT audit entry, got %q", audit.lastAction())
		}
	})

	t.Run("returns 400 on invalid code", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects", `{"project_code":"a b","name":"Wells"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 when end precedes start", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects",
			`{"project_code":"WELLS","name":"Wells","start_date":"2026-06-01","end_date":"2026-01-01"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 409 on duplicate code", func(t *testing.T) {
		projectSvc := &mockProjectService{
			createProjectFn: func(services.CreateProjectInput) (*models.Project, error) {
				return nil, apperrors.ErrDuplicateProjectCode
			},
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects", `{"project_code":"WELLS","name":"Wells"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_PROJECT_CODE")
	})
}

func TestProjectHandler_ListProjects(t *testing.T) {
	capture := func(got *services.ProjectFilter) *mockProjectService {
		return &mockProjectService{
			listProjectsFn: func(page pagination.PageRequest, filter services.ProjectFilter) (*pagination.PageResponse[models.Project], error) {
				*got = filter
				result := pagination.NewPageResponse([]models.Project{}, page.Page, page.PerPage, 0)
				return &result, nil
			},
		}
	}

	t.Run("admins see every project", func(t *testing.T) {
		var got services.ProjectFilter
		r := setupProjectRouter(NewProjectHandler(capture(&got), &mockAuditService{}), asAdmin())

		rec := doRequest(r, "GET", "/projects?status=active", "")

		assertStatus(t, rec, http.StatusOK)
		if got.UserID != "" {
			t.Errorf("expected no user scope, got %q", got.UserID)
		}
		if got.Status == nil || *got.Status != models.ProjectStatusActive {
			t.Errorf("expected active status filter, got %v", got.Status)
		}
	})

	t.Run("users are scoped to their projects", func(t *testing.T) {
		var got services.ProjectFilter
		r := setupProjectRouter(NewProjectHandler(capture(&got), &mockAuditService{}), asUser())

		rec := doRequest(r, "GET", "/projects", "")

		assertStatus(t, rec, http.StatusOK)
		if got.UserID != testUserID {
			t.Errorf("expected user scope %s, got %q", testUserID, got.UserID)
		}
	})

	t.Run("my projects are scoped for admins too", func(t *testing.T) {
		var got services.ProjectFilter
		r := setupProjectRouter(NewProjectHandler(capture(&got), &mockAuditService{}), asAdmin())

		rec := doRequest(r, "GET", "/projects/mine", "")

		assertStatus(t, rec, http.StatusOK)
		if got.UserID != testAdminID {
			t.Errorf("expected user scope %s, got %q", testAdminID, got.UserID)
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "GET", "/projects?status=archived", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestProjectHandler_GetProject(t *testing.T) {
	t.Run("members can read their project", func(t *testing.T) {
		projectSvc := &mockProjectService{
			isAssignedFn: func(_, userID string) (bool, error) { return userID == testUserID, nil },
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asUser())

		rec := doRequest(r, "GET", "/projects/"+testProjectID, "")

		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("non-members get 403", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asUser())

		rec := doRequest(r, "GET", "/projects/"+testProjectID, "")

		assertStatus(t, rec, http.StatusForbidden)
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_ASSIGNED")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		projectSvc := &mockProjectService{
			getProjectFn: func(string) (*models.Project, error) { return nil, apperrors.ErrProjectNotFound },
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "GET", "/projects/"+testProjectID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "PROJECT_NOT_FOUND")
	})
}

func TestProjectHandler_UpdateProject(t *testing.T) {
	t.Run("passes supplied fields", func(t *testing.T) {
		var got services.UpdateProjectInput
		projectSvc := &mockProjectService{
			updateProjectFn: func(id string, in services.UpdateProjectInput) (*models.Project, error) {
				got = in
				return &models.Project{Base: models.Base{ID: id}, Status: *in.Status}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupProjectRouter(NewProjectHandler(projectSvc, audit), asAdmin())

		rec := doRequest(r, "PUT", "/projects/"+testProjectID, `{"status":"closed","expense_types":["fuel"]}`)

		assertStatus(t, rec, http.StatusOK)
		if got.Name != nil {
			t.Error("expected name to be left alone")
		}
		if got.ExpenseTypes == nil || len(*got.ExpenseTypes) != 1 {
			t.Errorf("expected one expense type, got %v", got.ExpenseTypes)
		}
		if audit.lastAction() != "UPDATE_PROJECT" {
			t.Errorf("expected UPDATE_PROJECT audit entry, got %q", audit.lastAction())
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "PUT", "/projects/"+testProjectID, `{"status":"paused"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestProjectHandler_DeleteProject(t *testing.T) {
	audit := &mockAuditService{}
	r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, audit), asAdmin())

	rec := doRequest(r, "DELETE", "/projects/"+testProjectID, "")

	assertStatus(t, rec, http.StatusOK)
	if audit.lastAction() != "DELETE_PROJECT" {
		t.Errorf("expected DELETE_PROJECT audit entry, got %q", audit.lastAction())
	}
}

func TestProjectHandler_Members(t *testing.T) {
	t.Run("assigns a user", func(t *testing.T) {
		var assignedBy string
		projectSvc := &mockProjectService{
			assignUserFn: func(projectID, userID, by string) (*models.ProjectUser, error) {
				assignedBy = by
				return &models.ProjectUser{ProjectID: projectID, UserID: userID, AssignedBy: by}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects/"+testProjectID+"/members", `{"user_id":"`+testUserID+`"}`)

		assertStatus(t, rec, http.StatusCreated)
		if assignedBy != testAdminID {
			t.Errorf("expected assigned_by %s, got %s", testAdminID, assignedBy)
		}
	})

	t.Run("returns 409 when already assigned", func(t *testing.T) {
		projectSvc := &mockProjectService{
			assignUserFn: func(_, _, _ string) (*models.ProjectUser, error) {
				return nil, apperrors.ErrAlreadyAssigned
			},
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects/"+testProjectID+"/members", `{"user_id":"`+testUserID+`"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_ASSIGNED")
	})

	t.Run("rejects a malformed user id", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "POST", "/projects/"+testProjectID+"/members", `{"user_id":"7"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("unassigns a user", func(t *testing.T) {
		var removed string
		projectSvc := &mockProjectService{
			unassignUserFn: func(_, userID string) error {
				removed = userID
				return nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asAdmin())

		rec := doRequest(r, "DELETE", "/projects/"+testProjectID+"/members/"+testUserID, "")

		assertStatus(t, rec, http.StatusOK)
		if removed != testUserID {
			t.Errorf("expected %s removed, got %q", testUserID, removed)
		}
	})

	t.Run("lists members for a member", func(t *testing.T) {
		projectSvc := &mockProjectService{
			isAssignedFn: func(_, _ string) (bool, error) { return true, nil },
			listMembersFn: func(projectID string) ([]models.ProjectUser, error) {
				return []models.ProjectUser{{ProjectID: projectID, UserID: testUserID}}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(projectSvc, &mockAuditService{}), asUser())

		rec := doRequest(r, "GET", "/projects/"+testProjectID+"/members", "")

		assertStatus(t, rec, http.StatusOK)
		members, ok := parseJSON(t, rec)["data"].([]interface{})
		if !ok || len(members) != 1 {
			t.Errorf("expected one member, got %v", members)
		}
	})
}
