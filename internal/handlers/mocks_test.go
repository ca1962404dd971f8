package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fundledger/internal/config"
	"fundledger/internal/middleware"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
	"fundledger/internal/services"
	"fundledger/internal/validator"
)

const (
	testUserID    = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a01"
	testAdminID   = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a02"
	testProjectID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4b01"
	testRecordID  = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4c01"
)

// --- mock services ---

type mockUserService struct {
	createUserFn            func(email, password, firstName, lastName string) (*models.User, error)
	createUserWithRoleFn    func(email, password, firstName, lastName string, role models.Role) (*models.User, error)
	getUserByEmailFn        func(email string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	listUsersFn             func(page pagination.PageRequest, filter services.UserFilter) (*pagination.PageResponse[models.User], error)
	updateUserFn            func(id string, in services.UpdateUserInput) (*models.User, error)
	verifyPasswordFn        func(user *models.User, password string) bool
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

var _ services.UserServicer = (*mockUserService)(nil)

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) CreateUserWithRole(email, password, firstName, lastName string, role models.Role) (*models.User, error) {
	if m.createUserWithRoleFn != nil {
		return m.createUserWithRoleFn(email, password, firstName, lastName, role)
	}
	return &models.User{Role: role}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}, IsActive: true}, nil
}

func (m *mockUserService) ListUsers(page pagination.PageRequest, filter services.UserFilter) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.User{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockUserService) UpdateUser(id string, in services.UpdateUserInput) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(id, in)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{IsActive: true}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

type auditEntry struct {
	userID, action, resourceType, resourceID string
}

type mockAuditService struct {
	entries         []auditEntry
	listAuditLogsFn func(page pagination.PageRequest, filter services.AuditFilter) (*pagination.PageResponse[models.AuditLog], error)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID})
}

func (m *mockAuditService) ListAuditLogs(page pagination.PageRequest, filter services.AuditFilter) (*pagination.PageResponse[models.AuditLog], error) {
	if m.listAuditLogsFn != nil {
		return m.listAuditLogsFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.AuditLog{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockAuditService) lastAction() string {
	if len(m.entries) == 0 {
		return ""
	}
	return m.entries[len(m.entries)-1].action
}

type mockProjectService struct {
	createProjectFn func(in services.CreateProjectInput) (*models.Project, error)
	getProjectFn    func(id string) (*models.Project, error)
	listProjectsFn  func(page pagination.PageRequest, filter services.ProjectFilter) (*pagination.PageResponse[models.Project], error)
	updateProjectFn func(id string, in services.UpdateProjectInput) (*models.Project, error)
	deleteProjectFn func(id string) error
	assignUserFn    func(projectID, userID, assignedBy string) (*models.ProjectUser, error)
	unassignUserFn  func(projectID, userID string) error
	listMembersFn   func(projectID string) ([]models.ProjectUser, error)
	isAssignedFn    func(projectID, userID string) (bool, error)
}

var _ services.ProjectServicer = (*mockProjectService)(nil)

func (m *mockProjectService) CreateProject(in services.CreateProjectInput) (*models.Project, error) {
	if m.createProjectFn != nil {
		return m.createProjectFn(in)
	}
	return &models.Project{ProjectCode: in.ProjectCode, Name: in.Name}, nil
}

func (m *mockProjectService) GetProject(id string) (*models.Project, error) {
	if m.getProjectFn != nil {
		return m.getProjectFn(id)
	}
	return &models.Project{Base: models.Base{ID: id}}, nil
}

func (m *mockProjectService) ListProjects(page pagination.PageRequest, filter services.ProjectFilter) (*pagination.PageResponse[models.Project], error) {
	if m.listProjectsFn != nil {
		return m.listProjectsFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.Project{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockProjectService) UpdateProject(id string, in services.UpdateProjectInput) (*models.Project, error) {
	if m.updateProjectFn != nil {
		return m.updateProjectFn(id, in)
	}
	return &models.Project{Base: models.Base{ID: id}}, nil
}

func (m *mockProjectService) DeleteProject(id string) error {
	if m.deleteProjectFn != nil {
		return m.deleteProjectFn(id)
	}
	return nil
}

func (m *mockProjectService) AssignUser(projectID, userID, assignedBy string) (*models.ProjectUser, error) {
	if m.assignUserFn != nil {
		return m.assignUserFn(projectID, userID, assignedBy)
	}
	return &models.ProjectUser{ProjectID: projectID, UserID: userID, AssignedBy: assignedBy}, nil
}

func (m *mockProjectService) UnassignUser(projectID, userID string) error {
	if m.unassignUserFn != nil {
		return m.unassignUserFn(projectID, userID)
	}
	return nil
}

func (m *mockProjectService) ListMembers(projectID string) ([]models.ProjectUser, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(projectID)
	}
	return []models.ProjectUser{}, nil
}

func (m *mockProjectService) IsAssigned(projectID, userID string) (bool, error) {
	if m.isAssignedFn != nil {
		return m.isAssignedFn(projectID, userID)
	}
	return false, nil
}

type mockFinanceService struct {
	createFinanceFn  func(in services.CreateFinanceInput) (*models.Finance, error)
	getFinanceFn     func(id string) (*models.Finance, error)
	listFinancesFn   func(page pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Finance], error)
	updateFinanceFn  func(id string, in services.UpdateFinanceInput) (*models.Finance, error)
	deleteFinanceFn  func(id string) error
	approveFinanceFn func(id, approvedBy string) (*models.Finance, error)
	rejectFinanceFn  func(id, approvedBy string) (*models.Finance, error)
	importFinancesFn func(rows []services.CreateFinanceInput) ([]models.Finance, error)
}

var _ services.FinanceServicer = (*mockFinanceService)(nil)

func (m *mockFinanceService) CreateFinance(in services.CreateFinanceInput) (*models.Finance, error) {
	if m.createFinanceFn != nil {
		return m.createFinanceFn(in)
	}
	return &models.Finance{Amount: in.Amount, Status: models.StatusApproved}, nil
}

func (m *mockFinanceService) GetFinance(id string) (*models.Finance, error) {
	if m.getFinanceFn != nil {
		return m.getFinanceFn(id)
	}
	return &models.Finance{Record: models.Record{ID: id}}, nil
}

func (m *mockFinanceService) ListFinances(page pagination.PageRequest, filter services.FinanceFilter) (*pagination.PageResponse[models.Finance], error) {
	if m.listFinancesFn != nil {
		return m.listFinancesFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.Finance{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockFinanceService) UpdateFinance(id string, in services.UpdateFinanceInput) (*models.Finance, error) {
	if m.updateFinanceFn != nil {
		return m.updateFinanceFn(id, in)
	}
	return &models.Finance{Record: models.Record{ID: id}}, nil
}

func (m *mockFinanceService) DeleteFinance(id string) error {
	if m.deleteFinanceFn != nil {
		return m.deleteFinanceFn(id)
	}
	return nil
}

func (m *mockFinanceService) ApproveFinance(id, approvedBy string) (*models.Finance, error) {
	if m.approveFinanceFn != nil {
		return m.approveFinanceFn(id, approvedBy)
	}
	return &models.Finance{Record: models.Record{ID: id}, Status: models.StatusApproved}, nil
}

func (m *mockFinanceService) RejectFinance(id, approvedBy string) (*models.Finance, error) {
	if m.rejectFinanceFn != nil {
		return m.rejectFinanceFn(id, approvedBy)
	}
	return &models.Finance{Record: models.Record{ID: id}, Status: models.StatusRejected}, nil
}

func (m *mockFinanceService) ImportFinances(rows []services.CreateFinanceInput) ([]models.Finance, error) {
	if m.importFinancesFn != nil {
		return m.importFinancesFn(rows)
	}
	out := make([]models.Finance, len(rows))
	for i, row := range rows {
		out[i] = models.Finance{Amount: row.Amount, Description: row.Description}
	}
	return out, nil
}

type mockAllocationService struct {
	createAllocationFn     func(in services.CreateAllocationInput) (*models.Allocation, error)
	getAllocationFn        func(id string) (*models.Allocation, error)
	listAllocationsFn      func(page pagination.PageRequest, filter services.AllocationFilter) (*pagination.PageResponse[models.Allocation], error)
	updateAllocationFn     func(id string, in services.UpdateAllocationInput) (*models.Allocation, error)
	deleteAllocationFn     func(id string) error
	approveAllocationFn    func(id, approvedBy string) (*models.Allocation, error)
	rejectAllocationFn     func(id, approvedBy string) (*models.Allocation, error)
	getSystemBalanceFn     func() (*services.SystemBalance, error)
	getProjectAllocationFn func(projectID string) (*services.ProjectBalanceView, error)
}

var _ services.AllocationServicer = (*mockAllocationService)(nil)

func (m *mockAllocationService) CreateAllocation(in services.CreateAllocationInput) (*models.Allocation, error) {
	if m.createAllocationFn != nil {
		return m.createAllocationFn(in)
	}
	return &models.Allocation{ProjectID: in.ProjectID, Amount: in.Amount, Status: models.StatusApproved}, nil
}

func (m *mockAllocationService) GetAllocation(id string) (*models.Allocation, error) {
	if m.getAllocationFn != nil {
		return m.getAllocationFn(id)
	}
	return &models.Allocation{Record: models.Record{ID: id}}, nil
}

func (m *mockAllocationService) ListAllocations(page pagination.PageRequest, filter services.AllocationFilter) (*pagination.PageResponse[models.Allocation], error) {
	if m.listAllocationsFn != nil {
		return m.listAllocationsFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.Allocation{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockAllocationService) UpdateAllocation(id string, in services.UpdateAllocationInput) (*models.Allocation, error) {
	if m.updateAllocationFn != nil {
		return m.updateAllocationFn(id, in)
	}
	return &models.Allocation{Record: models.Record{ID: id}}, nil
}

func (m *mockAllocationService) DeleteAllocation(id string) error {
	if m.deleteAllocationFn != nil {
		return m.deleteAllocationFn(id)
	}
	return nil
}

func (m *mockAllocationService) ApproveAllocation(id, approvedBy string) (*models.Allocation, error) {
	if m.approveAllocationFn != nil {
		return m.approveAllocationFn(id, approvedBy)
	}
	return &models.Allocation{Record: models.Record{ID: id}, Status: models.StatusApproved}, nil
}

func (m *mockAllocationService) RejectAllocation(id, approvedBy string) (*models.Allocation, error) {
	if m.rejectAllocationFn != nil {
		return m.rejectAllocationFn(id, approvedBy)
	}
	return &models.Allocation{Record: models.Record{ID: id}, Status: models.StatusRejected}, nil
}

func (m *mockAllocationService) GetSystemBalance() (*services.SystemBalance, error) {
	if m.getSystemBalanceFn != nil {
		return m.getSystemBalanceFn()
	}
	return &services.SystemBalance{}, nil
}

func (m *mockAllocationService) GetProjectAllocation(projectID string) (*services.ProjectBalanceView, error) {
	if m.getProjectAllocationFn != nil {
		return m.getProjectAllocationFn(projectID)
	}
	return &services.ProjectBalanceView{ProjectID: projectID}, nil
}

type mockExpenseService struct {
	createExpenseFn  func(in services.CreateExpenseInput) (*models.Expense, error)
	getExpenseFn     func(id string) (*models.Expense, error)
	listExpensesFn   func(page pagination.PageRequest, filter services.ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	updateExpenseFn  func(id string, in services.UpdateExpenseInput) (*models.Expense, error)
	deleteExpenseFn  func(id string) error
	approveExpenseFn func(id, approvedBy string) (*models.Expense, error)
	rejectExpenseFn  func(id, approvedBy string) (*models.Expense, error)
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

func (m *mockExpenseService) CreateExpense(in services.CreateExpenseInput) (*models.Expense, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(in)
	}
	return &models.Expense{ProjectID: in.ProjectID, UserID: in.UserID, Amount: in.Amount, Status: models.StatusPending}, nil
}

func (m *mockExpenseService) GetExpense(id string) (*models.Expense, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(id)
	}
	return &models.Expense{Record: models.Record{ID: id}, UserID: testUserID}, nil
}

func (m *mockExpenseService) ListExpenses(page pagination.PageRequest, filter services.ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(page, filter)
	}
	result := pagination.NewPageResponse([]models.Expense{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockExpenseService) UpdateExpense(id string, in services.UpdateExpenseInput) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(id, in)
	}
	return &models.Expense{Record: models.Record{ID: id}}, nil
}

func (m *mockExpenseService) DeleteExpense(id string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(id)
	}
	return nil
}

func (m *mockExpenseService) ApproveExpense(id, approvedBy string) (*models.Expense, error) {
	if m.approveExpenseFn != nil {
		return m.approveExpenseFn(id, approvedBy)
	}
	return &models.Expense{Record: models.Record{ID: id}, Status: models.StatusApproved}, nil
}

func (m *mockExpenseService) RejectExpense(id, approvedBy string) (*models.Expense, error) {
	if m.rejectExpenseFn != nil {
		return m.rejectExpenseFn(id, approvedBy)
	}
	return &models.Expense{Record: models.Record{ID: id}, Status: models.StatusRejected}, nil
}

type mockLedgerService struct {
	systemBalanceFn         func() (*services.SystemBalance, error)
	projectBalanceFn        func(projectID string) (*services.ProjectBalanceView, error)
	projectBalancesFn       func(page pagination.PageRequest) (*pagination.PageResponse[services.ProjectBalanceView], error)
	userAllocationBalanceFn func(userID, projectID string) (*services.UserAllocationBalance, error)
}

var _ services.LedgerServicer = (*mockLedgerService)(nil)

func (m *mockLedgerService) SystemBalance() (*services.SystemBalance, error) {
	if m.systemBalanceFn != nil {
		return m.systemBalanceFn()
	}
	return &services.SystemBalance{}, nil
}

func (m *mockLedgerService) ProjectBalance(projectID string) (*services.ProjectBalanceView, error) {
	if m.projectBalanceFn != nil {
		return m.projectBalanceFn(projectID)
	}
	return &services.ProjectBalanceView{ProjectID: projectID}, nil
}

func (m *mockLedgerService) ProjectBalances(page pagination.PageRequest) (*pagination.PageResponse[services.ProjectBalanceView], error) {
	if m.projectBalancesFn != nil {
		return m.projectBalancesFn(page)
	}
	result := pagination.NewPageResponse([]services.ProjectBalanceView{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockLedgerService) UserAllocationBalance(userID, projectID string) (*services.UserAllocationBalance, error) {
	if m.userAllocationBalanceFn != nil {
		return m.userAllocationBalanceFn(userID, projectID)
	}
	return &services.UserAllocationBalance{UserID: userID, ProjectID: projectID}, nil
}

// mockBalanceCache stubs the read side of the project_balances cache. The
// transactional mutators are never reached from handlers.
type mockBalanceCache struct {
	services.ProjectBalanceServicer
	getFn     func(projectID string) (*models.ProjectBalance, error)
	refreshFn func(projectID string) (*models.ProjectBalance, error)
}

func (m *mockBalanceCache) Get(projectID string) (*models.ProjectBalance, error) {
	if m.getFn != nil {
		return m.getFn(projectID)
	}
	return &models.ProjectBalance{ProjectID: projectID}, nil
}

func (m *mockBalanceCache) Refresh(projectID string) (*models.ProjectBalance, error) {
	if m.refreshFn != nil {
		return m.refreshFn(projectID)
	}
	return &models.ProjectBalance{ProjectID: projectID}, nil
}

type mockNotificationService struct {
	services.NotificationServicer
	listNotificationsFn func(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	unreadCountFn       func(userID string) (int64, error)
	markReadFn          func(userID, id string) (*models.Notification, error)
	markAllReadFn       func(userID string) (int64, error)
}

func (m *mockNotificationService) ListNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	if m.listNotificationsFn != nil {
		return m.listNotificationsFn(userID, page, unreadOnly)
	}
	result := pagination.NewPageResponse([]models.Notification{}, page.Page, page.PerPage, 0)
	return &result, nil
}

func (m *mockNotificationService) UnreadCount(userID string) (int64, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(userID)
	}
	return 0, nil
}

func (m *mockNotificationService) MarkRead(userID, id string) (*models.Notification, error) {
	if m.markReadFn != nil {
		return m.markReadFn(userID, id)
	}
	return &models.Notification{Record: models.Record{ID: id}, UserID: userID, IsRead: true}, nil
}

func (m *mockNotificationService) MarkAllRead(userID string) (int64, error) {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(userID)
	}
	return 0, nil
}

type mockSearchService struct {
	searchFn func(query string, user *models.User, limit int) (*services.SearchResults, error)
}

var _ services.SearchServicer = (*mockSearchService)(nil)

func (m *mockSearchService) Search(query string, user *models.User, limit int) (*services.SearchResults, error) {
	if m.searchFn != nil {
		return m.searchFn(query, user, limit)
	}
	return &services.SearchResults{Query: query}, nil
}

type mockReportService struct {
	dashboardFn         func() (*services.DashboardSummary, error)
	expensesForExportFn func(filter services.ExpenseFilter) ([]models.Expense, error)
	projectStatementFn  func(projectID string) (*services.ProjectStatement, error)
}

var _ services.ReportServicer = (*mockReportService)(nil)

func (m *mockReportService) Dashboard() (*services.DashboardSummary, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn()
	}
	return &services.DashboardSummary{}, nil
}

func (m *mockReportService) ExpensesForExport(filter services.ExpenseFilter) ([]models.Expense, error) {
	if m.expensesForExportFn != nil {
		return m.expensesForExportFn(filter)
	}
	return []models.Expense{}, nil
}

func (m *mockReportService) ProjectStatement(projectID string) (*services.ProjectStatement, error) {
	if m.projectStatementFn != nil {
		return m.projectStatementFn(projectID)
	}
	return &services.ProjectStatement{
		Project:     models.Project{Base: models.Base{ID: projectID}, ProjectCode: "PRJ-1", Name: "Project"},
		GeneratedAt: time.Now(),
	}, nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.Set(&config.Config{
		JWTSecret:       "handler-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Currency:        "UGX",
	})
}

// injectUser sets the identity AuthMiddleware would have stored.
func injectUser(uid string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uid)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func asUser() gin.HandlerFunc { return injectUser(testUserID, models.RoleUser) }
func asAdmin() gin.HandlerFunc { return injectUser(testAdminID, models.RoleAdmin) }

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// doMultipart sends fields and, when fileField is set, one file.
func doMultipart(t *testing.T, r *gin.Engine, method, path string, fields map[string]string, fileField, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
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

// dataOf returns the object inside the success envelope.
func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	if result["success"] != true {
		t.Fatalf("expected success=true, got %v", result)
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", result["data"])
	}
	return data
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func pngBytes() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
}
