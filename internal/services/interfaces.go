package services

import (
	"time"

	"gorm.io/gorm"

	"fundledger/internal/filestore"
	"fundledger/internal/models"
	"fundledger/internal/money"
	"fundledger/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	CreateUserWithRole(email, password, firstName, lastName string, role models.Role) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	ListUsers(page pagination.PageRequest, filter UserFilter) (*pagination.PageResponse[models.User], error)
	UpdateUser(id string, in UpdateUserInput) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// UserFilter holds optional filter parameters for listing users.
type UserFilter struct {
	Role     *models.Role
	IsActive *bool
	Search   string
}

// UpdateUserInput carries the fields an admin may change on a user.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *models.Role
	IsActive  *bool
}

// ProjectFilter holds optional filter parameters for listing projects.
type ProjectFilter struct {
	Status *models.ProjectStatus
	Search string
	UserID string
}

// CreateProjectInput carries the fields of a new project.
type CreateProjectInput struct {
	ProjectCode  string
	Name         string
	Description  string
	Status       models.ProjectStatus
	ExpenseTypes []string
	StartDate    *time.Time
	EndDate      *time.Time
	CreatedBy    string
}

// UpdateProjectInput carries the supplied fields of a project update.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Status       *models.ProjectStatus
	ExpenseTypes *[]string
	StartDate    *time.Time
	EndDate      *time.Time
}

// ProjectServicer defines the contract for project administration and
// membership.
type ProjectServicer interface {
	CreateProject(in CreateProjectInput) (*models.Project, error)
	GetProject(id string) (*models.Project, error)
	ListProjects(page pagination.PageRequest, filter ProjectFilter) (*pagination.PageResponse[models.Project], error)
	UpdateProject(id string, in UpdateProjectInput) (*models.Project, error)
	DeleteProject(id string) error
	AssignUser(projectID, userID, assignedBy string) (*models.ProjectUser, error)
	UnassignUser(projectID, userID string) error
	ListMembers(projectID string) ([]models.ProjectUser, error)
	IsAssigned(projectID, userID string) (bool, error)
}

// SystemBalance is the system-wide fund position.
type SystemBalance struct {
	TotalDeposits    money.Amount `json:"total_deposits"`
	TotalAllocated   money.Amount `json:"total_allocated"`
	AvailableBalance money.Amount `json:"available_balance"`
}

// ProjectBalanceView is the derived balance of one project. TotalDeposits and
// UnallocatedBalance are the system-wide figures the project draws from.
type ProjectBalanceView struct {
	ProjectID          string               `json:"project_id"`
	ProjectCode        string               `json:"project_code"`
	ProjectName        string               `json:"project_name"`
	Status             models.ProjectStatus `json:"status"`
	TotalDeposits      money.Amount         `json:"total_deposits"`
	TotalAllocated     money.Amount         `json:"total_allocated"`
	TotalSpent         money.Amount         `json:"total_spent"`
	AllocatedBalance   money.Amount         `json:"allocated_balance"`
	UnallocatedBalance money.Amount         `json:"unallocated_balance"`
}

// UserAllocationBalance is what one assignee may still spend in a project.
type UserAllocationBalance struct {
	UserID           string       `json:"user_id"`
	ProjectID        string       `json:"project_id"`
	Allocated        money.Amount `json:"allocated"`
	Spent            money.Amount `json:"spent"`
	RemainingBalance money.Amount `json:"remaining_balance"`
}

// LedgerServicer exposes the read-only balance aggregates.
type LedgerServicer interface {
	SystemBalance() (*SystemBalance, error)
	ProjectBalance(projectID string) (*ProjectBalanceView, error)
	ProjectBalances(page pagination.PageRequest) (*pagination.PageResponse[ProjectBalanceView], error)
	UserAllocationBalance(userID, projectID string) (*UserAllocationBalance, error)
}

// ProjectBalanceServicer maintains the project_balances cache. The mutators
// take the caller's transaction so the cache moves with the ledger write.
type ProjectBalanceServicer interface {
	UpdatePending(tx *gorm.DB, projectID string, amount money.Amount) error
	UpdateAllocation(tx *gorm.DB, projectID string, amount money.Amount) error
	UpdateExpense(tx *gorm.DB, projectID string, amount money.Amount) error
	ApplyAllocation(tx *gorm.DB, projectID string, status models.Status, amount money.Amount) error
	Get(projectID string) (*models.ProjectBalance, error)
	Refresh(projectID string) (*models.ProjectBalance, error)
}

// CreateFinanceInput carries the fields of a new deposit.
type CreateFinanceInput struct {
	Amount      money.Amount
	Description string
	DepositedBy *string
	Status      models.Status
	DepositedAt *time.Time
}

// UpdateFinanceInput carries the supplied fields of a deposit update.
type UpdateFinanceInput struct {
	Amount      *money.Amount
	Description *string
	DepositedBy *string
	DepositedAt *time.Time
}

// FinanceFilter holds optional filter parameters for listing deposits.
type FinanceFilter struct {
	Status   *models.Status
	FromDate *time.Time
	ToDate   *time.Time
	Search   string
}

// FinanceServicer defines the contract for deposit records.
type FinanceServicer interface {
	CreateFinance(in CreateFinanceInput) (*models.Finance, error)
	GetFinance(id string) (*models.Finance, error)
	ListFinances(page pagination.PageRequest, filter FinanceFilter) (*pagination.PageResponse[models.Finance], error)
	UpdateFinance(id string, in UpdateFinanceInput) (*models.Finance, error)
	DeleteFinance(id string) error
	ApproveFinance(id, approvedBy string) (*models.Finance, error)
	RejectFinance(id, approvedBy string) (*models.Finance, error)
	ImportFinances(rows []CreateFinanceInput) ([]models.Finance, error)
}

// CreateAllocationInput carries the fields of a new allocation.
type CreateAllocationInput struct {
	ProjectID   string
	Amount      money.Amount
	Description string
	AllocatedBy string
	Status      models.Status
	AllocatedAt *time.Time
	Proof       *filestore.Upload
}

// UpdateAllocationInput carries the supplied fields of an allocation update.
// Status is accepted only to report misuse; transitions go through
// ApproveAllocation and RejectAllocation.
type UpdateAllocationInput struct {
	ProjectID   *string
	Amount      *money.Amount
	Description *string
	Status      *models.Status
	AllocatedAt *time.Time
	Proof       *filestore.Upload
}

// AllocationFilter holds optional filter parameters for listing allocations.
type AllocationFilter struct {
	ProjectID string
	Status    *models.Status
	FromDate  *time.Time
	ToDate    *time.Time
}

// AllocationServicer defines the contract for allocating system funds to
// projects.
type AllocationServicer interface {
	CreateAllocation(in CreateAllocationInput) (*models.Allocation, error)
	GetAllocation(id string) (*models.Allocation, error)
	ListAllocations(page pagination.PageRequest, filter AllocationFilter) (*pagination.PageResponse[models.Allocation], error)
	UpdateAllocation(id string, in UpdateAllocationInput) (*models.Allocation, error)
	DeleteAllocation(id string) error
	ApproveAllocation(id, approvedBy string) (*models.Allocation, error)
	RejectAllocation(id, approvedBy string) (*models.Allocation, error)
	GetSystemBalance() (*SystemBalance, error)
	GetProjectAllocation(projectID string) (*ProjectBalanceView, error)
}

// CreateExpenseInput carries the fields of a new expense.
type CreateExpenseInput struct {
	ProjectID   string
	UserID      string
	Amount      money.Amount
	Description string
	Category    string
	SpentAt     *time.Time
	Receipt     *filestore.Upload
}

// UpdateExpenseInput carries the supplied fields of an expense update.
type UpdateExpenseInput struct {
	Amount      *money.Amount
	Description *string
	Category    *string
	SpentAt     *time.Time
	Receipt     *filestore.Upload
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	ProjectID string
	UserID    string
	Category  string
	Status    *models.Status
	FromDate  *time.Time
	ToDate    *time.Time
}

// ExpenseServicer defines the contract for expense submission and approval.
type ExpenseServicer interface {
	CreateExpense(in CreateExpenseInput) (*models.Expense, error)
	GetExpense(id string) (*models.Expense, error)
	ListExpenses(page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(id string, in UpdateExpenseInput) (*models.Expense, error)
	DeleteExpense(id string) error
	ApproveExpense(id, approvedBy string) (*models.Expense, error)
	RejectExpense(id, approvedBy string) (*models.Expense, error)
}

// NotificationServicer defines the contract for in-app notifications.
type NotificationServicer interface {
	Create(userID, notificationType, title, message, relatedType, relatedID string) (*models.Notification, error)
	NotifyAdmins(notificationType, title, message, relatedType, relatedID string) error
	NotifyProjectMembers(projectID, notificationType, title, message, relatedType, relatedID string) error
	ListNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	UnreadCount(userID string) (int64, error)
	MarkRead(userID, id string) (*models.Notification, error)
	MarkAllRead(userID string) (int64, error)
}

// AuditFilter holds optional filter parameters for listing audit entries.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	FromDate     *time.Time
	ToDate       *time.Time
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	ListAuditLogs(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error)
}

// SearchResults groups matches by record type.
type SearchResults struct {
	Query       string              `json:"query"`
	Projects    []models.Project    `json:"projects"`
	Finances    []models.Finance    `json:"finances"`
	Allocations []models.Allocation `json:"allocations"`
	Expenses    []models.Expense    `json:"expenses"`
}

// SearchServicer runs LIKE searches across ledger records. Non-admin callers
// only see their own projects and expenses.
type SearchServicer interface {
	Search(query string, user *models.User, limit int) (*SearchResults, error)
}

// DashboardSummary is the landing-page overview.
type DashboardSummary struct {
	System             SystemBalance `json:"system"`
	ProjectCount       int64         `json:"project_count"`
	ActiveProjectCount int64         `json:"active_project_count"`
	PendingExpenses    int64         `json:"pending_expenses"`
	PendingExpenseSum  money.Amount  `json:"pending_expense_total"`
	PendingAllocations int64         `json:"pending_allocations"`
	PendingFinances    int64         `json:"pending_finances"`
	TotalSpent         money.Amount  `json:"total_spent"`
}

// ProjectStatement is everything needed to render a project's statement.
type ProjectStatement struct {
	Project     models.Project      `json:"project"`
	Balance     ProjectBalanceView  `json:"balance"`
	Allocations []models.Allocation `json:"allocations"`
	Expenses    []models.Expense    `json:"expenses"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ReportServicer gathers data for the dashboard and exports.
type ReportServicer interface {
	Dashboard() (*DashboardSummary, error)
	ExpensesForExport(filter ExpenseFilter) ([]models.Expense, error)
	ProjectStatement(projectID string) (*ProjectStatement, error)
}
