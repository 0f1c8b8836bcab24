package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService signs accounts in and out.
type AuthService interface {
	Login(ctx context.Context, email, password, presented string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Account(ctx context.Context, accountID string) (*domain.Account, error)
	Logout(ctx context.Context, sessionID string) error
	Colleagues(ctx context.Context) ([]domain.Account, error)
	AddAccount(ctx context.Context, email, name, password string, labels []string) (*domain.Account, error)
}

// DirectoryService manages technicians and job sites.
type DirectoryService interface {
	ListTechnicians(ctx context.Context, q string) ([]domain.Technician, error)
	GetTechnician(ctx context.Context, id string) (*domain.Technician, error)
	CreateTechnician(ctx context.Context, in services.TechnicianInput) (*domain.Technician, error)
	UpdateTechnician(ctx context.Context, id string, in services.TechnicianInput) (*domain.Technician, error)
	DeleteTechnician(ctx context.Context, id string) error
	ListJobSites(ctx context.Context) ([]domain.JobSite, error)
	GetJobSite(ctx context.Context, id string) (*domain.JobSite, error)
	CreateJobSite(ctx context.Context, in services.JobSiteInput) (*domain.JobSite, error)
	UpdateJobSite(ctx context.Context, id string, in services.JobSiteInput) (*domain.JobSite, error)
	DeleteJobSite(ctx context.Context, id string) error
}

// PlanningService reads and edits the planning grid.
type PlanningService interface {
	Range(view, date string) (string, []time.Time, error)
	View(ctx context.Context, view, date string) (*services.Planning, error)
	SaveCell(ctx context.Context, date, technicianID string, in services.CellInput) (*domain.ScheduleCell, error)
	ClearCell(ctx context.Context, date, technicianID string) (bool, error)
	Fill(ctx context.Context, in services.FillInput) ([]domain.ScheduleCell, error)
}

// LeaveService files and decides leave requests.
type LeaveService interface {
	Mine(ctx context.Context, requesterID string) ([]domain.LeaveRequest, error)
	Get(ctx context.Context, requesterID, id string) (*domain.LeaveRequest, error)
	Create(ctx context.Context, requesterID, requesterName string, in services.LeaveInput) (*domain.LeaveRequest, error)
	Update(ctx context.Context, requesterID, id string, in services.LeaveInput) (*domain.LeaveRequest, error)
	MarkSeen(ctx context.Context, requesterID, id string) (*domain.LeaveRequest, error)
	AdminList(ctx context.Context) ([]domain.LeaveRequest, int64, error)
	Decide(ctx context.Context, id string, in services.DecisionInput) (*domain.LeaveRequest, error)
	Comment(ctx context.Context, id, comment string) (*domain.LeaveRequest, error)
}

// ChatService sends and lists chat messages.
type ChatService interface {
	Send(ctx context.Context, senderID, senderName string, in services.SendInput) (*domain.ChatMessage, error)
	Get(ctx context.Context, accountID, id string) (*domain.ChatMessage, error)
	Conversations(ctx context.Context, accountID string) ([]services.Conversation, error)
	Messages(ctx context.Context, accountID, key string, page, pageSize int) ([]domain.ChatMessage, int64, error)
	Delete(ctx context.Context, accountID, id string) error
}

// WorkLogService keeps the work-tracking ledger.
type WorkLogService interface {
	List(ctx context.Context, month, year int, q string) (*services.WorkLogPage, error)
	Get(ctx context.Context, id string) (*domain.WorkLogLine, error)
	Create(ctx context.Context, in services.WorkLogInput) (*domain.WorkLogLine, error)
	Patch(ctx context.Context, id, field, value string) (*domain.WorkLogLine, error)
	Lock(ctx context.Context, id, reference string) (*domain.WorkLogLine, error)
	Unlock(ctx context.Context, id string) (*services.UnlockResult, error)
	Delete(ctx context.Context, id string) error
	TariffList() []derive.Tariff
	SuggestTariffs(q string, k int) []derive.Tariff
}

// DashboardService assembles the landing page.
type DashboardService interface {
	Get(ctx context.Context, accountID string) (*services.Dashboard, error)
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. DB backs weak ETags and stored
// idempotent results; both are skipped when it is nil.
type Deps struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration

	Auth      AuthService
	Directory DirectoryService
	Planning  PlanningService
	Leave     LeaveService
	Chat      ChatService
	WorkLog   WorkLogService
	Dashboard DashboardService
}

// Handlers groups every HTTP endpoint of the intranet.
type Handlers struct {
	db      *gorm.DB
	idemTTL time.Duration

	auth      AuthService
	directory DirectoryService
	planning  PlanningService
	leave     LeaveService
	chat      ChatService
	worklog   WorkLogService
	dashboard DashboardService
}

// New constructs Handlers from d. IdempotencyTTL defaults to 24h.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		db:        d.DB,
		idemTTL:   ttl,
		auth:      d.Auth,
		directory: d.Directory,
		planning:  d.Planning,
		leave:     d.Leave,
		chat:      d.Chat,
		worklog:   d.WorkLog,
		dashboard: d.Dashboard,
	}
}

// userID is the authenticated account id set by middleware.RequireAuth.
func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Idempotency
//

// replay answers a POST from its stored result when the Idempotency-Key was
// seen before for this user and path. load fetches the stored resource.
func replay[T any](h *Handlers, c *gin.Context, load func(ctx context.Context, db *gorm.DB, id string) (*T, error)) bool {
	if h.db == nil || !middleware.IsReplay(c) {
		return false
	}
	key, _ := middleware.GetIdempotencyKey(c)
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.db, userID(c), middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return false
	}
	v, err := load(ctx, h.db, rec.ResourceID)
	if err != nil {
		// The resource was deleted since; process the request afresh.
		return false
	}
	c.Header("Idempotency-Replayed", "true")
	ok(c, rec.Status, v)
	return true
}

// remember stores the result of a POST under its Idempotency-Key. Failures
// only cost the replay, never the request.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, present := middleware.GetIdempotencyKey(c)
	if h.db == nil || !present {
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), h.db, userID(c), middleware.IdempotencyScope(c), key, resourceID, status, h.idemTTL)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}

// created writes a 201 for a resource and records it for replays.
func (h *Handlers) created(c *gin.Context, id string, body any) {
	h.remember(c, id, http.StatusCreated)
	ok(c, http.StatusCreated, body)
}
