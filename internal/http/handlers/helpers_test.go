package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

type directoryShim struct{}

func (directoryShim) CreateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.CreateTechnician(ctx, db, t)
}
func (directoryShim) ListTechnicians(ctx context.Context, db *gorm.DB) ([]domain.Technician, error) {
	return repo.ListTechnicians(ctx, db)
}
func (directoryShim) GetTechnician(ctx context.Context, db *gorm.DB, id string) (*domain.Technician, error) {
	return repo.GetTechnician(ctx, db, id)
}
func (directoryShim) UpdateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.UpdateTechnician(ctx, db, t)
}
func (directoryShim) DeleteTechnician(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteTechnician(ctx, db, id)
}
func (directoryShim) CreateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.CreateJobSite(ctx, db, s)
}
func (directoryShim) ListJobSites(ctx context.Context, db *gorm.DB) ([]domain.JobSite, error) {
	return repo.ListJobSites(ctx, db)
}
func (directoryShim) GetJobSite(ctx context.Context, db *gorm.DB, id string) (*domain.JobSite, error) {
	return repo.GetJobSite(ctx, db, id)
}
func (directoryShim) UpdateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.UpdateJobSite(ctx, db, s)
}
func (directoryShim) DeleteJobSite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteJobSite(ctx, db, id)
}

// testEnv is a gin engine over real services and an in-memory database.
// Requests are authenticated as the account named in the X-Test-User
// header; no header means anonymous.
type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	h        *Handlers
	r        *gin.Engine
	authSvc  *services.AuthService
	accounts map[string]*domain.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	authSvc := &services.AuthService{
		DB:       db,
		Tokens:   auth.Tokens{Secret: []byte("handler-test-secret-0123"), TTL: time.Hour},
		Sessions: auth.DBSessions{DB: db},
		Limiter:  auth.NewLoginLimiter(1, 5),
	}
	dir := services.NewDirectoryService(db, directoryShim{})
	leave := &services.LeaveService{DB: db}
	h := New(Deps{
		DB:        db,
		Auth:      authSvc,
		Directory: dir,
		Planning:  &services.PlanningService{DB: db, Directory: dir},
		Leave:     leave,
		Chat:      services.NewChatService(db),
		WorkLog: &services.WorkLogService{
			DB:                  db,
			Tariffs:             derive.DefaultTariffs(),
			UnlockConfirmations: 2,
		},
		Dashboard: &services.DashboardService{Auth: authSvc, Leave: leave},
	})

	env := &testEnv{t: t, db: db, h: h, authSvc: authSvc, accounts: map[string]*domain.Account{}}
	env.seed("alice@ctr.fr", "Alice", domain.LabelAdmin)
	env.seed("bob@ctr.fr", "Bob")
	env.seed("carol@ctr.fr", "Carol")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if a, ok := env.accounts[c.GetHeader("X-Test-User")]; ok {
			middleware.SetIdentity(c, middleware.Identity{
				UserID: a.ID, Name: a.Name, Labels: a.Labels, SessionID: c.GetHeader("X-Test-Session"),
			})
		}
		c.Next()
	})
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		}))
	env.r = r
	env.routes()
	return env
}

// routes mounts every handler the way the router does, minus the bearer
// token check.
func (e *testEnv) routes() {
	h := e.h
	e.r.POST("/auth/login", h.Login)
	e.r.POST("/auth/logout", h.Logout)
	e.r.GET("/auth/me", h.Me)
	e.r.GET("/accounts", h.ListAccounts)
	e.r.GET("/dashboard", h.GetDashboard)

	e.r.GET("/technicians", h.ListTechnicians)
	e.r.POST("/technicians", h.CreateTechnician)
	e.r.GET("/technicians/:id", h.GetTechnician)
	e.r.PUT("/technicians/:id", h.UpdateTechnician)
	e.r.DELETE("/technicians/:id", h.DeleteTechnician)
	e.r.GET("/job-sites", h.ListJobSites)
	e.r.POST("/job-sites", h.CreateJobSite)
	e.r.PUT("/job-sites/:id", h.UpdateJobSite)
	e.r.DELETE("/job-sites/:id", h.DeleteJobSite)

	e.r.GET("/planning", h.GetPlanning)
	e.r.PUT("/planning/cells/:date/:technicianId", h.SaveCell)
	e.r.DELETE("/planning/cells/:date/:technicianId", h.ClearCell)
	e.r.POST("/planning/fill", h.FillPlanning)

	e.r.GET("/leave-requests/mine", h.ListMyLeave)
	e.r.POST("/leave-requests", h.CreateLeave)
	e.r.PUT("/leave-requests/:id", h.UpdateLeave)
	e.r.POST("/leave-requests/:id/seen", h.MarkLeaveSeen)

	e.r.POST("/chat/messages", h.SendMessage)
	e.r.DELETE("/chat/messages/:id", h.DeleteMessage)
	e.r.GET("/chat/conversations", h.ListConversations)
	e.r.GET("/chat/conversations/:key/messages", h.ListMessages)

	e.r.GET("/work-log", h.ListWorkLog)
	e.r.POST("/work-log", h.CreateWorkLogLine)
	e.r.PATCH("/work-log/:id", h.PatchWorkLogLine)
	e.r.DELETE("/work-log/:id", h.DeleteWorkLogLine)
	e.r.POST("/work-log/:id/lock", h.LockWorkLogLine)
	e.r.POST("/work-log/:id/unlock", h.UnlockWorkLogLine)
	e.r.GET("/tariffs", h.ListTariffs)

	admin := e.r.Group("/admin", middleware.RequireLabel(domain.LabelAdmin))
	admin.POST("/accounts", h.CreateAccount)
	admin.GET("/leave-requests", h.AdminListLeave)
	admin.PUT("/leave-requests/:id/status", h.DecideLeave)
	admin.PUT("/leave-requests/:id/comment", h.CommentLeave)
}

func (e *testEnv) seed(email, name string, labels ...string) {
	e.t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	a, err := repo.CreateAccount(context.Background(), e.db, email, name, hash, labels)
	if err != nil {
		e.t.Fatalf("seed account: %v", err)
	}
	e.accounts[strings.ToLower(name)] = a
}

func (e *testEnv) id(name string) string { return e.accounts[name].ID }

// do sends a request as user (empty for anonymous) with an optional JSON
// body and extra header pairs.
func (e *testEnv) do(method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d want %d body=%s", w.Code, want, w.Body.String())
	}
}

func wantCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	wantStatus(t, w, status)
	if er := decode[ErrorResponse](t, w); er.Code != code {
		t.Fatalf("code=%q want %q", er.Code, code)
	}
}

