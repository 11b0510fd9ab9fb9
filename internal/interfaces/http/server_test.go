package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port/porttest"
	"github.com/garyjia/expense-approval/internal/application/projector"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/auth"
	"github.com/garyjia/expense-approval/internal/infrastructure/metrics"
	"github.com/garyjia/expense-approval/internal/infrastructure/notify"
	"github.com/garyjia/expense-approval/internal/infrastructure/report"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const testSecret = "http-test-secret"

type testEnv struct {
	server *Server
	store  *porttest.Store
	tokens *auth.TokenService
	disp   dispatcher.Dispatcher
}

func newTestEnv(t *testing.T, devMode bool) *testEnv {
	t.Helper()
	store := porttest.NewStore(porttest.DefaultUsers()...)
	tokens := auth.NewTokenService(testSecret, "expense-approval", time.Hour)
	resolver := auth.ChainResolver{
		auth.NewJWTResolver(tokens, store.Users()),
		auth.NewDevHeaderResolver(store.Users()),
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	d := dispatcher.NewDispatcher()
	notify.Register(d, m, notify.NewInboxSink(store.Users(), store.Notifications()))
	t.Cleanup(func() { _ = d.Close() })

	svc := service.NewWorkflowService(
		resolver,
		workflow.NewEngine(store.Expenses(), store.Actions(), store),
		projector.New(store.Expenses()),
		store.Notifications(),
		report.NewExcelWriter(zap.NewNop()),
		d,
		nopLogger{},
		service.WithRecorder(m),
	)

	cfg := DefaultServerConfig()
	cfg.DevMode = devMode
	return &testEnv{
		server: NewServer(cfg, svc, reg, nopLogger{}),
		store:  store,
		tokens: tokens,
		disp:   d,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (e *testEnv) do(t *testing.T, method, path, role, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set(headerDevUserRole, role)
	}

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeExpense(t *testing.T, env envelope) entity.ExpenseRequest {
	t.Helper()
	var e entity.ExpenseRequest
	require.NoError(t, json.Unmarshal(env.Data, &e))
	return e
}

func TestHappyPathOverHTTP(t *testing.T) {
	env := newTestEnv(t, true)

	w, body := env.do(t, http.MethodPost, "/api/expenses", "EMPLOYEE", `{"title":"Conference","amount":"350.00"}`)
	require.Equal(t, http.StatusCreated, w.Code, body.Error)
	created := decodeExpense(t, body)
	assert.Equal(t, domainwf.StatePendingManager, created.Status)
	assert.True(t, decimal.RequireFromString("350").Equal(created.Amount))

	path := "/api/expenses/" + jsonID(created.ID)

	w, body = env.do(t, http.MethodPost, path+"/approve", "MANAGER", `{"comment":"fine"}`)
	require.Equal(t, http.StatusOK, w.Code, body.Error)
	assert.Equal(t, domainwf.StatePendingFinance, decodeExpense(t, body).Status)

	w, body = env.do(t, http.MethodPost, path+"/finance-approve", "FINANCE",
		`{"reimbursementMethod":"ACH","expectedPayoutDate":"2024-01-15"}`)
	require.Equal(t, http.StatusOK, w.Code, body.Error)
	assert.Equal(t, domainwf.StatePaid, decodeExpense(t, body).Status)

	w, body = env.do(t, http.MethodGet, path+"/history", "EMPLOYEE", "")
	require.Equal(t, http.StatusOK, w.Code, body.Error)
	var history entity.ExpenseHistory
	require.NoError(t, json.Unmarshal(body.Data, &history))
	require.Len(t, history.FinanceActions, 1)
	assert.Equal(t, "Method: ACH | Expected Payout: 2024-01-15", history.FinanceActions[0].PaymentReference)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, true)
	pending := env.store.Put(entity.ExpenseRequest{
		Title: "Taxi", Amount: decimal.NewFromInt(20), OwnerID: 1, Status: domainwf.StatePendingManager,
	})
	path := "/api/expenses/" + jsonID(pending)

	tests := []struct {
		name       string
		method     string
		path       string
		role       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"not found", http.MethodGet, "/api/expenses/999", "MANAGER", "", http.StatusNotFound, "NOT_FOUND"},
		{"employee approve", http.MethodPost, path + "/approve", "EMPLOYEE", "", http.StatusForbidden, "ACCESS_DENIED"},
		{"finance on pending manager", http.MethodPost, path + "/finance-approve", "FINANCE", "", http.StatusBadRequest, "INVALID_TRANSITION"},
		{"bad amount", http.MethodPost, "/api/expenses", "EMPLOYEE", `{"title":"x","amount":"-1"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad json", http.MethodPost, "/api/expenses", "EMPLOYEE", `{"title":`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad id", http.MethodGet, "/api/expenses/abc", "MANAGER", "", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad payout date", http.MethodPost, path + "/finance-approve", "FINANCE", `{"expectedPayoutDate":"15/01/2024"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"no credentials", http.MethodGet, "/api/expenses/my-expenses", "", "", http.StatusBadRequest, "UNAUTHENTICATED"},
		{"wrong role view", http.MethodGet, "/api/expenses/pending-finance-approval", "MANAGER", "", http.StatusForbidden, "ACCESS_DENIED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	assert.Equal(t, domainwf.StatePendingManager, env.store.Status(pending))
}

func TestCallerResolvedBeforeInput(t *testing.T) {
	env := newTestEnv(t, true)
	pending := env.store.Put(entity.ExpenseRequest{
		Title: "Taxi", Amount: decimal.NewFromInt(20), OwnerID: 1, Status: domainwf.StatePendingManager,
	})
	path := "/api/expenses/" + jsonID(pending)

	tests := []struct {
		name       string
		method     string
		path       string
		role       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"anonymous bad id", http.MethodGet, "/api/expenses/abc", "", "", http.StatusBadRequest, "UNAUTHENTICATED"},
		{"anonymous bad body", http.MethodPost, "/api/expenses", "", `{"title":`, http.StatusBadRequest, "UNAUTHENTICATED"},
		{"anonymous bad payout date", http.MethodPost, path + "/finance-approve", "", `{"expectedPayoutDate":"15/01/2024"}`, http.StatusBadRequest, "UNAUTHENTICATED"},
		{"employee approve bad id", http.MethodPost, "/api/expenses/abc/approve", "EMPLOYEE", "", http.StatusForbidden, "ACCESS_DENIED"},
		{"manager bad payout date", http.MethodPost, path + "/finance-approve", "MANAGER", `{"expectedPayoutDate":"15/01/2024"}`, http.StatusForbidden, "ACCESS_DENIED"},
		{"finance creates with bad body", http.MethodPost, "/api/expenses", "FINANCE", `{"title":`, http.StatusForbidden, "ACCESS_DENIED"},
		{"manager approve bad id", http.MethodPost, "/api/expenses/abc/approve", "MANAGER", "", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"manager approve unknown id", http.MethodPost, "/api/expenses/999/approve", "MANAGER", "", http.StatusNotFound, "NOT_FOUND"},
		{"employee approve unknown id", http.MethodPost, "/api/expenses/999/approve", "EMPLOYEE", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}

	assert.Equal(t, domainwf.StatePendingManager, env.store.Status(pending))
}

func TestDevHeadersIgnoredOutsideDevMode(t *testing.T) {
	env := newTestEnv(t, false)

	w, body := env.do(t, http.MethodGet, "/api/expenses/my-expenses", "EMPLOYEE", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", body.Code)

	token, err := env.tokens.Issue(&entity.User{ID: 1, Role: entity.RoleEmployee})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John Smith")
}

func TestListsAndDelete(t *testing.T) {
	env := newTestEnv(t, true)
	rejected := env.store.Put(entity.ExpenseRequest{
		Title: "Lunch", Amount: decimal.NewFromInt(12), OwnerID: 1, Status: domainwf.StateRejectedManager,
	})

	w, body := env.do(t, http.MethodGet, "/api/expenses/my-rejected", "EMPLOYEE", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []entity.ExpenseRequest
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, rejected, list[0].ID)

	w, body = env.do(t, http.MethodGet, "/api/expenses/pending-manager-approval", "MANAGER", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(body.Data))

	w, _ = env.do(t, http.MethodDelete, "/api/expenses/"+jsonID(rejected), "EMPLOYEE", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/expenses/"+jsonID(rejected), "EMPLOYEE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationsOverHTTP(t *testing.T) {
	env := newTestEnv(t, true)

	w, _ := env.do(t, http.MethodPost, "/api/expenses", "EMPLOYEE", `{"title":"Train","amount":45}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, env.disp.Close())

	w, body := env.do(t, http.MethodGet, "/api/notifications/unread/count", "MANAGER", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, string(body.Data))

	w, body = env.do(t, http.MethodGet, "/api/notifications?unread=true", "MANAGER", "")
	require.Equal(t, http.StatusOK, w.Code)
	var inbox []entity.Notification
	require.NoError(t, json.Unmarshal(body.Data, &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "expense.submitted", inbox[0].Type)

	w, _ = env.do(t, http.MethodPost, "/api/notifications/"+jsonID(inbox[0].ID)+"/read", "MANAGER", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodPost, "/api/notifications/read-all", "MANAGER", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":0}`, string(body.Data))
}

func TestExportAndOps(t *testing.T) {
	env := newTestEnv(t, true)
	env.store.Put(entity.ExpenseRequest{
		Title: "Flight", Amount: decimal.NewFromInt(300), OwnerID: 1, Status: domainwf.StatePaid,
	})

	w, _ := env.do(t, http.MethodGet, "/api/expenses/finance-history/export", "FINANCE", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "finance-history-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")

	w, body := env.do(t, http.MethodGet, "/api/expenses/finance-history/export", "EMPLOYEE", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", body.Code)

	w, body = env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	w, _ = env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "expense_transitions_total")
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(t, true)
	env.server.config.Host = "127.0.0.1"
	env.server.config.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
