package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/policy"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflow *service.WorkflowService
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(workflow *service.WorkflowService, logger Logger) *Handlers {
	return &Handlers{
		workflow: workflow,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ManagerActionRequest is the body of approve and reject
type ManagerActionRequest struct {
	Comment string `json:"comment"`
}

// FinanceActionRequest is the body of finance-approve
type FinanceActionRequest struct {
	Note                string `json:"note"`
	ReimbursementMethod string `json:"reimbursementMethod"`
	ExpectedPayoutDate  string `json:"expectedPayoutDate"`
}

// FinanceRejectionRequest is the body of finance-reject
type FinanceRejectionRequest struct {
	Comment string `json:"comment"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	actor, err := h.workflow.CurrentActor(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, actor)
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	g, ok := h.gate(c, policy.OpCreate)
	if !ok {
		return
	}
	var draft entity.ExpenseDraft
	if !g.bind(c, &draft) {
		return
	}
	expense, err := h.workflow.CreateExpense(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, expense)
}

func (h *Handlers) ListOwn(c *gin.Context)         { h.list(c, h.workflow.ListOwn) }
func (h *Handlers) ListOwnPending(c *gin.Context)  { h.list(c, h.workflow.ListOwnPending) }
func (h *Handlers) ListOwnRejected(c *gin.Context) { h.list(c, h.workflow.ListOwnRejected) }

func (h *Handlers) ListPendingForManager(c *gin.Context) { h.list(c, h.workflow.ListPendingForManager) }
func (h *Handlers) ListApprovedByManager(c *gin.Context) { h.list(c, h.workflow.ListApprovedByManager) }
func (h *Handlers) ListManagerHistory(c *gin.Context)    { h.list(c, h.workflow.ListManagerHistory) }

func (h *Handlers) ListPendingForFinance(c *gin.Context) { h.list(c, h.workflow.ListPendingForFinance) }
func (h *Handlers) ListApprovedByFinance(c *gin.Context) { h.list(c, h.workflow.ListApprovedByFinance) }
func (h *Handlers) ListFinanceHistory(c *gin.Context)    { h.list(c, h.workflow.ListFinanceHistory) }

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	g, ok := h.gate(c, policy.OpView)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	expense, err := h.workflow.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, expense)
}

// GetHistory handles GET /api/expenses/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	g, ok := h.gate(c, policy.OpView)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	history, err := h.workflow.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, history)
}

// UpdateExpense handles PUT /api/expenses/:id
func (h *Handlers) UpdateExpense(c *gin.Context) {
	g, ok := h.gate(c, policy.OpUpdate)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var draft entity.ExpenseDraft
	if !g.bind(c, &draft) {
		return
	}
	expense, err := h.workflow.UpdateExpense(c.Request.Context(), id, draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/expenses/:id
func (h *Handlers) DeleteExpense(c *gin.Context) {
	g, ok := h.gate(c, policy.OpDelete)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := h.workflow.DeleteExpense(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// ManagerApprove handles POST /api/expenses/:id/approve
func (h *Handlers) ManagerApprove(c *gin.Context) {
	h.managerAction(c, policy.OpManagerApprove, h.workflow.ManagerApprove)
}

// ManagerReject handles POST /api/expenses/:id/reject
func (h *Handlers) ManagerReject(c *gin.Context) {
	h.managerAction(c, policy.OpManagerReject, h.workflow.ManagerReject)
}

func (h *Handlers) managerAction(c *gin.Context, op policy.Operation, fn func(ctx context.Context, id int64, comment string) (*entity.ExpenseRequest, error)) {
	g, ok := h.gate(c, op)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req ManagerActionRequest
	if !g.bindOptional(c, &req) {
		return
	}
	expense, err := fn(c.Request.Context(), id, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, expense)
}

// FinanceApprove handles POST /api/expenses/:id/finance-approve
func (h *Handlers) FinanceApprove(c *gin.Context) {
	g, ok := h.gate(c, policy.OpFinanceApprove)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req FinanceActionRequest
	if !g.bindOptional(c, &req) {
		return
	}

	approval := workflow.FinanceApproval{
		Note:                req.Note,
		ReimbursementMethod: req.ReimbursementMethod,
	}
	if d := strings.TrimSpace(req.ExpectedPayoutDate); d != "" {
		payout, err := time.Parse(entity.PayoutDateLayout, d)
		if err != nil {
			g.invalid(c, apperr.ValidationFailed("expectedPayoutDate must be formatted as %s", entity.PayoutDateLayout))
			return
		}
		approval.ExpectedPayoutDate = &payout
	}

	expense, err := h.workflow.FinanceApprove(c.Request.Context(), id, approval)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, expense)
}

// FinanceReject handles POST /api/expenses/:id/finance-reject
func (h *Handlers) FinanceReject(c *gin.Context) {
	g, ok := h.gate(c, policy.OpFinanceReject)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req FinanceRejectionRequest
	if !g.bindOptional(c, &req) {
		return
	}
	expense, err := h.workflow.FinanceReject(c.Request.Context(), id, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, expense)
}

// ExportFinanceHistory handles GET /api/expenses/finance-history/export
func (h *Handlers) ExportFinanceHistory(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.workflow.ExportFinanceHistory(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}
	filename := fmt.Sprintf("finance-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListNotifications handles GET /api/notifications?unread=true
func (h *Handlers) ListNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	list, err := h.workflow.ListNotifications(c.Request.Context(), unreadOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

// UnreadCount handles GET /api/notifications/unread/count
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.workflow.UnreadCount(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"count": n})
}

// MarkRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkRead(c *gin.Context) {
	g, ok := h.gate(c)
	if !ok {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := h.workflow.MarkRead(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllRead(c *gin.Context) {
	n, err := h.workflow.MarkAllRead(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handlers) list(c *gin.Context, fn func(ctx context.Context) ([]*entity.ExpenseRequest, error)) {
	expenses, err := fn(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if expenses == nil {
		expenses = []*entity.ExpenseRequest{}
	}
	h.ok(c, http.StatusOK, expenses)
}

// inputGate parses request input on behalf of an already resolved caller
type inputGate struct {
	h     *Handlers
	actor entity.Actor
	ops   []policy.Operation
}

// gate resolves the caller before any input is read, so a missing identity
// is reported ahead of malformed input. ops names the operation the route
// performs, if any.
func (h *Handlers) gate(c *gin.Context, ops ...policy.Operation) (*inputGate, bool) {
	actor, err := h.workflow.CurrentActor(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return &inputGate{h: h, actor: actor, ops: ops}, true
}

// invalid reports a parse failure, or AccessDenied when the caller's role can
// never perform the route's operation. Well-formed requests leave role checks
// to the service so unknown ids still surface as NotFound first.
func (g *inputGate) invalid(c *gin.Context, err error) {
	for _, op := range g.ops {
		if denied := policy.AuthorizeRole(op, g.actor); denied != nil {
			err = denied
			break
		}
	}
	g.h.fail(c, err)
}

func (g *inputGate) idParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		g.invalid(c, apperr.ValidationFailed("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

func (g *inputGate) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		g.invalid(c, apperr.Wrap(apperr.KindValidationFailed, err, "invalid request body"))
		return false
	}
	return true
}

// bindOptional accepts an empty body for requests whose fields are all optional
func (g *inputGate) bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return g.bind(c, dst)
}

func (h *Handlers) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// fail writes the error envelope. Unclassified errors are logged and hidden.
func (h *Handlers) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		msg = "internal server error"
		kind = "INTERNAL"
	}
	c.JSON(status, Response{Success: false, Error: msg, Code: string(kind)})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAccessDenied:
		return http.StatusForbidden
	case apperr.KindInvalidTransition, apperr.KindValidationFailed, apperr.KindUnauthenticated:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
