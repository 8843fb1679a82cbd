package handler

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	RegisterDomain(ctx context.Context, name string, caller id.Identity, payment decimal.Decimal) (*models.DomainRecord, error)
	RegisterSubdomain(ctx context.Context, parent, name string, caller id.Identity, payment decimal.Decimal) (*models.SubdomainRecord, error)
	GetController(ctx context.Context, name string) (id.Identity, error)
	GetSubdomainController(ctx context.Context, parent, name string) (id.Identity, error)
	GetDomain(ctx context.Context, name string) (*models.DomainRecord, error)
	ListDomains(ctx context.Context) ([]string, error)
	ListSubdomains(ctx context.Context, parent string) ([]*models.SubdomainRecord, error)
	CurrentFee(ctx context.Context) (decimal.Decimal, error)
	SetFee(ctx context.Context, fee decimal.Decimal, caller id.Identity) error
	Balance(ctx context.Context, caller id.Identity) (decimal.Decimal, error)
	ListWithdrawals(ctx context.Context, caller id.Identity) ([]models.Withdrawal, error)
	Withdraw(ctx context.Context, recipient, caller id.Identity) (*models.Withdrawal, error)
	FilterEvents(ctx context.Context, filter models.EventFilter) ([]models.RegistrationEvent, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service           Service
	logger            *slog.Logger
	withdrawRecipient id.Identity
}

// New constructs a registry handler. withdrawRecipient is used by POST
// /withdraw when the request names no recipient; it may be empty.
func New(service Service, logger *slog.Logger, withdrawRecipient id.Identity) *Handler {
	return &Handler{
		service:           service,
		logger:            logger,
		withdrawRecipient: withdrawRecipient,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/domains", h.HandleRegisterDomain)
	r.Get("/domains", h.HandleListDomains)
	r.Get("/domains/{name}", h.HandleGetDomain)
	r.Get("/domains/{name}/controller", h.HandleGetController)
	r.Post("/domains/{name}/subdomains", h.HandleRegisterSubdomain)
	r.Get("/domains/{name}/subdomains", h.HandleListSubdomains)
	r.Get("/domains/{name}/subdomains/{sub}/controller", h.HandleGetSubdomainController)

	r.Get("/fee", h.HandleGetFee)
	r.Put("/fee", h.HandleSetFee)
	r.Get("/treasury", h.HandleGetTreasury)
	r.Post("/withdraw", h.HandleWithdraw)

	r.Get("/events", h.HandleListEvents)
}

func requireCaller(ctx context.Context) (id.Identity, error) {
	if !requestcontext.Authenticated(ctx) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return requestcontext.Caller(ctx), nil
}

// HandleRegisterDomain handles POST /domains.
func (h *Handler) HandleRegisterDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	caller, err := requireCaller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.RegisterDomain(ctx, req.Name, caller, req.ParsedPayment())
	if err != nil {
		h.logFailure(ctx, "domain registration failed", err, "name", req.Name, "caller", caller.String())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "domain registration accepted",
		"request_id", requestID,
		"name", record.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDomain(record))
}

// HandleListDomains handles GET /domains.
func (h *Handler) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := h.service.ListDomains(ctx)
	if err != nil {
		h.logFailure(ctx, "list domains failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DomainListResponse{Domains: names, Count: len(names)})
}

// HandleGetDomain handles GET /domains/{name}.
func (h *Handler) HandleGetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.GetDomain(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.logFailure(ctx, "get domain failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDomain(record))
}

// HandleGetController handles GET /domains/{name}/controller.
func (h *Handler) HandleGetController(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	controller, err := h.service.GetController(ctx, name)
	if err != nil {
		h.logFailure(ctx, "get controller failed", err, "name", name)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ControllerResponse{Name: name, Controller: controller.String()})
}

// HandleRegisterSubdomain handles POST /domains/{name}/subdomains.
func (h *Handler) HandleRegisterSubdomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	parent := chi.URLParam(r, "name")

	caller, err := requireCaller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.RegisterSubdomain(ctx, parent, req.Name, caller, req.ParsedPayment())
	if err != nil {
		h.logFailure(ctx, "subdomain registration failed", err, "parent", parent, "name", req.Name, "caller", caller.String())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "subdomain registration accepted",
		"request_id", requestID,
		"name", record.FQDN(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromSubdomain(record))
}

// HandleListSubdomains handles GET /domains/{name}/subdomains.
func (h *Handler) HandleListSubdomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parent := chi.URLParam(r, "name")
	subs, err := h.service.ListSubdomains(ctx, parent)
	if err != nil {
		h.logFailure(ctx, "list subdomains failed", err, "parent", parent)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubdomains(parent, subs))
}

// HandleGetSubdomainController handles GET /domains/{name}/subdomains/{sub}/controller.
func (h *Handler) HandleGetSubdomainController(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parent := chi.URLParam(r, "name")
	sub := chi.URLParam(r, "sub")
	controller, err := h.service.GetSubdomainController(ctx, parent, sub)
	if err != nil {
		h.logFailure(ctx, "get subdomain controller failed", err, "parent", parent, "name", sub)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ControllerResponse{Name: sub, Parent: parent, Controller: controller.String()})
}

// HandleGetFee handles GET /fee.
func (h *Handler) HandleGetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fee, err := h.service.CurrentFee(ctx)
	if err != nil {
		h.logFailure(ctx, "read fee failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FeeResponse{Fee: fee.String()})
}

// HandleSetFee handles PUT /fee.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := requireCaller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetFee(ctx, req.ParsedFee(), caller); err != nil {
		h.logFailure(ctx, "set fee failed", err, "caller", caller.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FeeResponse{Fee: req.ParsedFee().String()})
}

// HandleGetTreasury handles GET /treasury.
func (h *Handler) HandleGetTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := requireCaller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.Balance(ctx, caller)
	if err != nil {
		h.logFailure(ctx, "read treasury failed", err, "caller", caller.String())
		httputil.WriteError(w, err)
		return
	}
	withdrawals, err := h.service.ListWithdrawals(ctx, caller)
	if err != nil {
		h.logFailure(ctx, "list withdrawals failed", err, "caller", caller.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTreasury(balance, withdrawals))
}

// HandleWithdraw handles POST /withdraw. An empty body withdraws to the
// configured recipient.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := requireCaller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req := &WithdrawRequest{}
	if hasBody(r) {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID); !ok {
			return
		}
	}
	recipient := req.ParsedRecipient()
	if recipient.IsNil() {
		recipient = h.withdrawRecipient
	}
	if recipient.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "recipient is required"))
		return
	}

	withdrawal, err := h.service.Withdraw(ctx, recipient, caller)
	if err != nil {
		h.logFailure(ctx, "withdraw failed", err, "caller", caller.String(), "recipient", recipient.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWithdrawal(*withdrawal))
}

// hasBody reports whether r carries at least one body byte. A chunked body has
// an unknown length, so one byte is peeked and left readable.
func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return false
	}
	if r.ContentLength > 0 {
		return true
	}
	br := bufio.NewReader(r.Body)
	if _, err := br.Peek(1); err != nil {
		return false
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{br, r.Body}
	return true
}

// HandleListEvents handles GET /events?kind=&controller=.
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := ParseEventFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.FilterEvents(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "filter events failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "request_id", requestcontext.RequestID(ctx), "error", err)
	if de, ok := dErrors.As(err); ok && dErrors.HTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}
