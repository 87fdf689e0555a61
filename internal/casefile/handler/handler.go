package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	"casefile/internal/platform/metrics"
	"casefile/internal/platform/middleware"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/httputil"
	"casefile/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// VictimService defines the victim operations exposed over HTTP.
type VictimService interface {
	Create(ctx context.Context, cmd service.CreateVictimCommand) (*models.Victim, error)
	FindAll(ctx context.Context) ([]*models.VictimDetails, error)
	FindOne(ctx context.Context, victimID id.VictimID) (*models.VictimDetails, error)
	FindByNameAndFamily(ctx context.Context, name, family string) (*models.VictimDetails, error)
	Update(ctx context.Context, victimID id.VictimID, patch models.VictimPatch) (*models.VictimDetails, error)
	UpdateByNameAndFamily(ctx context.Context, name, family string, patch models.VictimPatch) (*models.VictimDetails, error)
	Remove(ctx context.Context, victimID id.VictimID) error
	DeleteByNameAndFamily(ctx context.Context, name, family string) error
}

// CaseService defines the case operations exposed over HTTP.
type CaseService interface {
	Create(ctx context.Context, cmd service.CreateCaseCommand) (*models.Case, error)
	FindAll(ctx context.Context) ([]*models.CaseDetails, error)
	FindOne(ctx context.Context, caseID id.CaseID) (*models.CaseDetails, error)
	Update(ctx context.Context, caseID id.CaseID, patch models.CasePatch) (*models.CaseDetails, error)
	Remove(ctx context.Context, caseID id.CaseID) error
}

// Handler serves the /victims and /cases endpoints.
type Handler struct {
	logger         *slog.Logger
	victims        VictimService
	cases          CaseService
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates a new casefile Handler. A zero requestTimeout uses the default.
func New(
	victims VictimService,
	cases CaseService,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Handler{
		logger:         logger,
		victims:        victims,
		cases:          cases,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}
}

// Register registers the victim and case routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	casefileRouter := chi.NewRouter()
	casefileRouter.Use(middleware.Recovery(h.logger))
	casefileRouter.Use(middleware.RequestID)
	casefileRouter.Use(requesttime.Middleware)
	casefileRouter.Use(middleware.Logger(h.logger))
	casefileRouter.Use(middleware.Timeout(h.requestTimeout))
	casefileRouter.Use(middleware.ContentTypeJSON)
	casefileRouter.Use(middleware.LatencyMiddleware(h.metrics))

	casefileRouter.Route("/victims", func(r chi.Router) {
		r.Post("/", h.handleCreateVictim)
		r.Get("/", h.handleListVictims)
		r.Get("/search", h.handleFindVictimByName)
		r.Patch("/search", h.handleUpdateVictimByName)
		r.Delete("/search", h.handleDeleteVictimByName)
		r.Get("/{id}", h.handleGetVictim)
		r.Patch("/{id}", h.handleUpdateVictim)
		r.Delete("/{id}", h.handleDeleteVictim)
	})
	casefileRouter.Route("/cases", func(r chi.Router) {
		r.Post("/", h.handleCreateCase)
		r.Get("/", h.handleListCases)
		r.Get("/{id}", h.handleGetCase)
		r.Patch("/{id}", h.handleUpdateCase)
		r.Delete("/{id}", h.handleDeleteCase)
	})

	r.Mount("/", casefileRouter)
}

func (h *Handler) handleCreateVictim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateVictimRequest
	if !h.decode(w, r, &req, "create victim") {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create victim request", err)
		return
	}
	cmd, err := req.Command()
	if err != nil {
		h.fail(ctx, w, "failed to create victim", err)
		return
	}

	victim, err := h.victims.Create(ctx, cmd)
	if err != nil {
		h.fail(ctx, w, "failed to create victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVictimResponse(victim))
}

func (h *Handler) handleListVictims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.victims.FindAll(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list victims", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVictimDetailsResponses(details))
}

func (h *Handler) handleGetVictim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	victimID, ok := h.victimID(w, r)
	if !ok {
		return
	}
	details, err := h.victims.FindOne(ctx, victimID)
	if err != nil {
		h.fail(ctx, w, "failed to get victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVictimDetailsResponse(details))
}

func (h *Handler) handleUpdateVictim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	victimID, ok := h.victimID(w, r)
	if !ok {
		return
	}
	patch, ok := h.victimPatch(w, r)
	if !ok {
		return
	}
	details, err := h.victims.Update(ctx, victimID, patch)
	if err != nil {
		h.fail(ctx, w, "failed to update victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVictimDetailsResponse(details))
}

func (h *Handler) handleDeleteVictim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	victimID, ok := h.victimID(w, r)
	if !ok {
		return
	}
	if err := h.victims.Remove(ctx, victimID); err != nil {
		h.fail(ctx, w, "failed to delete victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Victim deleted successfully"})
}

func (h *Handler) handleFindVictimByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, family, ok := h.nameAndFamily(w, r)
	if !ok {
		return
	}
	details, err := h.victims.FindByNameAndFamily(ctx, name, family)
	if err != nil {
		h.fail(ctx, w, "failed to find victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVictimDetailsResponse(details))
}

func (h *Handler) handleUpdateVictimByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, family, ok := h.nameAndFamily(w, r)
	if !ok {
		return
	}
	patch, ok := h.victimPatch(w, r)
	if !ok {
		return
	}
	details, err := h.victims.UpdateByNameAndFamily(ctx, name, family, patch)
	if err != nil {
		h.fail(ctx, w, "failed to update victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVictimDetailsResponse(details))
}

func (h *Handler) handleDeleteVictimByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, family, ok := h.nameAndFamily(w, r)
	if !ok {
		return
	}
	if err := h.victims.DeleteByNameAndFamily(ctx, name, family); err != nil {
		h.fail(ctx, w, "failed to delete victim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Victim deleted successfully"})
}

func (h *Handler) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateCaseRequest
	if !h.decode(w, r, &req, "create case") {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid create case request", err)
		return
	}
	cmd, err := req.Command()
	if err != nil {
		h.fail(ctx, w, "failed to create case", err)
		return
	}

	created, err := h.cases.Create(ctx, cmd)
	if err != nil {
		h.fail(ctx, w, "failed to create case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCaseResponse(created))
}

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.cases.FindAll(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCaseDetailsResponses(details))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	details, err := h.cases.FindOne(ctx, caseID)
	if err != nil {
		h.fail(ctx, w, "failed to get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCaseDetailsResponse(details))
}

func (h *Handler) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	var req UpdateCaseRequest
	if !h.decode(w, r, &req, "update case") {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid update case request", err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.fail(ctx, w, "failed to update case", err)
		return
	}

	details, err := h.cases.Update(ctx, caseID, patch)
	if err != nil {
		h.fail(ctx, w, "failed to update case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCaseDetailsResponse(details))
}

func (h *Handler) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	if err := h.cases.Remove(ctx, caseID); err != nil {
		h.fail(ctx, w, "failed to delete case", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) victimPatch(w http.ResponseWriter, r *http.Request) (models.VictimPatch, bool) {
	ctx := r.Context()
	var req UpdateVictimRequest
	if !h.decode(w, r, &req, "update victim") {
		return models.VictimPatch{}, false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(ctx, w, "invalid update victim request", err)
		return models.VictimPatch{}, false
	}
	patch, err := req.Patch()
	if err != nil {
		h.fail(ctx, w, "failed to update victim", err)
		return models.VictimPatch{}, false
	}
	return patch, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid "+op+" request",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// victimID parses the path id. An unparseable id cannot exist, so it is NotFound.
func (h *Handler) victimID(w http.ResponseWriter, r *http.Request) (id.VictimID, bool) {
	raw := chi.URLParam(r, "id")
	victimID, err := id.ParseVictimID(raw)
	if err != nil {
		h.fail(r.Context(), w, "victim lookup with malformed id", service.VictimNotFound(service.RawKey(raw)))
		return victimID, false
	}
	return victimID, true
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	raw := chi.URLParam(r, "id")
	caseID, err := id.ParseCaseID(raw)
	if err != nil {
		h.fail(r.Context(), w, "case lookup with malformed id", service.CaseNotFound(service.RawKey(raw)))
		return caseID, false
	}
	return caseID, true
}

func (h *Handler) nameAndFamily(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	q := r.URL.Query()
	name, family := q.Get("name"), q.Get("family")
	if name == "" || family == "" {
		h.fail(r.Context(), w, "victim search without name and family",
			dErrors.New(dErrors.CodeBadRequest, "name and family query parameters are required"))
		return "", "", false
	}
	return name, family, true
}

// fail logs at warn for caller errors and at error for internal ones, then
// writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
