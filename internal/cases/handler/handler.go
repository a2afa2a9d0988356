package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/cases/models"
	"caseflow/internal/drafts"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// Service is the case engine as seen by the HTTP layer.
type Service interface {
	Create(ctx context.Context, req models.CreateCaseRequest) models.Result
	Get(ctx context.Context, id int64) (*models.CaseView, error)
	ListNotes(ctx context.Context, id int64) ([]models.Note, error)
	Update(ctx context.Context, id int64, req models.UpdateCaseRequest) models.Result
	SetSubjectInfo(ctx context.Context, id int64, req models.SubjectInfoRequest) models.Result
	Reassign(ctx context.Context, id int64, req models.ReassignRequest) models.Result
	LinkThirdParty(ctx context.Context, id int64, req models.LinkThirdPartyRequest) models.Result
	Convert(ctx context.Context, id int64, req models.ConvertRequest) models.Result
	Recalculate(ctx context.Context, id int64, req models.RecalculateRequest) models.Result
	RequestApproval(ctx context.Context, id int64, req models.ApprovalRequest) models.Result
	Reopen(ctx context.Context, id int64, req models.ReopenRequest) models.Result
	Reject(ctx context.Context, id int64, req models.RejectRequest) models.Result
	AcceptWithOutcome(ctx context.Context, id int64, req models.AcceptRequest) models.Result
	Transition(ctx context.Context, id int64, req models.TransitionRequest) models.Result
}

// DraftService stores conversion selections between recalculate and convert.
type DraftService interface {
	Create(ctx context.Context, caseID int64, sel drafts.Selections) (*drafts.Draft, error)
	Update(ctx context.Context, id string, sel drafts.Selections) (*drafts.Draft, error)
	Get(ctx context.Context, id string) (*drafts.Draft, error)
	Delete(ctx context.Context, id string) error
}

// Handler serves the case lifecycle endpoints.
type Handler struct {
	cases  Service
	drafts DraftService
	logger *slog.Logger
}

func New(cases Service, drafts DraftService, logger *slog.Logger) *Handler {
	return &Handler{cases: cases, drafts: drafts, logger: logger}
}

// Register mounts the case and draft routes. Authentication middleware is
// applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.handleCreate)
	r.Route("/cases/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Patch("/", command(h, h.cases.Update))
		r.Get("/notes", h.handleListNotes)
		r.Put("/subject", command(h, h.cases.SetSubjectInfo))
		r.Post("/reassign", command(h, h.cases.Reassign))
		r.Post("/third-party", command(h, h.cases.LinkThirdParty))
		r.Post("/convert", command(h, h.cases.Convert))
		r.Post("/recalculate", command(h, h.cases.Recalculate))
		r.Post("/approval-requests", command(h, h.cases.RequestApproval))
		r.Post("/reopen", command(h, h.cases.Reopen))
		r.Post("/reject", command(h, h.cases.Reject))
		r.Post("/accept", command(h, h.cases.AcceptWithOutcome))
		r.Post("/transitions", command(h, h.cases.Transition))
		r.Post("/drafts", h.handleCreateDraft)
	})
	r.Route("/drafts/{ticket}", func(r chi.Router) {
		r.Get("/", h.handleGetDraft)
		r.Put("/", h.handleUpdateDraft)
		r.Delete("/", h.handleDeleteDraft)
	})
}

// command adapts an engine operation taking a case id and a JSON body.
func command[T any](h *Handler, run func(context.Context, int64, T) models.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.caseID(w, r)
		if !ok {
			return
		}
		var req T
		if !httputil.Decode(w, r, &req) {
			return
		}
		h.writeResult(w, r, run(r.Context(), id, req), http.StatusOK)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCaseRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	h.writeResult(w, r, h.cases.Create(r.Context(), req), http.StatusCreated)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}
	view, err := h.cases.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}
	notes, err := h.cases.ListNotes(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.canDraft(w, r) {
		return
	}
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}
	var sel drafts.Selections
	if !httputil.Decode(w, r, &sel) {
		return
	}
	// The case lookup scopes the draft to a case the actor's client owns.
	if _, err := h.cases.Get(ctx, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.drafts.Create(ctx, id, sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if !h.canDraft(w, r) {
		return
	}
	d, err := h.drafts.Get(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	if !h.canDraft(w, r) {
		return
	}
	var sel drafts.Selections
	if !httputil.Decode(w, r, &sel) {
		return
	}
	d, err := h.drafts.Update(r.Context(), chi.URLParam(r, "ticket"), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if !h.canDraft(w, r) {
		return
	}
	if err := h.drafts.Delete(r.Context(), chi.URLParam(r, "ticket")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) canDraft(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	if requestcontext.HasCapability(ctx, string(models.CapConvert)) ||
		requestcontext.HasCapability(ctx, string(models.CapApproveConvert)) {
		return true
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "missing capability case.convert"))
	return false
}

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

// StatusFor maps an engine outcome to an HTTP status. A no-op is a success
// from the browser's point of view: the case is already where it was headed.
func StatusFor(res models.Result, success int) int {
	switch res.Outcome {
	case models.OutcomeSuccess:
		return success
	case models.OutcomeNoOp:
		return http.StatusOK
	case models.OutcomeConfigError:
		return http.StatusConflict
	}
	return httputil.StatusFor(res.Code)
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, res models.Result, success int) {
	status := StatusFor(res, success)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "case operation failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"outcome", res.Outcome,
			"code", res.Code,
			"path", r.URL.Path,
		)
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), "case request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "case id must be a positive integer"))
		return 0, false
	}
	return id, true
}
