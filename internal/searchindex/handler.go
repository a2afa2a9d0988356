package searchindex

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	casemodels "caseflow/internal/cases/models"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

type Searcher interface {
	Search(ctx context.Context, f Filter) (Page, error)
}

// Handler serves the case listing endpoint.
type Handler struct {
	index  Searcher
	logger *slog.Logger
}

func NewHandler(index Searcher, logger *slog.Logger) *Handler {
	return &Handler{index: index, logger: logger}
}

// Register mounts the search route. Authentication middleware is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cases/search", h.handleSearch)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !requestcontext.HasCapability(ctx, string(casemodels.CapSearch)) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "missing capability case.search"))
		return
	}

	q := r.URL.Query()
	f := Filter{
		ClientID: requestcontext.ClientID(ctx),
		Stage:    q.Get("stage"),
		CaseType: q.Get("case_type"),
		Text:     q.Get("q"),
	}
	var err error
	if f.ProviderID, err = intParam(q.Get("provider_id")); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "provider_id must be an integer"))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "offset must be an integer"))
		return
	}
	f.Limit, f.Offset = int(limit), int(offset)

	f.Normalize()
	if err := f.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.index.Search(ctx, f)
	if err != nil {
		h.logger.ErrorContext(ctx, "case search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "search failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func intParam(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
