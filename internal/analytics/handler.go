package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdesk/opsdesk/internal/platform/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers the dashboard endpoints on the given router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/kpis", h.KPIs)
		r.Get("/status-breakdown", h.StatusBreakdown)
		r.Get("/aging", h.Aging)
		r.Get("/trend", h.Trend)
		r.Get("/export", h.Export)
	})
}

func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	out, err := h.service.KPIs(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) StatusBreakdown(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.StatusBreakdown(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []StatusSlice{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	out, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	if months < 1 || months > 36 {
		months = 6
	}
	out, err := h.service.MonthlyTrend(r.Context(), months)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []TrendPoint{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	report, err := h.service.ExportSummary(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="billing-summary.txt"`)
	_, _ = w.Write(report)
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must not precede from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
