package export

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/auth"
	"github.com/dbca-wa/wastd-sub002/internal/domain"
)

// Handler streams stranding exports to the client.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := auth.EnforceCuratorAccess(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	query := r.URL.Query()

	format := FormatXLSX
	switch strings.ToLower(strings.TrimSpace(query.Get("format"))) {
	case "", "xlsx":
		format = FormatXLSX
	case "csv":
		format = FormatCSV
	default:
		http.Error(w, fmt.Sprintf("unsupported format %q", query.Get("format")), http.StatusBadRequest)
		return
	}

	filter := &domain.StrandingFilter{
		ScientificName: strings.TrimSpace(query.Get("species")),
		IncidentType:   strings.TrimSpace(query.Get("type")),
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid from date: %v", err), http.StatusBadRequest)
			return
		}
		filter.DateFrom = &from
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid to date: %v", err), http.StatusBadRequest)
			return
		}
		filter.DateTo = &to
	}

	fileName := fmt.Sprintf("strandings_%s.%s", time.Now().Format("20060102T150405"), format)
	if format == FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := h.service.Export(r.Context(), filter, format, w); err != nil {
		// Streaming has begun; the best we can do is log and stop.
		log.Printf("[export] export failed: %v", err)
	}
}
