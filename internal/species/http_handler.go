package species

import (
	"encoding/json"
	"net/http"

	"github.com/dbca-wa/wastd-sub002/internal/repository"
)

// Handler serves the read-only species reference list.
type Handler struct {
	repo repository.SpeciesRepository
}

// NewHTTPHandler wraps the species repository with a GET endpoint.
func NewHTTPHandler(repo repository.SpeciesRepository) http.Handler {
	return &Handler{repo: repo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(list)
}
