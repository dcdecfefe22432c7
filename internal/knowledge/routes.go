package knowledge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/logging"
)

// maxUploadBytes caps a dataset upload body.
const maxUploadBytes = 16 << 20

// RouteDeps are the collaborators of the knowledge endpoints. PersistDir,
// when set, is where the store is saved after every change. Tagger, when
// set, fills in the domain and region of uploaded datasets.
type RouteDeps struct {
	Store      Store
	Retriever  *Retriever
	Tagger     Tagger
	PersistDir string
	Logger     *zap.Logger
}

// RegisterRoutes mounts knowledge endpoints under /api/knowledge.
func RegisterRoutes(r chi.Router, deps RouteDeps) {
	deps.Logger = logging.OrNop(deps.Logger)
	r.Route("/api/knowledge", func(r chi.Router) {
		r.Post("/datasets", handleAddDatasets(deps))
		r.Delete("/datasets/{id}", handleDeleteDataset(deps))
		r.Get("/datasets/{id}", handleGetDataset(deps.Store))
		r.Get("/stats", handleStats(deps.Store))
		r.Get("/search", handleSearch(deps.Retriever))
	})
}

func handleAddDatasets(deps RouteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		datasets, err := ParseDatasets(body, ".json")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dataset JSON: "+err.Error())
			return
		}
		ids := make([]string, 0, len(datasets))
		for i := range datasets {
			if datasets[i].ID == "" {
				datasets[i].ID = uuid.NewString()
			}
			datasets[i].Tag(deps.Tagger)
			if err := datasets[i].Validate(); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			ids = append(ids, datasets[i].ID)
		}

		if err := deps.Store.AddDatasets(r.Context(), datasets); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		persist(r, deps)
		deps.Logger.Info("datasets added", zap.Int("count", len(ids)))
		writeJSON(w, http.StatusCreated, map[string]any{"added": len(ids), "ids": ids})
	}
}

func handleDeleteDataset(deps RouteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		persist(r, deps)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetDataset(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		res, err := toResult(doc, 1)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleStats(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleSearch(retriever *Retriever) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		text := q.Get("q")
		if text == "" {
			writeError(w, http.StatusBadRequest, "q parameter is required")
			return
		}
		req := Request{Query: text, DomainHint: q.Get("domain")}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				req.Limit = n
			}
		}

		results, err := retriever.Retrieve(r.Context(), req)
		if err != nil && !errors.Is(err, ErrEmptyStore) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if results == nil {
			results = []Result{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func persist(r *http.Request, deps RouteDeps) {
	if deps.PersistDir == "" {
		return
	}
	if err := deps.Store.Persist(r.Context(), deps.PersistDir); err != nil {
		deps.Logger.Warn("persisting knowledge store", zap.String("dir", deps.PersistDir), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
