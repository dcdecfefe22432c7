package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/query"
)

// Recorder stores answered questions and returns the stored id.
type Recorder interface {
	Save(ctx context.Context, res *Result) (string, error)
}

// RenderFunc builds the presentation payload sent alongside a result.
type RenderFunc func(*Result) any

// RouteDeps are the collaborators of the query endpoints. Recorder and
// Render are optional.
type RouteDeps struct {
	Engine   *Engine
	Recorder Recorder
	Render   RenderFunc
	Logger   *zap.Logger
}

// RegisterRoutes mounts the query endpoints under /api/query.
func RegisterRoutes(r chi.Router, deps RouteDeps) {
	deps.Logger = logging.OrNop(deps.Logger)
	r.Route("/api/query", func(r chi.Router) {
		r.Post("/", handleQuery(deps))
		r.Get("/analyze", handleAnalyze(deps.Engine))
		r.Get("/suggestions", handleSuggestions())
		r.Get("/stream", handleStream(deps))
	})
}

// queryRequest is the body of POST /api/query and of each stream message.
type queryRequest struct {
	Query      string `json:"query"`
	DomainHint string `json:"domain_hint,omitempty"`
	ForceMode  string `json:"force_mode,omitempty"`
	Save       bool   `json:"save,omitempty"`
}

func (q queryRequest) toRequest() Request {
	return Request{Query: q.Query, DomainOverride: q.DomainHint, ForceMode: query.OutputMode(q.ForceMode)}
}

type queryResponse struct {
	ID               string  `json:"id,omitempty"`
	Result           *Result `json:"result"`
	Render           any     `json:"render,omitempty"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// answer runs one request and builds its response. Validation errors are
// returned as is so callers can map them to client errors.
func answer(ctx context.Context, deps RouteDeps, req queryRequest, obs Observer) (queryResponse, error) {
	start := time.Now()
	r := req.toRequest()
	r.Observer = obs
	res, err := deps.Engine.Reason(ctx, r)
	if err != nil {
		return queryResponse{}, err
	}

	resp := queryResponse{Result: res}
	if deps.Render != nil {
		resp.Render = deps.Render(res)
	}
	if req.Save && deps.Recorder != nil {
		id, err := deps.Recorder.Save(ctx, res)
		if err != nil {
			deps.Logger.Warn("saving query history", zap.String("id", res.ID), zap.Error(err))
		} else {
			resp.ID = id
		}
	}
	resp.ProcessingTimeMS = time.Since(start).Milliseconds()
	return resp, nil
}

func handleQuery(deps RouteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := answer(r.Context(), deps, req, nil)
		if err != nil {
			status := http.StatusInternalServerError
			if IsValidationError(err) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAnalyze(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, http.StatusBadRequest, "q parameter is required")
			return
		}
		writeJSON(w, http.StatusOK, engine.Analyze(q))
	}
}

func handleSuggestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		writeJSON(w, http.StatusOK, map[string]any{
			"domain":      domain,
			"suggestions": query.Suggestions(domain),
		})
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamMessage is one server-to-client message on the stream.
type streamMessage struct {
	Type   string         `json:"type"` // "stage", "result" or "error"
	Stage  Stage          `json:"stage,omitempty"`
	Result *queryResponse `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleStream answers each request message on the socket, sending every
// stage transition before the final result.
func handleStream(deps RouteDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			deps.Logger.Warn("websocket upgrade", zap.Error(err))
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					deps.Logger.Warn("websocket read", zap.Error(err))
				}
				return
			}

			var req queryRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				send(conn, deps.Logger, streamMessage{Type: "error", Error: "invalid message format"})
				continue
			}

			obs := func(s Stage) {
				send(conn, deps.Logger, streamMessage{Type: "stage", Stage: s})
			}
			resp, err := answer(r.Context(), deps, req, obs)
			if err != nil {
				send(conn, deps.Logger, streamMessage{Type: "error", Error: err.Error()})
				continue
			}
			send(conn, deps.Logger, streamMessage{Type: "result", Result: &resp})
		}
	}
}

func send(conn *websocket.Conn, logger *zap.Logger, msg streamMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		logger.Warn("websocket write", zap.Error(err))
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
