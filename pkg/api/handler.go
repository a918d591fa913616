package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/hazyhaar/entitycorrect/pkg/kit"
	"github.com/hazyhaar/entitycorrect/pkg/observe"
	"github.com/hazyhaar/entitycorrect/pkg/translit"
)

// NewRouter returns an http.Handler with all entitycorrect API routes.
// metrics may be nil.
func NewRouter(reg *correct.Registry, logger *slog.Logger, metrics *observe.Metrics) http.Handler {
	mux := http.NewServeMux()
	h := &handler{endpoints: newEndpoints(reg, logger), reg: reg}

	mux.HandleFunc("GET /v1/correct", h.handleCorrectQuery)
	mux.HandleFunc("POST /v1/correct", h.handleCorrect)
	mux.HandleFunc("GET /v1/correct/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/correct/batch", h.handleCorrectBatch)
	mux.HandleFunc("GET /v1/dicts", h.handleListDicts)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", observe.Handler())

	return cors(observe.Middleware(metrics, logger)(mux))
}

type handler struct {
	*endpoints
	reg *correct.Registry
}

// --- correct single text ---

type httpCorrectRequest struct {
	Text        string   `json:"text"`
	Dicts       []string `json:"dicts,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

func (r *httpCorrectRequest) opts() *correct.CorrectOptions {
	return &correct.CorrectOptions{Dicts: r.Dicts, Languages: r.Languages, EntityTypes: r.EntityTypes}
}

func (h *handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpCorrectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.serveCorrect(w, r, req.Text, req.opts())
}

func (h *handler) handleCorrectQuery(w http.ResponseWriter, r *http.Request) {
	h.serveCorrect(w, r, r.URL.Query().Get("text"), parseOpts(r))
}

func (h *handler) serveCorrect(w http.ResponseWriter, r *http.Request, text string, opts *correct.CorrectOptions) {
	ctx := kit.WithDicts(kit.WithTransport(r.Context(), "http"), opts.Dicts)
	resp, err := h.correct(ctx, &correctReq{Text: text, Opts: opts})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- correct batch ---

type httpBatchRequest struct {
	Texts       []string `json:"texts"`
	Dicts       []string `json:"dicts,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

func (h *handler) handleCorrectBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := kit.WithDicts(kit.WithTransport(r.Context(), "http"), req.Dicts)
	resp, err := h.correctBatch(ctx, &correctBatchReq{
		Texts: req.Texts,
		Opts: &correct.CorrectOptions{
			Dicts:       req.Dicts,
			Languages:   req.Languages,
			EntityTypes: req.EntityTypes,
		},
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- list dicts ---

func (h *handler) handleListDicts(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listDicts(kit.WithTransport(r.Context(), "http"), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status       string `json:"status"`
	Dictionaries int    `json:"dictionaries"`
	TotalKeys    int    `json:"total_keys"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Dictionaries: h.reg.DictCount(),
		TotalKeys:    h.reg.TotalKeys(),
	})
}

// --- helpers ---

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, translit.ErrTransliteration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseOpts(r *http.Request) *correct.CorrectOptions {
	opts := &correct.CorrectOptions{}
	if v := r.URL.Query().Get("dicts"); v != "" {
		opts.Dicts = strings.Split(v, ",")
	}
	if v := r.URL.Query().Get("languages"); v != "" {
		opts.Languages = strings.Split(v, ",")
	}
	if v := r.URL.Query().Get("entity_types"); v != "" {
		opts.EntityTypes = strings.Split(v, ",")
	}
	return opts
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
