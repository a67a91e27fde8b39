// Package handlers is the HTTP transport for the Command API (§6.2):
// thin adapters translating requests into api.API calls and apierr.Code
// values into status lines, Allow headers, and {code, message} bodies.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/api"
	"github.com/dogwalk/server/internal/apierr"
	"github.com/dogwalk/server/internal/metrics"
	"github.com/dogwalk/server/internal/players"
	"github.com/dogwalk/server/internal/ratelimit"
	"github.com/dogwalk/server/internal/telemetry"
)

// maxBodySize bounds request bodies the same way the teacher bounds
// ingestion payloads, so a slow or hostile client can't hold a worker
// goroutine on an unbounded read.
const maxBodySize = 1 << 16

type Config struct {
	API       *api.API
	Logger    *zap.Logger
	WWWRoot   string
	RateLimit *ratelimit.Limiter
	Telemetry *telemetry.Sink
}

type Handler struct {
	api       *api.API
	logger    *zap.SugaredLogger
	wwwRoot   string
	rateLimit *ratelimit.Limiter
	telemetry *telemetry.Sink
}

func New(cfg Config) *Handler {
	return &Handler{
		api:       cfg.API,
		logger:    cfg.Logger.Sugar(),
		wwwRoot:   cfg.WWWRoot,
		rateLimit: cfg.RateLimit,
		telemetry: cfg.Telemetry,
	}
}

// Routes builds the full HTTP router: the /api/v1 command surface plus
// static file serving from wwwRoot for everything else (§6.2).
func (h *Handler) Routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(corsMiddleware(corsOrigins))

	r.Get("/health", h.Health)
	r.Get("/metrics", promHandler())

	// Every endpoint is registered with HandleFunc (matches any verb) so
	// the handler itself can apply the exact method check and Allow
	// header the spec requires (§6.2, §7) — chi's own 405 handling
	// doesn't know the per-endpoint Allow list.
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/maps", func(r chi.Router) {
			r.HandleFunc("/", h.ListMaps)
			r.HandleFunc("/{id}", h.GetMap)
		})
		r.Route("/game", func(r chi.Router) {
			r.HandleFunc("/join", h.Join)
			r.HandleFunc("/players", h.ListPlayers)
			r.HandleFunc("/state", h.GetState)
			r.HandleFunc("/player/action", h.Action)
			r.HandleFunc("/tick", h.Tick)
			r.HandleFunc("/records", h.Records)
		})
		r.NotFound(h.apiNotFound)
		r.MethodNotAllowed(h.apiNotFound)
	})

	if h.wwwRoot != "" {
		fs := http.FileServer(http.Dir(h.wwwRoot))
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			fs.ServeHTTP(w, req)
		})
	}

	return r
}

// apiNotFound implements the "any other /api/... returns 400 badRequest"
// rule (§6.2), used both for unmatched routes and disallowed methods —
// chi's MethodNotAllowed gives us no verb list to build a precise Allow
// header here, so the catch-all stays a flat badRequest as specified.
func (h *Handler) apiNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeAPIErr(w, apierr.New(apierr.BadRequest, "unknown API endpoint"))
}

// writeAPIErr renders an *apierr.Error (or a generic error as an opaque
// badRequest) with its mapped status code.
func (h *Handler) writeAPIErr(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		h.logger.Errorw("unhandled internal error", "error", err)
		apiErr = apierr.New(apierr.BadRequest, "request could not be completed")
	}
	h.errorResponse(w, apiErr.Code.Status(), string(apiErr.Code), apiErr.Message)
}

// methodNotAllowed writes a 405 with the exact Allow header the spec
// requires for that endpoint (§7).
func (h *Handler) methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	h.errorResponse(w, http.StatusMethodNotAllowed, string(apierr.InvalidMethod), "method not allowed")
}

// ListMaps — GET /api/v1/maps.
func (h *Handler) ListMaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}
	h.jsonResponse(w, http.StatusOK, h.api.ListMaps())
}

// GetMap — GET /api/v1/maps/{id}.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}
	id := chi.URLParam(r, "id")
	m, err := h.api.GetMap(id)
	if err != nil {
		h.writeAPIErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(m.RawConfig)
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

// Join — POST /api/v1/game/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "POST")
		return
	}

	if h.rateLimit != nil {
		allowed, err := h.rateLimit.Allow(r.Context(), clientKey(r))
		if err != nil {
			h.logger.Warnw("rate limiter error, failing open", "error", err)
		}
		if !allowed {
			metrics.JoinsRateLimited.Inc()
			h.writeAPIErr(w, apierr.New(apierr.BadRequest, "too many join attempts, slow down"))
			return
		}
	}

	var req joinRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	res, err := h.api.Join(r.Context(), req.UserName, req.MapID)
	if err != nil {
		h.writeAPIErr(w, err)
		return
	}
	metrics.JoinsAccepted.Inc()

	if h.telemetry != nil {
		h.telemetry.Enqueue(telemetry.Event{Kind: "join", MapID: req.MapID, DogID: res.PlayerID, PlayerID: req.UserName, Timestamp: time.Now()})
	}

	h.jsonResponse(w, http.StatusOK, res)
}

// clientKey identifies a caller for join rate limiting: the remote
// address without its ephemeral port.
func clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		addr = addr[:i]
	}
	return addr
}

// ListPlayers — GET /api/v1/game/players.
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}
	tok, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	out, err := h.api.ListPlayers(r.Context(), tok)
	if err != nil {
		h.writeAPIErr(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"players": out})
}

// GetState — GET /api/v1/game/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}
	tok, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	out, err := h.api.GetState(r.Context(), tok)
	if err != nil {
		h.writeAPIErr(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, out)
}

type actionRequest struct {
	Move string `json:"move"`
}

// Action — POST /api/v1/game/player/action.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "POST")
		return
	}
	tok, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		h.writeAPIErr(w, apierr.New(apierr.InvalidArgument, "invalid content type"))
		return
	}

	var req actionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.api.Move(r.Context(), tok, req.Move); err != nil {
		h.writeAPIErr(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{})
}

type tickRequest struct {
	TimeDelta int `json:"timeDelta"`
}

// Tick — POST /api/v1/game/tick.
func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "POST")
		return
	}

	var req tickRequest
	if r.ContentLength != 0 {
		if !h.decodeJSON(w, r, &req) {
			return
		}
	}

	if err := h.api.Tick(r.Context(), req.TimeDelta); err != nil {
		h.writeAPIErr(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{})
}

// Records — GET /api/v1/game/records?start=&maxItems=.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.methodNotAllowed(w, "GET, HEAD")
		return
	}

	start := parseIntDefault(r.URL.Query().Get("start"), 0)
	maxItems := parseIntDefault(r.URL.Query().Get("maxItems"), 100)

	out, err := h.api.Records(r.Context(), start, maxItems)
	if err != nil {
		h.writeAPIErr(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, out)
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// authenticate extracts and validates the bearer token, writing the exact
// 401 the spec requires and returning ok=false on any failure (§6.2,
// §7). Format checks (invalidToken) happen here, before the Command API
// ever gets a chance to say unknownToken.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (players.Token, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	// "Bearer " (7 bytes) + 32 hex chars = 39 bytes, exactly (§6.2).
	if len(header) != 39 || !strings.HasPrefix(header, prefix) {
		h.writeAPIErr(w, apierr.New(apierr.InvalidToken, "missing or malformed Authorization header"))
		return "", false
	}

	tok := players.Token(header[len(prefix):])
	if !players.ValidTokenFormat(string(tok)) {
		h.writeAPIErr(w, apierr.New(apierr.InvalidToken, "token must be 32 hex characters"))
		return "", false
	}

	return tok, true
}

// decodeJSON reads and unmarshals a bounded request body, writing
// invalidArgument on any failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeAPIErr(w, apierr.New(apierr.InvalidArgument, "failed to read request body"))
		return false
	}
	if len(body) == 0 {
		h.writeAPIErr(w, apierr.New(apierr.InvalidArgument, "request body is required"))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.writeAPIErr(w, apierr.New(apierr.InvalidArgument, "failed to parse request JSON"))
		return false
	}
	return true
}
