package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	apperrors "github.com/louisbranch/flatline/internal/platform/errors"
	"github.com/louisbranch/flatline/internal/platform/requestctx"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/command"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"google.golang.org/grpc/codes"
)

// maxBodyBytes bounds request bodies; profile photos are the largest payload.
const maxBodyBytes = 8 << 20

// Engine is the engine surface the HTTP API needs.
type Engine interface {
	State() player.State
	Status() engine.Status
	Profile() player.Profile
	Logs() []logfeed.Entry
	FilterLogs(filter string) ([]logfeed.Entry, error)
	SubscribeLogs(listener logfeed.Listener) func()
	LogsDone() <-chan struct{}
	Execute(ctx context.Context, cmd command.Command) (engine.Result, error)
	SetUsername(ctx context.Context, username string) (engine.Result, error)
	UpdateProfile(ctx context.Context, profile player.Profile) (engine.Result, error)
}

// Options configures the handler.
type Options struct {
	// Auth enables bearer tokens. Nil leaves every route open.
	Auth *Auth
	// RateLimit is the per-IP action budget per second; zero disables it.
	RateLimit float64
	RateBurst int
	// Origins lists browser origins allowed to open /ws/logs besides the
	// server's own host. "*" allows any origin.
	Origins []string
	Logger  *log.Logger
}

// actionRoutes maps /api/actions/{action} to command types.
var actionRoutes = map[string]command.Type{
	"attack":         action.CommandTypeAttack,
	"craft-firewall": action.CommandTypeCraftWall,
	"virus-wave":     action.CommandTypeVirusWave,
	"deploy-bot":     action.CommandTypeDeployBot,
	"recall-bot":     action.CommandTypeRecallBot,
	"reboot":         action.CommandTypeReboot,
}

// Handler serves the JSON API.
type Handler struct {
	engine   Engine
	auth     *Auth
	limiter  *ipLimiter
	logger   *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewHandler builds the API handler.
func NewHandler(e Engine, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{
		engine:  e,
		auth:    opts.Auth,
		limiter: newIPLimiter(opts.RateLimit, opts.RateBurst),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.Origins),
		},
		mux: http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /api/state", h.handleState)
	h.mux.HandleFunc("GET /api/logs", h.handleLogs)
	h.mux.HandleFunc("POST /api/login", h.limited(h.handleLogin))
	h.mux.HandleFunc("POST /api/actions/{action}", h.limited(h.authenticated(h.handleAction)))
	h.mux.HandleFunc("GET /api/profile", h.authenticated(h.handleGetProfile))
	h.mux.HandleFunc("PUT /api/profile", h.limited(h.authenticated(h.handlePutProfile)))
	h.mux.HandleFunc("GET /ws/logs", h.authenticated(h.handleLogStream))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.Header.Get("X-Request-Id")); id != "" {
		r = r.WithContext(requestctx.WithRequestID(r.Context(), id))
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.auth == nil {
			next(w, r)
			return
		}
		subject, err := h.auth.Verify(tokenFromRequest(r))
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid session token", err))
			return
		}
		next(w, r.WithContext(requestctx.WithActor(r.Context(), subject)))
	}
}

func (h *Handler) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.allow(r) {
			writeError(w, apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded"))
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()
	code := http.StatusOK
	if status != engine.StatusReady {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": h.engine.Status(),
		"player": h.engine.State(),
	})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entries := h.engine.Logs()
	if filter := strings.TrimSpace(query.Get("filter")); filter != "" {
		filtered, err := h.engine.FilterLogs(filter)
		if err != nil {
			writeError(w, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter: "+err.Error(), err))
			return
		}
		entries = filtered
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, apperrors.New(apperrors.CodeCommandPayloadInvalid, "limit must be a non-negative integer"))
			return
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Result engine.Result `json:"result"`
	Token  string        `json:"token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.engine.SetUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := loginResponse{Result: result}
	if h.auth != nil && result.Success {
		token, err := h.auth.Issue(h.engine.State().Username)
		if err != nil {
			h.logger.Printf("issue token: %v", err)
			writeError(w, err)
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	typ, ok := actionRoutes[r.PathValue("action")]
	if !ok {
		writeError(w, apperrors.New(apperrors.CodeCommandTypeUnknown, "unknown action "+r.PathValue("action")))
		return
	}
	payload, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.engine.Execute(r.Context(), command.Command{
		Type:        typ,
		ActorID:     requestctx.Actor(r.Context()),
		RequestID:   requestctx.RequestID(r.Context()),
		PayloadJSON: payload,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Profile())
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile player.Profile
	if err := decodeBody(w, r, &profile); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.engine.UpdateProfile(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "read body", err)
	}
	return data, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.CodeCommandPayloadInvalid, "invalid json body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = apperrors.Wrap(apperrors.CodeInternal, "internal error", err)
	}
	writeJSON(w, httpStatus(domainErr.Code.GRPCCode()), errorBody{Code: string(domainErr.Code), Message: domainErr.Error()})
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
