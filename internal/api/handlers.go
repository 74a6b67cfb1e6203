package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/osrplabs/osrp/internal/auth"
	"github.com/osrplabs/osrp/internal/store"
	"github.com/osrplabs/osrp/pkg/bigmath"
	"github.com/osrplabs/osrp/pkg/oprf"
	"github.com/osrplabs/osrp/pkg/protocol"
)

// Handlers holds the dependencies of the API endpoints.
type Handlers struct {
	store      *store.Store
	auth       *auth.Server
	logins     *auth.LoginStore
	sessions   *auth.SessionManager
	retryAfter int // seconds, reported on OPRF rate-limit denials
}

// NewHandlers wires the API endpoints to their collaborators.
func NewHandlers(st *store.Store, authServer *auth.Server, logins *auth.LoginStore, sessions *auth.SessionManager, retryAfterSeconds int) *Handlers {
	return &Handlers{
		store:      st,
		auth:       authServer,
		logins:     logins,
		sessions:   sessions,
		retryAfter: retryAfterSeconds,
	}
}

// Register mounts all routes on the router.
func (h *Handlers) Register(router chi.Router) {
	router.Get("/v1/healthz", h.handleHealth)
	router.Post("/v1/register", h.handleRegister)
	router.Post("/v1/oprf/evaluate", h.handleOPRFEvaluate)
	router.Post("/v1/login/init", h.handleLoginInit)
	router.Post("/v1/login/verify", h.handleLoginVerify)

	router.Group(func(r chi.Router) {
		r.Use(RequireSession(h.sessions))
		r.Get("/v1/session", h.handleSession)
		r.Post("/v1/logout", h.handleLogout)
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthResponse{Status: "ok"})
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req protocol.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("malformed JSON"))
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("username is required"))
		return
	}
	if !validHex(req.Salt) || !validHex(req.Verifier) {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("salt and verifier must be hex"))
		return
	}

	if err := h.store.CreateUser(r.Context(), req.Username, req.Salt, req.Verifier); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeError(w, http.StatusConflict, protocol.NewUserExistsError(req.Username))
			return
		}
		writeError(w, http.StatusInternalServerError, protocol.NewSystemError("storing user record"))
		return
	}

	writeJSON(w, http.StatusCreated, protocol.RegisterResponse{Username: req.Username})
}

func (h *Handlers) handleOPRFEvaluate(w http.ResponseWriter, r *http.Request) {
	var req protocol.OPRFEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("malformed JSON"))
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("username is required"))
		return
	}
	requestWire, err := base64.StdEncoding.DecodeString(req.Request)
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.NewBadOPRFRequestError())
		return
	}

	responseWire, err := h.auth.PerformOPRFEval(req.Username, requestWire)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRateLimited):
			w.Header().Set("Retry-After", strconv.Itoa(h.retryAfter))
			writeError(w, http.StatusTooManyRequests, protocol.NewRateLimitExceededError(h.retryAfter))
		case errors.Is(err, oprf.ErrBadRequest):
			writeError(w, http.StatusBadRequest, protocol.NewBadOPRFRequestError())
		default:
			writeError(w, http.StatusInternalServerError, protocol.NewSystemError("OPRF evaluation"))
		}
		return
	}

	writeJSON(w, http.StatusOK, protocol.OPRFEvaluateResponse{
		Response: base64.StdEncoding.EncodeToString(responseWire),
	})
}

func (h *Handlers) handleLoginInit(w http.ResponseWriter, r *http.Request) {
	var req protocol.LoginInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("malformed JSON"))
		return
	}
	if req.Username == "" || !validHex(req.A) {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("username and hex A are required"))
		return
	}

	user, err := h.store.GetUser(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, protocol.NewUserNotFoundError(req.Username))
			return
		}
		writeError(w, http.StatusInternalServerError, protocol.NewSystemError("loading user record"))
		return
	}

	ephemeral, err := h.auth.GenerateEphemeral(user.Verifier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.NewSystemError("generating ephemeral"))
		return
	}

	loginID, err := h.logins.Store(&auth.PendingLogin{
		Username:        user.Username,
		Salt:            user.Salt,
		Verifier:        user.Verifier,
		EphemeralSecret: ephemeral.Secret,
		ClientPublic:    req.A,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.NewSystemError("storing pending login"))
		return
	}

	writeJSON(w, http.StatusOK, protocol.LoginInitResponse{
		LoginID: loginID,
		Salt:    user.Salt,
		B:       ephemeral.Public,
	})
}

func (h *Handlers) handleLoginVerify(w http.ResponseWriter, r *http.Request) {
	var req protocol.LoginVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("malformed JSON"))
		return
	}
	if req.LoginID == "" || !validHex(req.Proof) {
		writeError(w, http.StatusBadRequest, protocol.NewInvalidRequestError("login_id and hex proof are required"))
		return
	}

	pending := h.logins.Retrieve(req.LoginID)
	if pending == nil {
		writeError(w, http.StatusNotFound, protocol.NewLoginNotFoundError())
		return
	}

	session, err := h.auth.DeriveSession(
		pending.EphemeralSecret,
		pending.ClientPublic,
		pending.Salt,
		pending.Username,
		pending.Verifier,
		req.Proof,
	)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidClientEphemeral):
			writeError(w, http.StatusBadRequest, protocol.NewInvalidEphemeralError())
		case errors.Is(err, auth.ErrBadClientProof):
			writeError(w, http.StatusUnauthorized, protocol.NewAuthenticationFailedError())
		default:
			writeError(w, http.StatusInternalServerError, protocol.NewSystemError("session derivation"))
		}
		return
	}

	token, err := h.sessions.CreateSession(pending.Username, session.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.NewSystemError("issuing session token"))
		return
	}

	writeJSON(w, http.StatusOK, protocol.LoginVerifyResponse{
		ServerProof:  session.Proof,
		SessionToken: token,
	})
}

func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"username": r.Header.Get("X-OSRP-Username"),
	})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		_ = h.sessions.InvalidateSession(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// validHex reports whether s is non-empty and parses as hex.
func validHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := bigmath.FromHex(s)
	return err == nil
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a standardized error response.
func writeError(w http.ResponseWriter, status int, e *protocol.ErrorResponse) {
	writeJSON(w, status, e)
}
