package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"jornada/internal/service"
)

// Error messages returned to the worker. The front end displays them
// verbatim, so they stay in Spanish.
const (
	msgCodeRequired    = "El código es obligatorio"
	msgCodeUsed        = "El código no es válido, ya fue utilizado anteriormente"
	msgSessionActive   = "Ya tienes una jornada activa"
	msgNoActiveSession = "No tienes una jornada activa"
	msgServerError     = "Error en el servidor"
)

// SessionHandler handles the shift lifecycle endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	log        *logrus.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, log *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		log:        log,
	}
}

// CodeRequest is the request body for starting or ending a shift
type CodeRequest struct {
	Code string `json:"code"`
}

// Start handles POST /start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, msgCodeRequired)
		return
	}

	session, err := h.sessionSvc.Start(r.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeAlreadyUsed):
			writeError(w, http.StatusNotFound, msgCodeUsed)
		case errors.Is(err, service.ErrSessionActive):
			writeError(w, http.StatusConflict, msgSessionActive)
		default:
			h.log.WithError(err).WithField("code", req.Code).Error("start session failed")
			writeError(w, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// End handles POST /end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, msgCodeRequired)
		return
	}

	session, err := h.sessionSvc.End(r.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			writeError(w, http.StatusNotFound, msgNoActiveSession)
		default:
			h.log.WithError(err).WithField("code", req.Code).Error("end session failed")
			writeError(w, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// Active handles GET /active/{code}. A code with no open session answers
// {"active": null}, never an error.
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		writeError(w, http.StatusBadRequest, msgCodeRequired)
		return
	}

	session, err := h.sessionSvc.QueryActive(r.Context(), code)
	if err != nil {
		h.log.WithError(err).WithField("code", code).Error("active session lookup failed")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"active": session})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
