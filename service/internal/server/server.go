// Package server exposes the rules evaluator over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/findfriends/tractor/service/internal/game"
	"github.com/findfriends/tractor/service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxMessageBytes bounds one request on either transport.
const maxMessageBytes = 1 << 20

// Authenticator resolves the caller behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (models.Caller, error)
}

// Server routes transport requests into a game.Evaluator.
type Server struct {
	eval *game.Evaluator
	auth Authenticator
	log  logrus.FieldLogger
}

// New builds a Server.
func New(eval *game.Evaluator, auth Authenticator, log logrus.FieldLogger) *Server {
	return &Server{eval: eval, auth: auth, log: log}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/ops", s.handleOps)
	mux.HandleFunc("POST /v1/rules/{op}", s.authenticated(s.handleRule))
	mux.HandleFunc("GET /v1/presets/{name}", s.authenticated(s.handlePreset))
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]game.Op{"ops": game.Ops()})
}

type callerHandler func(w http.ResponseWriter, r *http.Request, caller models.Caller)

func (s *Server) authenticated(next callerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.auth.Authenticate(r)
		if err != nil {
			s.log.WithError(err).WithField("path", r.URL.Path).Info("rejected unauthenticated request")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		next(w, r, caller)
	}
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	var payload json.RawMessage
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, game.Response{
			Op:      game.Op(r.PathValue("op")),
			Status:  game.StatusInvalid,
			Message: "request body is not valid JSON: " + err.Error(),
		})
		return
	}
	req := game.Request{ID: r.Header.Get("X-Request-ID"), Op: game.Op(r.PathValue("op")), Payload: payload}
	resp := s.eval.Handle(r.Context(), caller, req)
	writeJSON(w, httpStatus(resp.Status), resp)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request, _ models.Caller) {
	name := r.PathValue("name")
	rules, err := s.eval.ResolveRules(r.Context(), game.RulesRef{Preset: name})
	switch {
	case errors.Is(err, models.ErrPresetNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, game.ErrUnavailable):
		s.log.WithError(err).WithField("preset", name).Error("preset lookup failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.log.WithError(err).WithField("preset", name).Warn("preset rules invalid")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.Preset{Name: name, Rules: models.HouseRulesFromEngine(rules)})
}

// httpStatus maps a response status onto an HTTP code. Ambiguity and "no
// legal option" are answers, not failures.
func httpStatus(s game.Status) int {
	switch s {
	case game.StatusOK, game.StatusAmbiguous, game.StatusNoLegalOption:
		return http.StatusOK
	case game.StatusForbidden:
		return http.StatusForbidden
	case game.StatusUnknownOp:
		return http.StatusNotFound
	case game.StatusUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// Websocket
// ---------------------------------------------------------------------------

// handleWebsocket serves one long-lived connection. Each text message is a
// game.Request and gets exactly one game.Response, in order.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	caller, err := s.auth.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(maxMessageBytes)

	log := s.log.WithFields(logrus.Fields{"conn_id": uuid.NewString(), "player": caller.Player, "role": caller.Role})
	log.Info("rules socket opened")

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Info("rules socket closed")
			default:
				log.WithError(err).Info("rules socket read ended")
			}
			return
		}

		var resp game.Response
		var req game.Request
		switch {
		case typ != websocket.MessageText:
			resp = game.Response{Status: game.StatusInvalid, Message: "expected a text message"}
		case json.Unmarshal(data, &req) != nil:
			resp = game.Response{Status: game.StatusInvalid, Message: "message is not a valid request"}
		default:
			resp = s.eval.Handle(ctx, caller, req)
		}

		wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = wsjson.Write(wctx, c, resp)
		cancel()
		if err != nil {
			log.WithError(err).Warn("rules socket write failed")
			return
		}
	}
}
