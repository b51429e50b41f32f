package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/game"
	"github.com/lguibr/ballguard/utils"
	"github.com/lguibr/ballguard/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// maxConfigBytes bounds the body of a configuration reload.
const maxConfigBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// HandleGetEvents answers GET /events?kind=A,B&since=T&limit=N with the
// matching logged events, oldest first.
func (s *Server) HandleGetEvents() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverHTTP(w, "HandleGetEvents")

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}
		req, err := parseEventsQuery(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}

		reply, err := s.engine.Ask(s.validatorPID, req, s.askTimeout)
		if err != nil {
			s.writeError(w, askStatus(err), err)
			return
		}
		resp, ok := reply.(game.QueryEventsResponse)
		if !ok {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("unexpected reply %T", reply))
			return
		}
		if resp.Events == nil {
			resp.Events = []validator.ValidationEvent{}
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

// HandleConfig swaps the validator configuration. The JSON body is decoded over
// the defaults, so omitted fields take their default values.
func (s *Server) HandleConfig() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverHTTP(w, "HandleConfig")

		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			w.Header().Set("Allow", "POST, PUT")
			s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}

		cfg := utils.DefaultConfig()
		dec := json.NewDecoder(io.LimitReader(r.Body, maxConfigBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode config: %w", err))
			return
		}

		reply, err := s.engine.Ask(s.validatorPID, game.ReloadConfigCommand{Config: cfg}, s.askTimeout)
		if err != nil {
			status := askStatus(err)
			if errors.Is(err, utils.ErrInvalidConfiguration) {
				status = http.StatusBadRequest
			}
			s.writeError(w, status, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reply)
	}
}

// HandleHealth reports whether the validator actor answers.
func (s *Server) HandleHealth() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		reply, err := s.engine.Ask(s.validatorPID, game.QueryEventsRequest{Limit: 1}, s.askTimeout)
		if err != nil {
			s.writeError(w, askStatus(err), err)
			return
		}
		resp, _ := reply.(game.QueryEventsResponse)
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"ticks":  resp.Ticks,
			"now":    resp.Now,
		})
	}
}

// HandleSubscribe registers the websocket connection with the broadcaster and
// keeps it open until the client goes away. ?kind=A,B narrows the stream.
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		addr := ws.Request().RemoteAddr
		log := s.logger.WithField("remote", addr)

		defer func() {
			if r := recover(); r != nil {
				log.WithField("stack", string(debug.Stack())).Errorf("panic in subscribe handler: %v", r)
			}
			_ = ws.Close()
		}()

		kinds, err := parseKinds(ws.Request().URL.Query().Get("kind"))
		if err != nil {
			log.WithError(err).Debug("rejecting subscription")
			_ = websocket.JSON.Send(ws, errorResponse{Error: err.Error()})
			return
		}

		reply, err := s.engine.Ask(s.broadcasterPID, game.AddSubscriber{Sink: game.WebsocketSink{Conn: ws}, Kinds: kinds}, s.askTimeout)
		if err != nil {
			log.WithError(err).Warn("could not register subscriber")
			return
		}
		added, ok := reply.(game.SubscriberAdded)
		if !ok || added.ID == "" {
			log.Warnf("unexpected subscribe reply %T", reply)
			return
		}
		log = log.WithField("subscriber", added.ID)
		log.Info("stream subscriber connected")

		s.readLoop(ws, log)

		s.engine.Send(s.broadcasterPID, game.RemoveSubscriber{ID: added.ID}, nil)
		log.Info("stream subscriber disconnected")
	}
}

// readLoop discards client frames until the connection fails or closes.
func (s *Server) readLoop(ws *websocket.Conn, log logrus.FieldLogger) {
	for {
		var frame string
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Debug("read loop ended")
			}
			return
		}
	}
}

func parseEventsQuery(r *http.Request) (game.QueryEventsRequest, error) {
	q := r.URL.Query()
	var req game.QueryEventsRequest

	kinds, err := parseKinds(q.Get("kind"))
	if err != nil {
		return req, err
	}
	req.Kinds = kinds

	if v := q.Get("since"); v != "" {
		since, err := strconv.ParseFloat(v, 64)
		if err != nil || !utils.IsFiniteFloat(since) {
			return req, fmt.Errorf("invalid since %q", v)
		}
		req.Since = since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return req, fmt.Errorf("invalid limit %q", v)
		}
		req.Limit = limit
	}
	return req, nil
}

// parseKinds reads a comma-separated list of kind names. Empty means all kinds.
func parseKinds(raw string) ([]validator.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var kinds []validator.Kind
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, err := validator.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, bollywood.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, bollywood.ErrActorNotFound), errors.Is(err, bollywood.ErrEngineStopping):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Debug("writing response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("status", status).Warn("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) recoverHTTP(w http.ResponseWriter, handler string) {
	if rec := recover(); rec != nil {
		s.logger.WithFields(logrus.Fields{
			"handler": handler,
			"stack":   string(debug.Stack()),
		}).Errorf("panic recovered: %v", rec)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
