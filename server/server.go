package server

import (
	"net/http"
	"time"

	"github.com/lguibr/ballguard/bollywood"
	"github.com/lguibr/ballguard/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

// Server exposes the validator actor over HTTP: event queries, configuration
// reloads and a websocket event stream.
type Server struct {
	engine         *bollywood.Engine
	validatorPID   *bollywood.PID
	broadcasterPID *bollywood.PID
	logger         logrus.FieldLogger
	askTimeout     time.Duration
}

// New creates a Server. logger may be nil.
func New(engine *bollywood.Engine, validatorPID, broadcasterPID *bollywood.PID, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = utils.DiscardLogger()
	}
	return &Server{
		engine:         engine,
		validatorPID:   validatorPID,
		broadcasterPID: broadcasterPID,
		logger:         logger.WithField("component", "server"),
		askTimeout:     utils.AskTimeout,
	}
}

// SetAskTimeout changes how long handlers wait on an actor reply.
func (s *Server) SetAskTimeout(d time.Duration) {
	if d > 0 {
		s.askTimeout = d
	}
}

// Routes registers the server's handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/events", s.HandleGetEvents())
	mux.HandleFunc("/config", s.HandleConfig())
	mux.HandleFunc("/healthz", s.HandleHealth())
	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))
}

// Handler returns a mux serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	return mux
}
