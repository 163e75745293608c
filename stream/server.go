package stream

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/plus3/orrery/solar"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// TimeScale is the body of GET and PUT /timescale.
type TimeScale struct {
	TimeScale float64 `json:"timeScale"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to a Hub and the session settings.
type Server struct {
	hub      *Hub
	settings *solar.Settings
	logger   *zap.Logger
	router   *mux.Router
}

// NewServer builds the routes. metrics, if not nil, is served at /metrics.
func NewServer(hub *Hub, settings *solar.Settings, metrics http.Handler, logger *zap.Logger) *Server {
	s := &Server{
		hub:      hub,
		settings: settings,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.Handle("/ws", hub).Methods(http.MethodGet)
	s.router.HandleFunc("/timescale", s.handleGetTimeScale).Methods(http.MethodGet)
	s.router.HandleFunc("/timescale", s.handlePutTimeScale).Methods(http.MethodPut)
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	return s
}

// Handler returns the router wrapped with CORS, panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPut}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.logger)))(h)
	h = handlers.LoggingHandler(zap.NewStdLog(s.logger).Writer(), h)
	return h
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
// and disconnects websocket clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.Stringer("addr", ln.Addr()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.hub.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no snapshot yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetTimeScale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TimeScale{TimeScale: s.settings.TimeScale()})
}

func (s *Server) handlePutTimeScale(w http.ResponseWriter, r *http.Request) {
	var body TimeScale
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errors.Wrap(err, "decode body").Error()})
		return
	}

	old := s.settings.TimeScale()
	if err := s.settings.SetTimeScale(body.TimeScale); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.logger.Info("time scale changed over http",
		zap.Float64("old", old),
		zap.Float64("new", body.TimeScale),
		zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, TimeScale{TimeScale: s.settings.TimeScale()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
