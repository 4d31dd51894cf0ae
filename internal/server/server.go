// Package server exposes the synchronization trigger over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/deixis/pullserver/internal/pull"
	"github.com/deixis/pullserver/internal/report"
)

// RunIDHeader carries the report ID of the run that produced a response.
const RunIDHeader = "X-Pull-Run-Id"

// BusyMessage is the body returned while another synchronization is running
// and the syncer refuses concurrent calls.
const BusyMessage = "Synchronization already in progress"

// Syncer runs one synchronization.
type Syncer interface {
	Sync(ctx context.Context) (*report.Report, error)
}

// Server maps synchronization outcomes to HTTP responses.
type Server struct {
	syncer     Syncer
	noOpStatus int
	log        *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithNoOpStatus sets the status returned when nothing changed. Only
// http.StatusNoContent and http.StatusAlreadyReported are meaningful.
func WithNoOpStatus(code int) Option {
	return func(s *Server) {
		s.noOpStatus = code
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New creates a Server around syncer.
func New(syncer Syncer, opts ...Option) *Server {
	s := &Server{
		syncer:     syncer,
		noOpStatus: http.StatusAlreadyReported,
		log:        log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the HTTP handler. Only GET / is routed; other paths get
// 404 and other methods 405. HEAD / is refused too, so monitors probing the
// endpoint never trigger a synchronization.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleSync)
	return mux
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rep, err := s.syncer.Sync(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, pull.ErrBusy):
			s.log.Printf("%s %s: busy", r.Method, r.URL.Path)
			writeText(w, http.StatusServiceUnavailable, BusyMessage)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.log.Printf("%s %s: gave up waiting: %v", r.Method, r.URL.Path, err)
			writeText(w, http.StatusServiceUnavailable, BusyMessage)
		default:
			s.log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
			writeText(w, http.StatusInternalServerError, pull.FailedPrefix+err.Error())
		}
		return
	}

	status := s.statusFor(rep.Outcome)
	s.log.Printf("%s %s: run %s %s (exit %d, %s) -> %d",
		r.Method, r.URL.Path, rep.ID, rep.Outcome, rep.ExitCode, rep.Duration.Round(time.Millisecond), status)

	w.Header().Set(RunIDHeader, rep.ID)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeText(w, status, rep.Message)
}

func (s *Server) statusFor(kind report.Kind) int {
	switch kind {
	case report.Applied:
		return http.StatusOK
	case report.NoOp:
		return s.noOpStatus
	default:
		return http.StatusInternalServerError
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// ListenAndServe serves handler on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return Serve(ctx, ln, handler, logger)
}

// Serve serves handler on ln until ctx is done. In-flight requests get a
// short grace period to finish.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *log.Logger) error {
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
		}
	}()

	if logger != nil {
		logger.Printf("listening on %s", ln.Addr())
	}
	if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	<-shutdownDone
	return nil
}
