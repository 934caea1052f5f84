package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/server/http/controllers"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// Server is the HTTP front of the push service.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the router over svc. vapidPublicKey is served to browsers.
func New(rt *runtime.Runtime, svc *notifier.Service, vapidPublicKey string, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("http"))
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, svc, vapidPublicKey).RegisterAllRoutes(mux)

	s := &Server{rt: rt, logger: logger}
	handler := withRequestID(withAccessLog(logger, cors(rt.Config().AllowedOrigins, mux)))
	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logpkg.ToStdLogger(logger, logpkg.ErrorLevel),
	}
	return s
}

// Handler exposes the root handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
