package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
)

const (
	componentName   = "status-server"
	shutdownTimeout = 5 * time.Second
	maxStreams      = 64
)

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)

// Server serves run status over HTTP/1.1 and cleartext HTTP/2. It is a
// component: the registry binds it on Start and drains it on Stop.
type Server struct {
	http   *http.Server
	engine *gin.Engine
	log    *logger.Logger

	mu       sync.RWMutex
	listener net.Listener
}

// New builds an unbound server. Register routes before Start.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	engine := gin.New()
	return &Server{
		engine: engine,
		log:    log.WithComponent(componentName),
		http: &http.Server{
			Addr: cfg.Addr,
			Handler: h2c.NewHandler(engine, &http2.Server{
				MaxConcurrentStreams: maxStreams,
				IdleTimeout:          seconds(cfg.IdleTimeout),
			}),
			ReadTimeout:  seconds(cfg.ReadTimeout),
			WriteTimeout: seconds(cfg.WriteTimeout),
			IdleTimeout:  seconds(cfg.IdleTimeout),
		},
	}
}

func (s *Server) GinEngine() *gin.Engine { return s.engine }

func (s *Server) Name() string { return componentName }

// Start binds the address and serves in the background. A bind failure is
// returned so the run aborts before any download.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.SetupFailed("status server", fmt.Errorf("bind %s: %w", s.http.Addr, err))
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server stopped", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("status server listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests for at most five seconds.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	return nil
}

// Health is unhealthy while the server is not bound.
func (s *Server) Health(_ context.Context) component.Health {
	if !s.Listening() {
		return component.Unhealthy(componentName, "not listening")
	}
	return component.Healthy(componentName)
}

func (s *Server) Describe() component.Description {
	return component.Description{Name: "Status Server", Type: "server", Details: "http://" + s.Addr()}
}

// Addr is the bound address while serving, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.http.Addr
}

func (s *Server) Listening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}
