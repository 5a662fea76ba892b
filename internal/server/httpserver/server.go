// Package httpserver exposes the user and scoreboard operations over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// UserService is the business layer the handlers call.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(token string) (string, error)
	IncrementScore(ctx context.Context, userID string) (*models.User, error)
	TopScores(ctx context.Context) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Pinger reports store health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP server. Zero values fall back to the defaults below.
type Options struct {
	CORSAllowedOrigin string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

const (
	defaultShutdownTimeout = 5 * time.Second
	healthCheckTimeout     = 2 * time.Second
	maxBodyBytes           = 1 << 20
)

type HTTPServer struct {
	address  string
	users    UserService
	store    Pinger
	logger   logging.Logger
	opts     Options
	metrics  *metrics
	validate *validator.Validate
}

func NewHTTPServer(a string, l logging.Logger, us UserService, store Pinger, opts Options) (*HTTPServer, error) {
	if opts.CORSAllowedOrigin == "" {
		opts.CORSAllowedOrigin = "*"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	return &HTTPServer{
		address:  a,
		logger:   l.With("module", "http_server"),
		users:    us,
		store:    store,
		opts:     opts,
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests for up to ShutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
