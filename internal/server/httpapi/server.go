// Package httpapi exposes the account services over HTTP using fiber.
package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/dmitrijs2005/gamestarter/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Authenticator checks credentials. *services.AuthService satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password, sourceAddress, userAgent string) (*services.LoginResult, bool)
	Verify(ctx context.Context, email, password string) (*models.Identity, bool)
}

// Directory manages accounts. *services.DirectoryService satisfies it.
type Directory interface {
	Create(ctx context.Context, in models.NewUser) (*models.Identity, error)
	GetByID(ctx context.Context, id int64) (*models.Identity, bool)
	List(ctx context.Context) []models.Identity
	Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.Identity, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AuditTrail reads login records. *services.AuditService satisfies it.
type AuditTrail interface {
	ListAll(ctx context.Context) []models.LoginRecord
	ListByUser(ctx context.Context, userID int64) []models.LoginRecord
	GetByID(ctx context.Context, id int64) (*models.LoginRecord, bool)
}

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Address         string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	opts   Options
	app    *fiber.App
	logger logging.Logger
}

func NewHTTPServer(opts Options, l logging.Logger, auth Authenticator, dir Directory, audit AuditTrail, db Pinger) *HTTPServer {
	logger := l.With("module", "http_server")

	app := fiber.New(fiber.Config{
		AppName:               "gamestarter",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	app.Use(requestContext(logger, opts.RequestTimeout))

	register(app, logger, auth, dir, audit, db)

	return &HTTPServer{opts: opts, app: app, logger: logger}
}

// App returns the underlying fiber app.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(s.opts.ShutdownTimeout); err != nil {
			s.logger.Error(context.Background(), "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	return s.app.Listen(s.opts.Address)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = "*"
		return cfg
	}
	cfg.AllowOrigins = strings.Join(origins, ",")
	cfg.AllowCredentials = true
	return cfg
}
