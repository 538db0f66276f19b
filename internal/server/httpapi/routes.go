package httpapi

import (
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/gofiber/fiber/v2"
)

func register(app *fiber.App, logger logging.Logger, auth Authenticator, dir Directory, audit AuditTrail, db Pinger) {
	ah := &authHandler{auth: auth, logger: logger}
	uh := &usersHandler{dir: dir}
	lh := &loginsHandler{audit: audit}
	hh := &healthHandler{db: db, logger: logger}

	app.Get("/", hh.Root)
	app.Get("/health", hh.Health)
	app.Get("/ready", hh.Ready)

	a := app.Group("/auth")
	a.Post("/login", ah.Login)
	a.Post("/verify", ah.Verify)

	u := app.Group("/users")
	u.Post("/", uh.Create)
	u.Get("/", uh.List)
	u.Get("/:id", uh.Get)
	u.Put("/:id", uh.Update)
	u.Delete("/:id", uh.Delete)

	l := app.Group("/logins")
	l.Get("/", lh.List)
	l.Get("/user/:id", lh.ListByUser)
	l.Get("/:id", lh.Get)
}
