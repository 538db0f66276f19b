package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// requestContext tags each request with an id, bounds its context with
// timeout and writes one access log line once the response status is known.
func requestContext(logger logging.Logger, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(common.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(common.RequestIDHeader, id)

		ctx := c.UserContext()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.SetUserContext(ctx)

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.Info(ctx, "request served",
			"request_id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return nil
	}
}
