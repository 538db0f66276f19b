package httpapi

import "github.com/gofiber/fiber/v2"

type loginsHandler struct {
	audit AuditTrail
}

func (h *loginsHandler) List(c *fiber.Ctx) error {
	return writeJSON(c, fiber.StatusOK, h.audit.ListAll(c.UserContext()))
}

func (h *loginsHandler) ListByUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}
	return writeJSON(c, fiber.StatusOK, h.audit.ListByUser(c.UserContext(), id))
}

func (h *loginsHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "invalid login id")
	}

	rec, ok := h.audit.GetByID(c.UserContext(), id)
	if !ok {
		return writeError(c, fiber.StatusNotFound, "login record not found")
	}

	return writeJSON(c, fiber.StatusOK, rec)
}
