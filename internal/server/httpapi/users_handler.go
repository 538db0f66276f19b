package httpapi

import (
	"strconv"

	"github.com/dmitrijs2005/gamestarter/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

type usersHandler struct {
	dir Directory
}

// pathID parses the :id route parameter.
func pathID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *usersHandler) Create(c *fiber.Ctx) error {
	var in models.NewUser
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	identity, err := h.dir.Create(c.UserContext(), in)
	if err != nil {
		status, msg := statusFor(err)
		return writeError(c, status, msg)
	}

	return writeJSON(c, fiber.StatusCreated, identity)
}

func (h *usersHandler) List(c *fiber.Ctx) error {
	return writeJSON(c, fiber.StatusOK, h.dir.List(c.UserContext()))
}

func (h *usersHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	identity, ok := h.dir.GetByID(c.UserContext(), id)
	if !ok {
		return writeError(c, fiber.StatusNotFound, "user not found")
	}

	return writeJSON(c, fiber.StatusOK, identity)
}

func (h *usersHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var upd models.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	identity, err := h.dir.Update(c.UserContext(), id, upd)
	if err != nil {
		status, msg := statusFor(err)
		return writeError(c, status, msg)
	}

	return writeJSON(c, fiber.StatusOK, identity)
}

func (h *usersHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	deleted, err := h.dir.Delete(c.UserContext(), id)
	if err != nil {
		status, msg := statusFor(err)
		return writeError(c, status, msg)
	}
	if !deleted {
		return writeError(c, fiber.StatusNotFound, "user not found")
	}

	return writeJSON(c, fiber.StatusOK, fiber.Map{"message": "user deleted"})
}
