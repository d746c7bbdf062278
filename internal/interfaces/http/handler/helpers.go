package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// uuidParam parses a UUID path parameter. On failure it writes a 400 response
// and returns false; callers must return immediately.
func uuidParam(h *BaseHandler, c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
