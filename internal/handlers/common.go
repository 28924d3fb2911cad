package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/pkg/response"
)

// pathID parses a numeric route parameter. Anything unparsable is reported as
// a missing resource so malformed ids and unknown ids look the same.
func pathID(c *gin.Context, name, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, response.NewNotFound(notFound))
		return 0, false
	}
	return uint(id), true
}
