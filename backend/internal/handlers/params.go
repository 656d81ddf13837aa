package handlers

import (
	"fmt"
	"net/http"
	"time"

	"patas-conectadas/backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// pathID parses the named path parameter. On failure it has already written
// a 400 and the handler must return.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, kindValidation, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

// queryID parses an optional integer query parameter.
func queryID(c *gin.Context, name string) (*uint, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	id, err := utils.ParseID(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, kindValidation, fmt.Sprintf("%s must be a positive integer", name))
		return nil, false
	}
	return &id, true
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts an RFC 3339 timestamp, a timestamp without zone (UTC),
// or a bare date.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an ISO 8601 date or date-time", field)
}
