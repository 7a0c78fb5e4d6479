package admin

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// ActivityHandler serves the back-office audit log.
type ActivityHandler struct {
	activity service.ActivityRecorder
}

// NewActivityHandler creates the admin activity handler.
func NewActivityHandler(activity service.ActivityRecorder) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List handles GET /admin/api/activity with optional limit and offset
// query parameters. Entries come back newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.activity.List(r.Context(),
		queryInt32(r, "limit", 50),
		queryInt32(r, "offset", 0),
	)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{"activity": entries})
}
