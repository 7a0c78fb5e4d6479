package admin

import (
	"net/http"

	"github.com/dukerupert/skadi/internal/handler"
	"github.com/dukerupert/skadi/internal/service"
)

// TeamHandler serves the back-office account endpoints.
type TeamHandler struct {
	team service.TeamService
}

// NewTeamHandler creates the admin team handler.
func NewTeamHandler(team service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

// createMemberRequest is the POST payload for a new team member.
type createMemberRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=admin staff"`
	Password  string `json:"password" validate:"required,min=8"`
}

// Create handles POST /admin/api/team.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := handler.BindJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	user, err := h.team.CreateMember(r.Context(), service.CreateMemberParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Password:  req.Password,
		Actor:     actorFrom(r),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, user)
}

// List handles GET /admin/api/team.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.team.ListMembers(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{"members": users})
}

// Deactivate handles DELETE /admin/api/team/{id}. Accounts are disabled,
// not removed, so the activity log keeps pointing at a real record.
func (h *TeamHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.team.DeactivateMember(r.Context(), r.PathValue("id"), actorFrom(r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.NoContent(w)
}
