package handler

import (
	"net/http"
	"strings"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/api/response"
	"github.com/tripweaver/tripweaver/internal/planner"
)

// DestinationHandler checks destinations before planning.
type DestinationHandler struct {
	checker planner.DestinationChecker
}

// NewDestinationHandler creates a new DestinationHandler.
func NewDestinationHandler(checker planner.DestinationChecker) *DestinationHandler {
	return &DestinationHandler{checker: checker}
}

// ValidateDestination handles POST /v1/destinations:validate.
// The check itself never fails; a flaky model accepts the input as typed.
func (h *DestinationHandler) ValidateDestination(w http.ResponseWriter, r *http.Request) {
	var input models.ValidateDestinationRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		response.BadRequest(w, r, "destination is required", []models.FieldError{
			{Field: "destination", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	result := h.checker.Validate(r.Context(), destination)
	resp := models.ValidateDestinationResponse{IsValid: result.IsValid}
	if result.IsValid && !strings.EqualFold(result.CorrectedName, destination) {
		resp.CorrectedName = result.CorrectedName
	}
	response.JSON(w, r, http.StatusOK, resp)
}
