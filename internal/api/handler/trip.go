package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/api/response"
	"github.com/tripweaver/tripweaver/internal/currency"
	"github.com/tripweaver/tripweaver/internal/export"
	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/planstate"
	"github.com/tripweaver/tripweaver/internal/trip"
)

const msgNotSaved = "The trip could not be saved for later. It is still available in this session."

// Planner is the planning surface behind the trip endpoints.
// *planner.Service implements it.
type Planner interface {
	Generate(ctx context.Context, sessionID string, prefs trip.Preferences) (*planner.GenerateResult, error)
	Swap(ctx context.Context, sessionID string, req planner.SwapRequest) (*planner.SwapResult, error)
	Current(sessionID string) (planstate.State, error)
	SavedTrip(ctx context.Context, sessionID string) (*trip.Snapshot, error)
	Resume(ctx context.Context, sessionID string) (planstate.State, error)
	Dismiss(ctx context.Context, sessionID string) error
	Reset(ctx context.Context, sessionID string) planstate.Commit
}

// RateSource supplies price reference rates. *currency.Service implements it.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// TripHandler handles the session's itinerary.
type TripHandler struct {
	planner Planner
	rates   RateSource
	logger  zerolog.Logger
}

// NewTripHandler creates a new TripHandler. A nil rate source leaves prices
// as generated.
func NewTripHandler(p Planner, rates RateSource, logger zerolog.Logger) *TripHandler {
	return &TripHandler{planner: p, rates: rates, logger: logger}
}

// GetTrip handles GET /v1/trip - current plan and preferences.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	state, err := h.planner.Current(GetSessionID(r.Context()))
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tripResponse(state, nil))
}

// GenerateTrip handles POST /v1/trip - generate a plan from preferences.
func (h *TripHandler) GenerateTrip(w http.ResponseWriter, r *http.Request) {
	var prefs trip.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.planner.Generate(r.Context(), GetSessionID(r.Context()), prefs)
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}

	resp := tripResponse(result.State, &result.Commit)
	resp.Images = &models.ImageSummary{
		Requested: result.Images.Requested,
		Succeeded: result.Images.Succeeded,
		Failed:    result.Images.Failed,
	}
	resp.Anomalies = result.Anomalies
	response.JSON(w, r, http.StatusOK, resp)
}

// ResetTrip handles DELETE /v1/trip - clear the plan and its snapshot.
func (h *TripHandler) ResetTrip(w http.ResponseWriter, r *http.Request) {
	commit := h.planner.Reset(r.Context(), GetSessionID(r.Context()))
	if commit.PersistErr != nil {
		h.logger.Warn().
			Err(commit.PersistErr).
			Str("request_id", requestID(r)).
			Msg("trip reset but snapshot not deleted")
	}
	response.NoContent(w, r)
}

// SwapActivity handles POST /v1/trip/activities:swap - replace one activity.
func (h *TripHandler) SwapActivity(w http.ResponseWriter, r *http.Request) {
	var input models.SwapActivityRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req := planner.SwapRequest{ActivityID: strings.TrimSpace(input.ActivityID)}
	if req.ActivityID == "" {
		if input.DayIndex == nil || input.ActivityIndex == nil {
			response.BadRequest(w, r, "either activityId or dayIndex and activityIndex are required", []models.FieldError{
				{Field: "activityId", Message: "required if dayIndex/activityIndex not provided"},
				{Field: "dayIndex", Message: "required if activityId not provided"},
				{Field: "activityIndex", Message: "required if activityId not provided"},
			})
			return
		}
		req.DayIndex = *input.DayIndex
		req.ActivityIndex = *input.ActivityIndex
	}

	result, err := h.planner.Swap(r.Context(), GetSessionID(r.Context()), req)
	if err != nil {
		response.PlanError(w, r, trip.OpSwap, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SwapActivityResponse{
		Activity:  result.Activity,
		WithImage: result.WithImage,
		Trip:      tripResponse(result.State, &result.Commit),
	})
}

// GetSavedTrip handles GET /v1/trip/saved - peek at the persisted snapshot.
func (h *TripHandler) GetSavedTrip(w http.ResponseWriter, r *http.Request) {
	snap, err := h.planner.SavedTrip(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SavedTripResponse{
		Destination: snap.Preferences.Destination,
		StartDate:   snap.Preferences.StartDate,
		Duration:    snap.Preferences.Duration,
		Days:        len(snap.Plan.Itinerary),
		SavedAt:     models.Timestamp(snap.SavedAt),
		Preferences: snap.Preferences,
	})
}

// ResumeSavedTrip handles POST /v1/trip/saved:resume - load the snapshot.
func (h *TripHandler) ResumeSavedTrip(w http.ResponseWriter, r *http.Request) {
	state, err := h.planner.Resume(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tripResponse(state, &planstate.Commit{Version: state.Version}))
}

// DismissSavedTrip handles DELETE /v1/trip/saved - drop the snapshot.
func (h *TripHandler) DismissSavedTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Dismiss(r.Context(), GetSessionID(r.Context())); err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}
	response.NoContent(w, r)
}

// GetPrices handles GET /v1/trip/prices?currency= - costs in another currency.
func (h *TripHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	state, err := h.planner.Current(GetSessionID(r.Context()))
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return
	}

	base := state.Plan.LocalCurrencyCode
	target := base
	if raw := r.URL.Query().Get("currency"); raw != "" {
		code, err := currency.NormalizeCode(raw)
		if err != nil {
			response.BadRequest(w, r, "unknown currency", []models.FieldError{
				{Field: "currency", Message: "must be an ISO 4217 code", Code: "INVALID"},
			})
			return
		}
		target = code
	}
	convert := h.converter(r.Context(), target, base)

	resp := models.PricesResponse{
		Base:     base,
		Currency: target,
		Hotels: lo.Map(state.Plan.HotelSuggestions, func(hotel trip.HotelSuggestion, _ int) models.HotelPrice {
			return models.HotelPrice{Day: hotel.Day, Name: hotel.Name, Original: hotel.PriceRange, Converted: convert(hotel.PriceRange)}
		}),
	}
	for _, day := range state.Plan.Itinerary {
		for _, a := range day.Activities {
			resp.Activities = append(resp.Activities, models.ActivityPrice{
				ID:          a.ID,
				Day:         day.Day,
				Time:        a.Time,
				Description: a.Description,
				Original:    a.EstimatedCost,
				Converted:   convert(a.EstimatedCost),
			})
		}
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// ExportPDF handles GET /v1/trip/export.pdf.
func (h *TripHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	body, err := export.PDF(doc)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("failed to render itinerary PDF")
		response.InternalError(w, r, "unable to render the itinerary")
		return
	}
	response.Attachment(w, r, export.Filename(doc.Preferences.Destination, "pdf"), "application/pdf", body)
}

// ExportICS handles GET /v1/trip/export.ics.
func (h *TripHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	body, err := export.ICS(doc)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("failed to render itinerary calendar")
		response.InternalError(w, r, "unable to render the itinerary")
		return
	}
	response.Attachment(w, r, export.Filename(doc.Preferences.Destination, "ics"), "text/calendar; charset=utf-8", []byte(body))
}

// ExportEmail handles GET /v1/trip/export/email?to= - shareable text.
func (h *TripHandler) ExportEmail(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	response.JSON(w, r, http.StatusOK, models.EmailExportResponse{
		Subject:   export.Subject(doc),
		Body:      export.EmailBody(doc),
		MailtoURL: export.MailtoURL(doc, r.URL.Query().Get("to")),
	})
}

// document loads the session's plan for export. An optional currency query
// converts prices along the way.
func (h *TripHandler) document(w http.ResponseWriter, r *http.Request) (export.Document, bool) {
	state, err := h.planner.Current(GetSessionID(r.Context()))
	if err != nil {
		response.PlanError(w, r, trip.OpGenerate, err)
		return export.Document{}, false
	}

	doc := export.Document{Plan: state.Plan, Preferences: state.Preferences}
	if raw := r.URL.Query().Get("currency"); raw != "" {
		code, err := currency.NormalizeCode(raw)
		if err != nil {
			response.BadRequest(w, r, "unknown currency", []models.FieldError{
				{Field: "currency", Message: "must be an ISO 4217 code", Code: "INVALID"},
			})
			return export.Document{}, false
		}
		doc.Price = h.converter(r.Context(), code, state.Plan.LocalCurrencyCode)
	}
	return doc, true
}

// converter fetches rates once and returns a price rewriter. Failures and
// same-currency requests leave prices unchanged.
func (h *TripHandler) converter(ctx context.Context, target, base string) func(string) string {
	var rates map[string]float64
	if h.rates != nil && base != "" && !strings.EqualFold(target, base) {
		var err error
		rates, err = h.rates.Rates(ctx, base)
		if err != nil {
			h.logger.Warn().
				Err(err).
				Str("base", base).
				Str("target", target).
				Msg("showing prices unconverted")
		}
	}
	return func(price string) string {
		return currency.ConvertPrice(price, target, base, rates)
	}
}

func tripResponse(state planstate.State, commit *planstate.Commit) models.TripResponse {
	resp := models.TripResponse{
		Plan:        state.Plan,
		Preferences: state.Preferences,
		Version:     state.Version,
	}
	if commit != nil {
		resp.Version = commit.Version
		resp.Persisted = lo.ToPtr(commit.PersistErr == nil)
		if commit.PersistErr != nil {
			resp.PersistError = msgNotSaved
		}
	}
	return resp
}
