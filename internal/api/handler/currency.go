package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/api/models"
	"github.com/tripweaver/tripweaver/internal/api/response"
	"github.com/tripweaver/tripweaver/internal/currency"
)

// CurrencyHandler exposes the price reference.
type CurrencyHandler struct {
	rates  RateSource
	logger zerolog.Logger
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(rates RateSource, logger zerolog.Logger) *CurrencyHandler {
	return &CurrencyHandler{rates: rates, logger: logger}
}

// GetRates handles GET /v1/currencies/{base}/rates.
func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	base, err := currency.NormalizeCode(chi.URLParam(r, "base"))
	if err != nil {
		response.BadRequest(w, r, "unknown currency", []models.FieldError{
			{Field: "base", Message: "must be an ISO 4217 code", Code: "INVALID"},
		})
		return
	}

	rates, err := h.rates.Rates(r.Context(), base)
	if err != nil {
		h.logger.Warn().Err(err).Str("base", base).Msg("price reference unavailable")
		response.ServiceUnavailable(w, r, "currency rates are temporarily unavailable")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.RatesResponse{
		Base:  base,
		Rates: rates,
		Time:  models.Timestamp(time.Now()),
	})
}
