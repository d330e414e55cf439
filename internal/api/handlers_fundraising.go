// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package api

import (
	"net/http"

	"github.com/tomtom215/trailfund/internal/justgiving"
	"github.com/tomtom215/trailfund/internal/validation"
)

// Fundraising handles GET /api/v1/fundraising
//
// @Summary Fundraising page summary
// @Tags Fundraising
// @Produce json
// @Success 200 {object} APIResponse{data=models.FundraisingPage}
// @Failure 404 {object} APIResponse "Fundraising not configured"
// @Failure 502 {object} APIResponse
// @Router /fundraising [get]
func (h *Handler) Fundraising(w http.ResponseWriter, r *http.Request) {
	if h.fundraising == nil {
		writeDomainError(w, r, justgiving.ErrDisabled)
		return
	}

	page, err := h.fundraising.Summary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, page)
}

// Donations handles GET /api/v1/fundraising/donations
//
// @Summary Recent donations
// @Tags Fundraising
// @Produce json
// @Param limit query int false "Maximum donations (max 500)"
// @Success 200 {object} APIResponse{data=[]models.Donation}
// @Router /fundraising/donations [get]
func (h *Handler) Donations(w http.ResponseWriter, r *http.Request) {
	if h.fundraising == nil {
		writeDomainError(w, r, justgiving.ErrDisabled)
		return
	}

	limit, _, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return
	}
	q := validation.DonationsQuery{Limit: limit}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	donations, err := h.fundraising.Donations(r.Context(), q.Limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	WriteSuccess(w, r, donations)
}
