// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package models

import "time"

// FundraisingPage is the summary of a JustGiving fundraising page.
type FundraisingPage struct {
	ShortName          string    `json:"short_name"`
	Title              string    `json:"title"`
	Owner              string    `json:"owner,omitempty"`
	Currency           string    `json:"currency"`
	TargetAmount       float64   `json:"target_amount"`
	TotalRaised        float64   `json:"total_raised"`
	TotalRaisedOffline float64   `json:"total_raised_offline"`
	DonationCount      int       `json:"donation_count"`
	PercentOfTarget    float64   `json:"percent_of_target"`
	PageURL            string    `json:"page_url,omitempty"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// Donation is a single donation to the page.
type Donation struct {
	ID                  int64     `json:"id"`
	DonorDisplayName    string    `json:"donor_display_name"`
	Amount              float64   `json:"amount"`
	Currency            string    `json:"currency"`
	Message             string    `json:"message,omitempty"`
	DonatedAt           time.Time `json:"donated_at"`
	EstimatedTaxReclaim float64   `json:"estimated_tax_reclaim,omitempty"`
}
