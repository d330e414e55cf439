// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package justgiving

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// amount accepts JustGiving money values sent either as JSON numbers or as
// decimal strings ("250.00"). Empty strings and null decode to zero.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		if s == "" {
			*a = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", data, err)
	}
	*a = amount(f)
	return nil
}

// jgDate accepts the legacy "/Date(1556020800000+0000)/" form as well as
// RFC 3339.
type jgDate time.Time

var msDatePattern = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

func (d *jgDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = jgDate(time.Time{})
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	*d = jgDate(t)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if m := msDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: %w", s, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t.UTC(), nil
}

type apiPage struct {
	PageShortName      string `json:"pageShortName"`
	Title              string `json:"title"`
	Owner              string `json:"owner"`
	CurrencyCode       string `json:"currencyCode"`
	FundraisingTarget  amount `json:"fundraisingTarget"`
	TotalRaisedOnline  amount `json:"totalRaisedOnline"`
	TotalRaisedOffline amount `json:"totalRaisedOffline"`
	GrandTotal         amount `json:"grandTotalRaisedExcludingGiftAid"`
	PercentOfTarget    amount `json:"totalRaisedPercentageOfFundraisingTarget"`
}

type apiDonation struct {
	ID                  int64  `json:"id"`
	DonorDisplayName    string `json:"donorDisplayName"`
	Amount              amount `json:"amount"`
	CurrencyCode        string `json:"currencyCode"`
	Message             string `json:"message"`
	DonationDate        jgDate `json:"donationDate"`
	EstimatedTaxReclaim amount `json:"estimatedTaxReclaim"`
}

type apiDonations struct {
	Donations  []apiDonation `json:"donations"`
	Pagination struct {
		PageNumber   int `json:"pageNumber"`
		TotalPages   int `json:"totalPages"`
		TotalResults int `json:"totalResults"`
	} `json:"pagination"`
}
