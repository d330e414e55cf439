// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package justgiving

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/trailfund/internal/config"
)

const pageBody = `{
	"pageShortName": "hike-for-hope",
	"title": "Hike for Hope",
	"owner": "Sam",
	"currencyCode": "GBP",
	"fundraisingTarget": "1000.00",
	"totalRaisedOnline": "250.50",
	"totalRaisedOffline": "49.50",
	"grandTotalRaisedExcludingGiftAid": "300.00",
	"totalRaisedPercentageOfFundraisingTarget": "30"
}`

func donationsBody(pageNum, totalPages, total int, ids ...int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf(`{"id":%d,"donorDisplayName":"Donor %d","amount":"10.00",`+
			`"currencyCode":"GBP","message":"Go!","donationDate":"/Date(1556020800000+0000)/",`+
			`"estimatedTaxReclaim":2.5}`, id, id))
	}
	return fmt.Sprintf(`{"donations":[%s],"pagination":{"pageNumber":%d,"totalPages":%d,"totalResults":%d}}`,
		strings.Join(parts, ","), pageNum, totalPages, total)
}

type fakeJustGiving struct {
	pageCalls      atomic.Int32
	donationsCalls atomic.Int32
	failPage       bool
}

func (f *fakeJustGiving) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/app-123/v1/fundraising/pages/hike-for-hope"
	switch r.URL.Path {
	case prefix:
		f.pageCalls.Add(1)
		if f.failPage {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(pageBody))
	case prefix + "/donations":
		f.donationsCalls.Add(1)
		q := r.URL.Query()
		switch {
		case q.Get("pageSize") == "1":
			_, _ = w.Write([]byte(donationsBody(1, 3, 3, 1)))
		case q.Get("pageNum") == "1":
			_, _ = w.Write([]byte(donationsBody(1, 2, 3, 1, 2)))
		default:
			_, _ = w.Write([]byte(donationsBody(2, 2, 3, 3)))
		}
	default:
		http.NotFound(w, r)
	}
}

func newTestService(t *testing.T, fake *fakeJustGiving, enabled bool) *Service {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := &config.JustGivingConfig{
		Enabled:           enabled,
		BaseURL:           server.URL,
		AppID:             "app-123",
		PageShortName:     "hike-for-hope",
		DonationsPageSize: 2,
		RequestTimeout:    5 * time.Second,
		CacheTTL:          time.Minute,
	}
	svc := NewService(cfg)
	t.Cleanup(svc.Close)
	return svc
}

func TestSummary(t *testing.T) {
	fake := &fakeJustGiving{}
	svc := newTestService(t, fake, true)

	p, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hike-for-hope", p.ShortName)
	assert.Equal(t, "Hike for Hope", p.Title)
	assert.Equal(t, "GBP", p.Currency)
	assert.InDelta(t, 1000.0, p.TargetAmount, 0.001)
	assert.InDelta(t, 300.0, p.TotalRaised, 0.001)
	assert.InDelta(t, 49.5, p.TotalRaisedOffline, 0.001)
	assert.InDelta(t, 30.0, p.PercentOfTarget, 0.001)
	assert.Equal(t, 3, p.DonationCount)
	assert.Equal(t, "https://www.justgiving.com/fundraising/hike-for-hope", p.PageURL)

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.pageCalls.Load(), "second call served from cache")
}

func TestSummary_NotFound(t *testing.T) {
	svc := newTestService(t, &fakeJustGiving{failPage: true}, true)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPageNotFound))
}

func TestDonations_Paginates(t *testing.T) {
	fake := &fakeJustGiving{}
	svc := newTestService(t, fake, true)

	got, err := svc.Donations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[2].ID)
	assert.Equal(t, "Donor 1", got[0].DonorDisplayName)
	assert.InDelta(t, 10.0, got[0].Amount, 0.001)
	assert.InDelta(t, 2.5, got[0].EstimatedTaxReclaim, 0.001)
	assert.Equal(t, time.Date(2019, 4, 23, 12, 0, 0, 0, time.UTC), got[0].DonatedAt)
	assert.Equal(t, int32(2), fake.donationsCalls.Load())

	_, err = svc.Donations(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.donationsCalls.Load(), "second call served from cache")
}

func TestDonations_Limit(t *testing.T) {
	fake := &fakeJustGiving{}
	svc := newTestService(t, fake, true)

	got, err := svc.Donations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(1), fake.donationsCalls.Load())
}

func TestDisabled(t *testing.T) {
	fake := &fakeJustGiving{}
	svc := newTestService(t, fake, false)

	_, err := svc.Summary(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = svc.Donations(context.Background(), 5)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, fake.pageCalls.Load())
}

func TestAmountAndDateDecoding(t *testing.T) {
	var d apiDonation
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.34","donationDate":"2026-05-01T10:00:00Z","estimatedTaxReclaim":null}`), &d))
	assert.InDelta(t, 12.34, float64(d.Amount), 0.0001)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), time.Time(d.DonationDate))
	assert.Zero(t, d.EstimatedTaxReclaim)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":7}`), &d))
	assert.InDelta(t, 7.0, float64(d.Amount), 0.0001)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"lots"}`), &d))
	_, err := parseDate("/Date(notanumber)/")
	assert.Error(t, err)
}
