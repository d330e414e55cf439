// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

package validation

import (
	"strings"
	"testing"
	"time"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

func intPtr(v int) *int { return &v }

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"empty activity query", &ActivityQuery{}},
		{"full activity query", &ActivityQuery{
			Limit:          100,
			Kinds:          []string{"Run", "TrailRun", "EBikeRide"},
			After:          "2026-01-01",
			Before:         "2026-02-01T00:00:00Z",
			HasPhotos:      "true",
			HasDescription: "0",
			MinDistance:    5000,
		}},
		{"refresh default", &RefreshRequest{}},
		{"refresh full", &RefreshRequest{Full: "true"}},
		{"cleanup default", &CleanupRequest{}},
		{"cleanup zero", &CleanupRequest{Keep: intPtr(0)}},
		{"donations", &DonationsQuery{Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"limit too high", &ActivityQuery{Limit: 5000}, "Limit", "max"},
		{"negative limit", &ActivityQuery{Limit: -1}, "Limit", "min"},
		{"bad after", &ActivityQuery{After: "yesterday"}, "After", "datefilter"},
		{"bad kind", &ActivityQuery{Kinds: []string{"Run;DROP"}}, "Kinds[0]", "activitykind"},
		{"empty kind", &ActivityQuery{Kinds: []string{""}}, "Kinds[0]", "min"},
		{"bad has_photos", &ActivityQuery{HasPhotos: "maybe"}, "HasPhotos", "boolean"},
		{"negative distance", &ActivityQuery{MinDistance: -1}, "MinDistance", "gte"},
		{"inverted range", &ActivityQuery{After: "2026-02-01", Before: "2026-01-01"}, "Before", "gtfield"},
		{"empty range", &ActivityQuery{After: "2026-02-01", Before: "2026-02-01"}, "Before", "gtfield"},
		{"bad full", &RefreshRequest{Full: "yes please"}, "Full", "boolean"},
		{"negative keep", &CleanupRequest{Keep: intPtr(-1)}, "Keep", "min"},
		{"donations limit", &DonationsQuery{Limit: 501}, "Limit", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			found := false
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, err.Errors())
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&DonationsQuery{Limit: 501})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Limit must be at most 500" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("Details[field] = %v, want Limit", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&ActivityQuery{Limit: -5, After: "soon"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details[fields] = %v, want 2 entries", apiErr.Details["fields"])
	}
	if !strings.Contains(apiErr.Message, "Limit:") || !strings.Contains(apiErr.Message, "After:") {
		t.Errorf("Message = %q, want both fields named", apiErr.Message)
	}
}

func TestTranslateMessages(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{&ActivityQuery{Kinds: make([]string, 21)}, "Kinds must be at most 20 items"},
		{&ActivityQuery{After: "x"}, "After must be an RFC3339 timestamp or a YYYY-MM-DD date"},
		{&RefreshRequest{Full: "x"}, "Full must be true or false"},
	}
	for _, tt := range tests {
		err := ValidateStruct(tt.input)
		if err == nil {
			t.Fatalf("expected error for %+v", tt.input)
		}
		if got := err.Errors()[0].Error(); got != tt.want {
			t.Errorf("message = %q, want %q", got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), false},
		{"2026-03-04T10:30:00Z", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{"2026-03-04T10:30:00+02:00", time.Date(2026, 3, 4, 8, 30, 0, 0, time.UTC), false},
		{"04/03/2026", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
