// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// query parameters with fallbacks to the current day and strict JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"orcamento/internal/core"
)

const (
	// maxBodyBytes caps every JSON request body.
	maxBodyBytes = 1 << 20
	// maxHorizon is the furthest projection the API computes.
	maxHorizon = 60
	// maxRangeMonths bounds the calendar months a date range may touch.
	maxRangeMonths = 120
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using today
// as the default for each missing value. Non-numeric values and months
// outside 1..12 are errors.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{
		Year:  today.Year(),
		Month: today.Month(),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return MonthParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}

	return params, nil
}

// ParseDateParam reads a YYYY-MM-DD query parameter, returning def when the
// parameter is absent.
func ParseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// DateRange is an inclusive span of days.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// ParseDateRange reads the start and end query parameters, defaulting to def.
// The end must not precede the start and the range may touch at most
// maxRangeMonths calendar months.
func ParseDateRange(query url.Values, def DateRange) (DateRange, error) {
	start, err := ParseDateParam(query, "start", def.Start)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDateParam(query, "end", def.End)
	if err != nil {
		return DateRange{}, err
	}
	if end.Before(start.Time) {
		return DateRange{}, errors.New("end must not be before start")
	}
	months := (end.Year()-start.Year())*12 + end.Month() - start.Month() + 1
	if months > maxRangeMonths {
		return DateRange{}, fmt.Errorf("range spans %d months, at most %d allowed", months, maxRangeMonths)
	}
	return DateRange{Start: start, End: end}, nil
}

// ParseHorizon reads the horizon query parameter, bounded to 0..maxHorizon.
func ParseHorizon(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("horizon"))
	if v == "" {
		return def, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > maxHorizon {
		return 0, fmt.Errorf("horizon must be between 0 and %d", maxHorizon)
	}
	return h, nil
}

// ParseMember reads the optional member filter.
func ParseMember(query url.Values) core.MemberID {
	return core.MemberID(sanitizeInput(query.Get("member")))
}

// decodeJSON reads exactly one JSON document into dst. Unknown fields,
// trailing data and bodies over maxBodyBytes are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("malformed request body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}
