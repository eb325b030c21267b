package sunlight

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/i474232898/sunlight-history/internal/common"
)

// CoordinateScale is the number of decimal places kept for latitude and longitude.
// It matches the precision of the persisted columns, so two coordinates equal at
// this scale address the same cache entry.
const CoordinateScale = 7

// Query identifies one historical lookup. It doubles as the exact-match cache key.
type Query struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
}

// NewQuery rounds coordinates to CoordinateScale and dates to UTC midnight.
func NewQuery(lat, lon decimal.Decimal, start, end time.Time) Query {
	q := Query{
		Latitude:  lat.Round(CoordinateScale),
		Longitude: lon.Round(CoordinateScale),
	}
	if !start.IsZero() {
		q.StartDate = common.TruncateDate(start)
	}
	if !end.IsZero() {
		q.EndDate = common.TruncateDate(end)
	}
	return q
}

// ParseQuery builds a Query from the four inbound string fields.
func ParseQuery(lat, lon, start, end string) (Query, error) {
	var violations []Violation

	latD, msg := parseCoordinate(lat, 90)
	if msg != "" {
		violations = append(violations, Violation{Field: "latitude", Message: msg})
	}
	lonD, msg := parseCoordinate(lon, 180)
	if msg != "" {
		violations = append(violations, Violation{Field: "longitude", Message: msg})
	}
	startD, err := common.ParseDate(start)
	if err != nil {
		violations = append(violations, Violation{Field: "start_date", Message: "is not a date"})
	}
	endD, err := common.ParseDate(end)
	if err != nil {
		violations = append(violations, Violation{Field: "end_date", Message: "is not a date"})
	}

	if len(violations) > 0 {
		return Query{}, &ValidationError{Violations: violations}
	}
	return NewQuery(latD, lonD, startD, endD), nil
}

// Exponent bounds for inbound coordinates. Rounding or comparing a decimal
// costs time proportional to its exponent, so values outside this window are
// rejected before either happens.
const (
	maxCoordinateExp = 3
	minCoordinateExp = -64
)

// parseCoordinate parses s and checks |value| <= limit on the unrounded value.
// It returns a violation message, or "" when the coordinate is usable.
func parseCoordinate(s string, limit int64) (decimal.Decimal, string) {
	d, err := common.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, "is not a number"
	}
	if d.Sign() == 0 {
		return decimal.Zero, ""
	}

	outOfRange := fmt.Sprintf("must be between -%d and %d", limit, limit)
	switch {
	case d.Exponent() > maxCoordinateExp:
		// A non-zero coefficient times 10^4 or more is always past 180.
		return decimal.Zero, outOfRange
	case d.Exponent() < minCoordinateExp:
		return decimal.Zero, "has too many decimal places"
	case d.Abs().GreaterThan(decimal.NewFromInt(limit)):
		return decimal.Zero, outOfRange
	}
	return d, ""
}

// Key returns a canonical string for indexing this query in caches and stores.
func (q Query) Key() string {
	return q.Latitude.StringFixed(CoordinateScale) + ":" +
		q.Longitude.StringFixed(CoordinateScale) + ":" +
		common.FormatDate(q.StartDate) + ":" +
		common.FormatDate(q.EndDate)
}

// Validate checks the coordinate and date invariants of the query alone.
func (q Query) Validate() error {
	return validateInvariants(q, nil, false)
}

// RawRecord is one entry of the provider's "results" array, as decoded JSON.
type RawRecord map[string]any

// DailyRecord is the canonical per-day entry stored in HistoricalInformation.Data.
type DailyRecord struct {
	Date        any     `json:"date"`
	SunriseTime *string `json:"sunrise_time"`
	SunsetTime  *string `json:"sunset_time"`
	GoldenHour  *string `json:"golden_hour"`
}

// HistoricalInformation is the persisted result of one resolved Query.
type HistoricalInformation struct {
	ID        string
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
	Data      []DailyRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query returns the lookup key this record was stored under.
func (h *HistoricalInformation) Query() Query {
	return Query{
		Latitude:  h.Latitude,
		Longitude: h.Longitude,
		StartDate: h.StartDate,
		EndDate:   h.EndDate,
	}
}

type historicalInformationJSON struct {
	ID        string          `json:"id"`
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Data      []DailyRecord   `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON renders dates as YYYY-MM-DD.
func (h HistoricalInformation) MarshalJSON() ([]byte, error) {
	return json.Marshal(historicalInformationJSON{
		ID:        h.ID,
		Latitude:  h.Latitude,
		Longitude: h.Longitude,
		StartDate: common.FormatDate(h.StartDate),
		EndDate:   common.FormatDate(h.EndDate),
		Data:      h.Data,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON. The Redis cache relies on it.
func (h *HistoricalInformation) UnmarshalJSON(b []byte) error {
	var raw historicalInformationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := common.ParseDate(raw.StartDate)
	if err != nil {
		return err
	}
	end, err := common.ParseDate(raw.EndDate)
	if err != nil {
		return err
	}
	*h = HistoricalInformation{
		ID:        raw.ID,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		StartDate: start,
		EndDate:   end,
		Data:      raw.Data,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}
