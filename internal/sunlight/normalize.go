package sunlight

import (
	"encoding/json"
	"fmt"
)

// Normalize maps one provider result onto a DailyRecord. Missing or null
// fields become nil; keys other than date, sunrise, sunset and golden_hour
// are dropped.
func Normalize(raw RawRecord) DailyRecord {
	return DailyRecord{
		Date:        raw["date"],
		SunriseTime: timeField(raw, "sunrise"),
		SunsetTime:  timeField(raw, "sunset"),
		GoldenHour:  timeField(raw, "golden_hour"),
	}
}

// NormalizeAll normalizes every result in order. The returned slice is never
// nil, so an empty upstream answer is distinguishable from an absent one.
func NormalizeAll(raws []RawRecord) []DailyRecord {
	out := make([]DailyRecord, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func timeField(raw RawRecord, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	default:
		// Keep the JSON text for unexpected scalar or nested values.
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(b)
		}
	}
	return &s
}
