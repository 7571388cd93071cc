// Package params validates and normalizes raw query parameters into typed
// request structs.
package params

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/pkg/errkind"
)

// Query parameter names.
const (
	ParamPrettyPrint   = "pretty"
	ParamIncludeSatIDs = "includeSatIds"
	ParamLatitude      = "latitude"
	ParamLongitude     = "longitude"
	ParamNumDays       = "numDays"
	ParamTimeOfDay     = "timeOfDay"
)

// Defaults and bounds.
const (
	DefaultDayCount  = 5
	MinDayCount      = 1
	MaxDayCount      = 10
	DefaultTimeOfDay = "all"
)

// FieldKey is the errkind field under which validation errors record the
// offending parameter.
const FieldKey = "field"

// Timing is a validated timings query.
type Timing struct {
	SatelliteIDs []string
	Latitude     float64
	Longitude    float64
	DayCount     int
	TimeOfDay    string
	PrettyPrint  bool
	APIVersion   string
}

// Path is a validated ground-path query.
type Path struct {
	SatelliteIDs []string
	PrettyPrint  bool
	APIVersion   string
}

// ParseTiming validates a timings query. A nil query means the parameter
// collection was absent and is rejected.
func ParseTiming(ds *model.Dataset, query map[string]string, apiVersion string) (Timing, error) {
	const op = "params.ParseTiming"
	if query == nil {
		return Timing{}, errkind.NewKind(op, model.ErrValidation)
	}

	lat, err := parseCoordinate(op, query, ParamLatitude, 90)
	if err != nil {
		return Timing{}, err
	}
	lon, err := parseCoordinate(op, query, ParamLongitude, 180)
	if err != nil {
		return Timing{}, err
	}

	timeOfDay, ok := query[ParamTimeOfDay]
	if !ok {
		timeOfDay = DefaultTimeOfDay
	}

	return Timing{
		SatelliteIDs: satelliteIDs(ds, query),
		Latitude:     lat,
		Longitude:    lon,
		DayCount:     dayCount(query),
		TimeOfDay:    timeOfDay,
		PrettyPrint:  prettyPrint(query),
		APIVersion:   apiVersion,
	}, nil
}

// ParsePath validates a ground-path query. A nil query is treated as empty;
// the path query has no required parameters.
func ParsePath(ds *model.Dataset, query map[string]string, apiVersion string) (Path, error) {
	if query == nil {
		query = map[string]string{}
	}
	return Path{
		SatelliteIDs: satelliteIDs(ds, query),
		PrettyPrint:  prettyPrint(query),
		APIVersion:   apiVersion,
	}, nil
}

func parseCoordinate(op string, query map[string]string, name string, limit float64) (float64, error) {
	raw, ok := query[name]
	if !ok {
		return 0, errkind.With(errkind.NewKind(op, model.ErrValidation), FieldKey, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, errkind.With(errkind.WrapKind(op, model.ErrValidation, err), FieldKey, name)
	}
	return v, nil
}

// dayCount parses numDays as an integer, truncating decimals toward zero.
// Unparsable input falls back to the default; the result is clamped.
func dayCount(query map[string]string) int {
	raw, ok := query[ParamNumDays]
	if !ok {
		return DefaultDayCount
	}
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(f) {
			return DefaultDayCount
		}
		switch {
		case f > MaxDayCount:
			return MaxDayCount
		case f < MinDayCount:
			return MinDayCount
		}
		n = int(math.Trunc(f))
	}
	return clamp(n, MinDayCount, MaxDayCount)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func satelliteIDs(ds *model.Dataset, query map[string]string) []string {
	raw, ok := query[ParamIncludeSatIDs]
	if !ok {
		return ds.ActiveNames()
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func prettyPrint(query map[string]string) bool {
	_, ok := query[ParamPrettyPrint]
	return ok
}
