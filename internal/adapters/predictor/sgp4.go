// Package predictor is the reference orbital predictor. It propagates TLEs
// with SGP4 and reports visibility windows and ground tracks.
//
// Visibility is purely geometric: a window is any interval in which the
// satellite is above the elevation mask. Illumination is not modelled.
package predictor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/okian/satfinder/internal/domain/model"
)

// Time-of-day filters understood by VisibleTimes.
const (
	TimeOfDayAll     = "all"
	TimeOfDayMorning = "morning"
	TimeOfDayEvening = "evening"
)

// APIVersionPeak is the first API version whose windows carry a peak moment.
const APIVersionPeak = "1.1"

const (
	defaultMinElevationDeg = 10.0
	defaultStep            = 30 * time.Second
	pathStep               = time.Minute
	ctxCheckEvery          = 256
	deg                    = 180 / math.Pi
	rad                    = math.Pi / 180
)

// SGP4 predicts passes and ground tracks from TLE lines.
type SGP4 struct {
	now          func() time.Time
	minElevation float64
	step         time.Duration
}

// Option configures SGP4.
type Option func(*SGP4)

// WithClock overrides the wall clock that anchors every prediction.
func WithClock(now func() time.Time) Option {
	return func(p *SGP4) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMinElevation sets the elevation mask in degrees.
func WithMinElevation(degrees float64) Option {
	return func(p *SGP4) {
		if degrees >= 0 && degrees < 90 {
			p.minElevation = degrees
		}
	}
}

// WithStep sets the sampling interval of the pass scan.
func WithStep(d time.Duration) Option {
	return func(p *SGP4) {
		if d > 0 {
			p.step = d
		}
	}
}

// New returns an SGP4 predictor.
func New(opts ...Option) *SGP4 {
	p := &SGP4{
		now:          time.Now,
		minElevation: defaultMinElevationDeg,
		step:         defaultStep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// VisibleTimes scans [now+StartDaysOffset days, +DayCount days] for windows in
// which sat is above the elevation mask as seen from lat/lon.
func (p *SGP4) VisibleTimes(ctx context.Context, sat model.Satellite, lat, lon float64, opts model.PredictOptions) (model.TimingResult, error) {
	prop, err := newPropagator(sat)
	if err != nil {
		return model.TimingResult{}, err
	}
	filter := timeOfDayFilter(opts.TimeOfDay, lon)

	days := opts.DayCount
	if days < 1 {
		days = 1
	}
	start := p.now().UTC().AddDate(0, 0, opts.StartDaysOffset)
	end := start.AddDate(0, 0, days)
	obs := satellite.LatLong{Latitude: lat * rad, Longitude: lon * rad}
	withPeak := opts.APIVersion == APIVersionPeak

	res := model.TimingResult{Timings: []model.TimingEvent{}}
	var (
		open       bool
		rise, peak model.Moment
		last       model.Moment
	)
	i := 0
	for t := start; !t.After(end); t = t.Add(p.step) {
		if i++; i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return model.TimingResult{}, err
			}
		}
		m, ok := prop.lookAt(t, obs)
		if !ok {
			continue
		}
		above := m.Elevation >= p.minElevation
		switch {
		case above && !open:
			open = true
			rise, peak, last = m, m, m
		case above && open:
			if m.Elevation > peak.Elevation {
				peak = m
			}
			last = m
		case !above && open:
			open = false
			if filter(rise.Epoch) {
				res.Timings = append(res.Timings, window(sat.Name, rise, peak, last, withPeak))
			}
		}
	}
	if open && filter(rise.Epoch) {
		res.Timings = append(res.Timings, window(sat.Name, rise, peak, last, withPeak))
	}
	return res, nil
}

// SatellitePath samples the sub-satellite point once a minute for the next
// minutes, both ends included.
func (p *SGP4) SatellitePath(ctx context.Context, sat model.Satellite, minutes int) (model.PathRecord, error) {
	prop, err := newPropagator(sat)
	if err != nil {
		return model.PathRecord{}, err
	}
	if minutes < 0 {
		minutes = 0
	}
	start := p.now().UTC().Truncate(time.Second)
	rec := model.PathRecord{Title: sat.Title, Points: make([]model.PathPoint, 0, minutes+1)}
	for i := 0; i <= minutes; i++ {
		if err := ctx.Err(); err != nil {
			return model.PathRecord{}, err
		}
		t := start.Add(time.Duration(i) * pathStep)
		pt, ok := prop.subPoint(t)
		if !ok {
			return model.PathRecord{}, fmt.Errorf("%w: %s at %s", ErrPropagation, sat.Name, t.Format(time.RFC3339))
		}
		rec.Points = append(rec.Points, pt)
	}
	return rec, nil
}

func window(id string, rise, peak, set model.Moment, withPeak bool) model.TimingEvent {
	ev := model.TimingEvent{SatelliteID: id, Start: rise, End: set}
	if withPeak {
		pk := peak
		ev.Peak = &pk
	}
	return ev
}

// timeOfDayFilter selects windows by the observer's local solar hour at rise.
// Unrecognized values select every window.
func timeOfDayFilter(timeOfDay string, lon float64) func(epoch int64) bool {
	switch strings.ToLower(timeOfDay) {
	case TimeOfDayMorning:
		return func(e int64) bool { return localSolarHour(e, lon) < 12 }
	case TimeOfDayEvening:
		return func(e int64) bool { return localSolarHour(e, lon) >= 12 }
	}
	return func(int64) bool { return true }
}

func localSolarHour(epoch int64, lon float64) float64 {
	t := time.Unix(epoch, 0).UTC()
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600 + lon/15
	h = math.Mod(h, 24)
	if h < 0 {
		h += 24
	}
	return h
}

type propagator struct {
	sat satellite.Satellite
}

func newPropagator(sat model.Satellite) (*propagator, error) {
	if err := validateTLELines(sat.Line1, sat.Line2); err != nil {
		return nil, fmt.Errorf("%s: %w", sat.Name, err)
	}
	s := satellite.TLEToSat(strings.TrimSpace(sat.Line1), strings.TrimSpace(sat.Line2), satellite.GravityWGS84)
	if s.Error != 0 {
		return nil, fmt.Errorf("%w: %s: code=%d %s", ErrPropagation, sat.Name, s.Error, s.ErrorStr)
	}
	return &propagator{sat: s}, nil
}

// validateTLELines rejects malformed element sets before they reach the
// library, which aborts the process on parse errors. Every numeric column the
// library reads must parse here first.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if len(line1) != 69 {
		return fmt.Errorf("%w: line1 length %d, expected 69", ErrInvalidTLE, len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("%w: line2 length %d, expected 69", ErrInvalidTLE, len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("%w: line1 must start with '1', got '%c'", ErrInvalidTLE, line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("%w: line2 must start with '2', got '%c'", ErrInvalidTLE, line2[0])
	}
	for _, f := range tleFields(line1, line2) {
		if err := f.check(); err != nil {
			return err
		}
	}
	return nil
}

// tleField is one numeric column of an element set as the SGP4 parser reads
// it. blanks is how many spaces the field may carry around its value.
type tleField struct {
	name    string
	text    string
	blanks  int
	integer bool
}

// tleFields lists every column the parser converts, assembled the same way.
// Lines must already be 69 characters long.
func tleFields(l1, l2 string) []tleField {
	return []tleField{
		{name: "satellite number", text: l1[2:7], blanks: 4, integer: true},
		{name: "epoch year", text: l1[18:20], integer: true},
		{name: "epoch day", text: l1[20:32]},
		{name: "mean motion derivative", text: l1[33:43], blanks: 2},
		{name: "mean motion second derivative", text: l1[44:45] + "." + l1[45:50] + "e" + l1[50:52], blanks: 2},
		{name: "bstar", text: l1[53:54] + "." + l1[54:59] + "e" + l1[59:61], blanks: 2},
		{name: "inclination", text: l2[8:16], blanks: 2},
		{name: "right ascension", text: l2[17:25], blanks: 2},
		{name: "eccentricity", text: "." + l2[26:33]},
		{name: "argument of perigee", text: l2[34:42], blanks: 2},
		{name: "mean anomaly", text: l2[43:51], blanks: 2},
		{name: "mean motion", text: l2[52:63], blanks: 2},
	}
}

// check parses the field. Spaces are only accepted at either end and at most
// blanks of them, so any blank stripping the parser applies yields the text
// checked here.
func (f tleField) check() error {
	v := strings.TrimSpace(f.text)
	if strings.Count(f.text, " ") > f.blanks || strings.Contains(v, " ") || v == "" {
		return fmt.Errorf("%w: %s %q", ErrInvalidTLE, f.name, f.text)
	}
	var err error
	if f.integer {
		_, err = strconv.ParseInt(v, 10, 64)
	} else {
		_, err = strconv.ParseFloat(v, 64)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %q", ErrInvalidTLE, f.name, f.text)
	}
	return nil
}

func (p *propagator) eci(t time.Time) (satellite.Vector3, bool) {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	pos, _ := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return pos, false
	}
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return pos, false
	}
	return pos, true
}

func julian(t time.Time) float64 {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	return satellite.JDay(year, int(month), day, hour, min, sec)
}

func (p *propagator) lookAt(t time.Time, obs satellite.LatLong) (model.Moment, bool) {
	pos, ok := p.eci(t)
	if !ok {
		return model.Moment{}, false
	}
	la := satellite.ECIToLookAngles(pos, obs, 0, julian(t))
	az := math.Mod(la.Az*deg, 360)
	if az < 0 {
		az += 360
	}
	return model.Moment{
		Epoch:     t.Unix(),
		Time:      t.Format(time.RFC3339),
		Elevation: round(la.El*deg, 2),
		Azimuth:   round(az, 2),
	}, true
}

func (p *propagator) subPoint(t time.Time) (model.PathPoint, bool) {
	pos, ok := p.eci(t)
	if !ok {
		return model.PathPoint{}, false
	}
	alt, _, ll := satellite.ECIToLLA(pos, satellite.ThetaG_JD(julian(t)))
	return model.PathPoint{
		Epoch:     t.Unix(),
		Latitude:  round(ll.Latitude*deg, 4),
		Longitude: round(normalizeLongitude(ll.Longitude*deg), 4),
		Altitude:  round(alt, 1),
	}, true
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
