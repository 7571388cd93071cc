package model

// Moment is one instant of a visibility window as seen from the observer.
type Moment struct {
	Epoch     int64   `json:"epoch"`
	Time      string  `json:"time"`
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
}

// TimingEvent is a single visibility window of one satellite.
type TimingEvent struct {
	SatelliteID string  `json:"satId"`
	Start       Moment  `json:"start"`
	Peak        *Moment `json:"peak,omitempty"`
	End         Moment  `json:"end"`
}

// TimingResult is the merged answer of a timings query, ordered by Start.Epoch.
type TimingResult struct {
	Timings []TimingEvent `json:"timings"`
}

// PathPoint is one sub-satellite point of a ground track.
type PathPoint struct {
	Epoch     int64   `json:"epoch"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Altitude  float64 `json:"alt"`
}

// PathRecord is the ground track of one satellite.
type PathRecord struct {
	Title  string      `json:"title"`
	Focus  bool        `json:"focus,omitempty"`
	Points []PathPoint `json:"points"`
}

// PathResult maps satellite id to its ground track.
type PathResult map[string]PathRecord

// FocusCount returns how many records are flagged as focus.
func (r PathResult) FocusCount() int {
	n := 0
	for _, rec := range r {
		if rec.Focus {
			n++
		}
	}
	return n
}

// PredictOptions is the options bundle handed to the visibility predictor.
type PredictOptions struct {
	APIVersion      string
	DayCount        int
	TimeOfDay       string
	StartDaysOffset int
}
