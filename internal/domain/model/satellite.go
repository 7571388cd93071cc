// Package model contains domain models passed between layers.
package model

import "time"

// Satellite is one record of the TLE dataset. Name is the unique key.
type Satellite struct {
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Active bool   `json:"active"`
	Line1  string `json:"tle1"`
	Line2  string `json:"tle2"`
}

// Dataset is an immutable snapshot of the remote TLE document. It is replaced
// wholesale on refresh and never mutated in place.
type Dataset struct {
	Satellites []Satellite `json:"satellites"`

	FetchedAt time.Time `json:"-"`
	Source    string    `json:"-"`
}

// Find returns the satellite whose name equals id exactly.
func (d *Dataset) Find(id string) (Satellite, bool) {
	if d == nil {
		return Satellite{}, false
	}
	for _, s := range d.Satellites {
		if s.Name == id {
			return s, true
		}
	}
	return Satellite{}, false
}

// Active returns the active satellites in dataset order.
func (d *Dataset) Active() []Satellite {
	if d == nil {
		return nil
	}
	var out []Satellite
	for _, s := range d.Satellites {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// ActiveNames returns the names of the active satellites in dataset order.
func (d *Dataset) ActiveNames() []string {
	active := d.Active()
	names := make([]string, 0, len(active))
	for _, s := range active {
		names = append(names, s.Name)
	}
	return names
}

// FocusID returns the name of the first active satellite, or "" when none is active.
func (d *Dataset) FocusID() string {
	if d == nil {
		return ""
	}
	for _, s := range d.Satellites {
		if s.Active {
			return s.Name
		}
	}
	return ""
}

// Resolve maps requested ids onto dataset records, keeping request order.
// Ids without a record are returned in missing; duplicates resolve each time.
func Resolve(d *Dataset, ids []string) (found []Satellite, missing []string) {
	for _, id := range ids {
		if s, ok := d.Find(id); ok {
			found = append(found, s)
			continue
		}
		missing = append(missing, id)
	}
	return found, missing
}
