package models

import (
	"encoding/json"
	"math"
)

// Sample is one acquired measurement point. PCTime is seconds since the run
// started, taken from the host monotonic clock once per chunk. InstTime and
// Status are NaN when the instrument did not return them.
type Sample struct {
	PCTime   float64 `json:"pc_time_s"`
	Reading  float64 `json:"reading_v"`
	InstTime float64 `json:"inst_time"`
	Status   float64 `json:"status"`
}

// MarshalJSON encodes NaN fields as null, since JSON has no NaN literal.
func (s Sample) MarshalJSON() ([]byte, error) {
	type wire struct {
		PCTime   float64  `json:"pc_time_s"`
		Reading  float64  `json:"reading_v"`
		InstTime *float64 `json:"inst_time"`
		Status   *float64 `json:"status"`
	}
	w := wire{PCTime: s.PCTime, Reading: s.Reading}
	if !math.IsNaN(s.InstTime) {
		v := s.InstTime
		w.InstTime = &v
	}
	if !math.IsNaN(s.Status) {
		v := s.Status
		w.Status = &v
	}
	return json.Marshal(w)
}
