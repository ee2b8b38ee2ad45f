package models

import "errors"

// AcquisitionConfig is the snapshot of settings taken when a run starts.
// ChunkSize is the only field that may change during a run; the engine
// re-reads it and re-applies the trigger count before every chunk query.
type AcquisitionConfig struct {
	DurationS         float64 `json:"duration_s"`
	ChunkSize         int     `json:"chunk_size"`
	NPLC              float64 `json:"nplc"`
	Autorange         bool    `json:"autorange"`
	FixedRangeV       float64 `json:"fixed_range_v"` // used only when Autorange is false
	ZeroCorrect       bool    `json:"zero_correct"`
	SuppressDisplay   bool    `json:"suppress_display"`
	SuppressAutozero  bool    `json:"suppress_autozero"`
	SuppressAveraging bool    `json:"suppress_averaging"`
}

// DefaultConfig mirrors the front-panel defaults of the instrument GUI this
// service replaces.
func DefaultConfig() AcquisitionConfig {
	return AcquisitionConfig{
		DurationS:         150.0,
		ChunkSize:         10,
		NPLC:              1.0,
		Autorange:         true,
		FixedRangeV:       20.0,
		ZeroCorrect:       false,
		SuppressDisplay:   true,
		SuppressAutozero:  true,
		SuppressAveraging: true,
	}
}

var (
	errInvalidDuration = errors.New("duration_s must be > 0")
	errInvalidChunk    = errors.New("chunk_size must be >= 1")
	errInvalidNPLC     = errors.New("nplc must be > 0")
	errInvalidRange    = errors.New("fixed_range_v must be > 0 when autorange is off")
)

// Validate checks the config before a run is started.
func (c AcquisitionConfig) Validate() error {
	if c.DurationS <= 0 {
		return errInvalidDuration
	}
	if c.ChunkSize < 1 {
		return errInvalidChunk
	}
	if c.NPLC <= 0 {
		return errInvalidNPLC
	}
	if !c.Autorange && c.FixedRangeV <= 0 {
		return errInvalidRange
	}
	return nil
}
