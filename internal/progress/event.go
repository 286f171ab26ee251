package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StageRegionStart Stage = "REGION_START"
	StageRegionDone  Stage = "REGION_DONE"
	StageRegionError Stage = "REGION_ERROR"
	StageFetchDone   Stage = "FETCH_DONE"
)

// StatusClass is a coarse HTTP response grouping for fetch events.
type StatusClass string

// Supported status classes.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures one step of ingestion progress.
type Event struct {
	// RunID identifies the ingestion run in 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Region scopes region and fetch events to a region name.
	Region string
	// BrewerID scopes fetch events to one brewer.
	BrewerID string
	// Records carries how many beer records the step produced.
	Records int64
	// StatusClass groups the HTTP outcome of a fetch (2xx, 5xx, ...).
	StatusClass StatusClass
	// Dur captures elapsed wall-clock time for completion events.
	Dur time.Duration
	// Note carries the failure reason; empty means the step succeeded.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageRegionStart, StageRegionDone, StageRegionError:
		if e.Region == "" {
			return errors.New("region events require a region name")
		}
	case StageFetchDone:
		if e.Region == "" {
			return errors.New("fetch done requires a region name")
		}
		if e.BrewerID == "" {
			return errors.New("fetch done requires a brewer id")
		}
		if e.StatusClass == "" {
			return errors.New("fetch done requires a status class")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	if e.Records < 0 {
		return errors.New("record count must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID back to uuid.UUID form.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

// ClassifyStatus groups HTTP status codes for fetch events. Zero means
// the request never completed.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
