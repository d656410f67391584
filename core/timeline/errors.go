package timeline

import (
	"errors"
	"fmt"
)

// Sentinel lookup errors. Repositories report "not found" as a nil entity;
// the store converts that into one of these so callers can errors.Is on it.
var (
	ErrTrackNotFound    = errors.New("timeline: track not found")
	ErrKeyframeNotFound = errors.New("timeline: keyframe not found")
	// ErrDragActive is returned when a gesture begins while another pointer
	// still holds the drag capture.
	ErrDragActive = errors.New("timeline: another drag gesture is active")
)

// ValidationError reports a mutation that would violate a data-model
// invariant. The mutation is rejected before any write happens.
type ValidationError struct {
	Invariant string // short machine-readable name, e.g. "no-overlap"
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("timeline: validation failed (%s): %s", e.Invariant, e.Detail)
}

// CapacityError reports an insertion point at or beyond the project end.
type CapacityError struct {
	Timestamp int64 // computed insertion point, ms
	Limit     int64 // project duration, ms
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("timeline: insertion at %dms exceeds project duration %dms", e.Timestamp, e.Limit)
}

// ProvisioningError reports a failed media placement. The placement is
// all-or-nothing: when this is returned no track or keyframe was left behind.
type ProvisioningError struct {
	Stage string // "resolve", "create-track", "append", "rollback"
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("timeline: provisioning failed at %s: %v", e.Stage, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
