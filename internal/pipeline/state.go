package pipeline

import (
	"CoinDash/internal/chart"
	"CoinDash/internal/model"
)

// Status is the load state of the current selection.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Snapshot is an immutable view of the controller state. Series is only
// populated when Status is StatusReady; Err only when StatusFailed.
type Snapshot struct {
	Status      Status
	AssetID     string
	Range       model.RangeOption
	Granularity chart.Granularity
	Series      model.Series
	Err         error
	Seq         uint64
}

// EventKind distinguishes state changes from hover readout changes.
type EventKind int

const (
	EventState EventKind = iota
	EventHover
)

// Event is delivered to subscribers. For EventHover, a nil Readout means
// the readout was cleared.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Readout  *model.HoverReadout
}
