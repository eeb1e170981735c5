package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/hw"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, sample *Sample) error
	Snapshot() []Sample
	Close() error
}

// Source is where the collection loop reads its samples from.
type Source interface {
	Thermal(ctx context.Context) (hw.ThermalSample, error)
	Power(ctx context.Context) (hw.PowerBatteryInfo, error)
}

// Sample is one recorded observation. Pointer fields stay nil when the
// backend did not report them.
type Sample struct {
	Timestamp time.Time
	Sensors   []hw.SensorReading
	Fans      []float64
	MaxTempC  *float64
	OnAC      *bool
	ChargePct *float64
}
