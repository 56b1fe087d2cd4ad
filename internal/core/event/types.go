package event

import (
	"github.com/snakego/server/internal/metrics"
)

// Tick event types published by the obstacle systems.

// ObstacleSpawned fires when the spawn system places a new obstacle.
type ObstacleSpawned struct {
	Total int // population after the spawn
}

// ObstaclesSwept fires after a sweep removed expired obstacles.
type ObstaclesSwept struct {
	Removed int
}

// BatchMerged fires when a generated batch lands in the store.
type BatchMerged struct {
	Requested int
	Merged    int
}

// PerfSampled carries a periodic monitor snapshot to the telemetry sinks.
type PerfSampled struct {
	Snapshot metrics.Snapshot
}
