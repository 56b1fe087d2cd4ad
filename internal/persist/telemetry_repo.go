package persist

import (
	"context"
	"fmt"

	"github.com/snakego/server/internal/metrics"
)

// TelemetryRepo persists periodic performance snapshots for offline
// analysis. Entirely optional: the server runs without a database and
// simply skips telemetry persistence.
type TelemetryRepo struct {
	db *DB
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// SaveSnapshot inserts one monitor snapshot tagged with the session name.
func (r *TelemetryRepo) SaveSnapshot(ctx context.Context, session string, snap metrics.Snapshot) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO perf_snapshots (
			session, taken_at, lifetime_updates, collision_checks,
			contention_count, avg_update_ns, avg_collision_ns, avg_sync_ns,
			efficiency_ratio, updates_per_second, acceptable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		session, snap.TakenAt,
		int64(snap.LifetimeUpdates), int64(snap.CollisionChecks),
		int64(snap.ContentionCount),
		snap.AvgUpdateTime.Nanoseconds(), snap.AvgCollisionTime.Nanoseconds(),
		snap.AvgSyncOverhead.Nanoseconds(),
		snap.EfficiencyRatio, snap.UpdatesPerSecond, snap.Acceptable,
	)
	if err != nil {
		return fmt.Errorf("insert perf snapshot: %w", err)
	}
	return nil
}

// PruneBefore deletes snapshots older than the cutoff, returning the
// number of rows removed.
func (r *TelemetryRepo) PruneBefore(ctx context.Context, session string, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM perf_snapshots
		WHERE session = $1 AND id NOT IN (
			SELECT id FROM perf_snapshots
			WHERE session = $1
			ORDER BY taken_at DESC
			LIMIT $2
		)`, session, keep)
	if err != nil {
		return 0, fmt.Errorf("prune perf snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
