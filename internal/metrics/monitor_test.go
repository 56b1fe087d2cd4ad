package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestAveragesAreZeroWithoutSamples(t *testing.T) {
	m := NewMonitor()

	if got := m.AverageLifetimeUpdateTime(); got != 0 {
		t.Fatalf("avg update time with no samples = %v, want 0", got)
	}
	if got := m.AverageCollisionCheckTime(); got != 0 {
		t.Fatalf("avg collision time with no samples = %v, want 0", got)
	}
	if got := m.EfficiencyRatio(); got != 1.0 {
		t.Fatalf("efficiency with no samples = %v, want 1.0", got)
	}
	if !m.IsAcceptable() {
		t.Fatalf("fresh monitor must be acceptable")
	}
}

func TestAveragesTrackRecordedSamples(t *testing.T) {
	m := NewMonitor()
	m.RecordLifetimeUpdate(100 * time.Microsecond)
	m.RecordLifetimeUpdate(300 * time.Microsecond)
	m.RecordCollisionCheck(10 * time.Microsecond)

	if got, want := m.AverageLifetimeUpdateTime(), 200*time.Microsecond; got != want {
		t.Fatalf("avg update time = %v, want %v", got, want)
	}
	if got, want := m.AverageCollisionCheckTime(), 10*time.Microsecond; got != want {
		t.Fatalf("avg collision time = %v, want %v", got, want)
	}
}

func TestContentionDegradesEfficiency(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 8; i++ {
		m.RecordCollisionCheck(time.Microsecond)
	}
	for i := 0; i < 2; i++ {
		m.RecordLifetimeUpdate(time.Microsecond)
	}
	for i := 0; i < 5; i++ {
		m.IncrementContention()
	}

	// 1 - 5/(8+2)
	if got, want := m.EfficiencyRatio(), 0.5; got != want {
		t.Fatalf("efficiency = %v, want %v", got, want)
	}
	if got, want := m.ContentionRatio(), 0.5; got != want {
		t.Fatalf("contention ratio = %v, want %v", got, want)
	}
	if m.IsAcceptable() {
		t.Fatalf("50%% contention must not be acceptable")
	}
}

func TestWarningsNameEachBreach(t *testing.T) {
	m := NewMonitor()
	m.RecordLifetimeUpdate(5 * time.Millisecond) // > 1ms threshold
	m.RecordCollisionCheck(time.Millisecond)     // > 100µs threshold
	for i := 0; i < 5; i++ {
		m.IncrementContention() // ratio > 10%, efficiency < 0.8
	}

	warnings := m.Warnings()
	if len(warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "\n")
	for _, frag := range []string{"update", "collision", "efficiency", "contention"} {
		if !strings.Contains(strings.ToLower(joined), frag) {
			t.Fatalf("warnings missing %q breach: %v", frag, warnings)
		}
	}
}

func TestResetClearsCounters(t *testing.T) {
	m := NewMonitor()
	m.RecordLifetimeUpdate(5 * time.Millisecond)
	m.IncrementContention()
	if m.IsAcceptable() {
		t.Fatalf("expected breached monitor before reset")
	}

	m.Reset()

	if !m.IsAcceptable() {
		t.Fatalf("expected monitor acceptable after reset")
	}
	if got := m.Snapshot(); got.LifetimeUpdates != 0 || got.ContentionCount != 0 {
		t.Fatalf("reset left counters behind: %+v", got)
	}
	if len(m.Warnings()) != 0 {
		t.Fatalf("expected no warnings after reset, got %v", m.Warnings())
	}
}

func TestSnapshotAndReportAgree(t *testing.T) {
	m := NewMonitor()
	m.RecordLifetimeUpdate(200 * time.Microsecond)
	m.RecordCollisionCheck(20 * time.Microsecond)
	m.RecordSyncOverhead(time.Microsecond)

	snap := m.Snapshot()
	if snap.LifetimeUpdates != 1 || snap.CollisionChecks != 1 || snap.SyncOverheadCount != 1 {
		t.Fatalf("snapshot counters wrong: %+v", snap)
	}
	if !snap.Acceptable {
		t.Fatalf("snapshot should be acceptable: %+v", snap)
	}

	report := m.Report()
	if !strings.Contains(report, "lifetime updates") {
		t.Fatalf("report missing lifetime updates line:\n%s", report)
	}
	if strings.Contains(report, "warnings:") {
		t.Fatalf("healthy monitor report should carry no warnings:\n%s", report)
	}
}
