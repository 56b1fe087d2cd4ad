package metrics

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// reportPrinter groups large counters (1,234,567) for readability in logs.
var reportPrinter = message.NewPrinter(language.English)

// Report renders a multi-line performance summary for operational logging.
// The format is for humans, not machine parsing.
func (m *Monitor) Report() string {
	snap := m.Snapshot()

	var b strings.Builder
	b.WriteString("=== obstacle performance report ===\n")
	reportPrinter.Fprintf(&b, "lifetime updates:  %d\n", snap.LifetimeUpdates)
	reportPrinter.Fprintf(&b, "collision checks:  %d\n", snap.CollisionChecks)
	reportPrinter.Fprintf(&b, "updates/sec:       %.2f\n", snap.UpdatesPerSecond)
	fmt.Fprintf(&b, "avg update time:   %s\n", snap.AvgUpdateTime)
	fmt.Fprintf(&b, "avg collision:     %s\n", snap.AvgCollisionTime)
	fmt.Fprintf(&b, "avg sync overhead: %s\n", snap.AvgSyncOverhead)
	reportPrinter.Fprintf(&b, "lock contention:   %d (%.1f%%)\n",
		snap.ContentionCount, m.ContentionRatio()*100)
	fmt.Fprintf(&b, "efficiency:        %.1f%%\n", snap.EfficiencyRatio*100)

	if warnings := m.Warnings(); len(warnings) > 0 {
		b.WriteString("warnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	return b.String()
}
