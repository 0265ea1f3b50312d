package mon

import (
	"context"
	"time"

	"github.com/taodd/ceph-ci/internal/log"
)

// Tick runs the monitor's periodic housekeeping: any OSD that has been
// down past its grace deadline is staged for out, same as Ceph's
// mon/tick sweeping down_pending_out. It is a no-op on non-leader
// replicas -- only the leader may stage changes.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.log.IsLeader() {
		return
	}

	now := time.Now()
	var timedOut []MarkDownCmd
	for id, deadline := range m.downPendingOut {
		if !now.Before(deadline) {
			timedOut = append(timedOut, MarkDownCmd{ID: id})
		}
	}

	for _, cmd := range timedOut {
		if !m.current.IsDown(cmd.ID) {
			delete(m.downPendingOut, cmd.ID)
			continue
		}
		if m.current.IsOut(cmd.ID) {
			delete(m.downPendingOut, cmd.ID)
			continue
		}
		m.pending.inc.MarkOut(cmd.ID)
		delete(m.downPendingOut, cmd.ID)
		log.Infof(ctx, "mon: osd.%d exceeded down-out grace period, marking out", cmd.ID)
	}

	if !m.pending.inc.Empty() {
		m.proposeNow(ctx)
	}
}
