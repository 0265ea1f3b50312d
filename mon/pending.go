package mon

import "github.com/taodd/ceph-ci/osdmap"

// pendingAccumulator wraps the Incremental the leader is building for
// the next epoch and decides, after each Prepare, whether it is worth
// proposing right away or worth waiting a little to batch more changes
// into the same epoch.
type pendingAccumulator struct {
	inc *osdmap.Incremental
}

func newPendingAccumulator(current *osdmap.Map) *pendingAccumulator {
	return &pendingAccumulator{inc: osdmap.NewIncremental(current)}
}

// ShouldPropose implements the propose-now-or-batch policy: a full map
// blob attached to the increment, or a large bulk reweight, is proposed
// immediately because delaying it buys nothing (the blob dominates the
// message size either way, and a large reweight is already a
// deliberate, singular operator action); anything else waits out
// cfg.ProposeBackoff in case more changes land in the same epoch.
func (p *pendingAccumulator) ShouldPropose(cfg Config) bool {
	if len(p.inc.FullMapBlob) > 0 {
		return true
	}
	if len(p.inc.NewWeight) >= cfg.BulkReweightThreshold {
		return true
	}
	return false
}
