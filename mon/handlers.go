package mon

import (
	"time"

	"github.com/taodd/ceph-ci/osdmap"
)

// BootRequest is sent by an OSD process starting up, claiming id at addr.
type BootRequest struct {
	base
	ID   osdmap.OSDID
	Addr osdmap.Addr
}

// Preprocess rejects boots that are already satisfied by the current
// map -- the same request replayed after a commit the sender didn't
// see yet -- mirroring how Master.identify() in the teacher short
// circuits a retry of an already-accepted identification.
func (r *BootRequest) Preprocess(m *Monitor) bool {
	return m.current.HaveInst(r.ID, r.Addr)
}

func (r *BootRequest) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	if !m.current.Exists(r.ID) {
		pending.AllocOSD(r.ID)
	}
	pending.MarkUp(r.ID, r.Addr)
	pending.MarkIn(r.ID)
	delete(m.downPendingOut, r.ID)
	delete(m.downReporters, r.ID)
	return nil
}

// AliveRequest is a periodic liveness beacon from an up OSD, used to
// reset any down-report tally accumulating against it.
type AliveRequest struct {
	base
	ID    osdmap.OSDID
	Epoch osdmap.Epoch
}

func (r *AliveRequest) Preprocess(m *Monitor) bool {
	if !m.current.IsUp(r.ID) {
		return false // let Prepare decide: stale map on the sender's side, or it should boot again
	}
	delete(m.downReporters, r.ID)
	return true
}

func (r *AliveRequest) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	// sender believes it is up but the current map disagrees and it
	// never rebooted through BootRequest -- nothing safe to do other
	// than let it time out and reboot.
	return nil
}

// FailureReport is sent by an OSD that could not reach target, naming
// itself as reporter. A report is only actionable once at least
// cfg.MinDownReporters distinct OSDs have reported the same target down,
// as protection against a single flaky link taking down a healthy OSD --
// left, as in the source design, as a policy knob rather than a fixed rule.
// Reports do not expire with time: a target's tally is cleared only when
// it is marked down, boots, sends an AliveRequest, or is up after a commit.
type FailureReport struct {
	base
	Reporter osdmap.OSDID
	Target   osdmap.OSDID
	Epoch    osdmap.Epoch
}

func (r *FailureReport) Preprocess(m *Monitor) bool {
	if !m.current.IsUp(r.Target) {
		return true // already down, nothing to do
	}
	if m.peers != nil && m.peers.RecentlyContacted(r.Target, r.Epoch) {
		return true // contradicted by another subsystem, drop silently
	}
	return false
}

func (r *FailureReport) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	if !m.current.IsUp(r.Target) {
		return nil
	}
	reporters := m.downReporters[r.Target]
	if reporters == nil {
		reporters = make(map[osdmap.OSDID]time.Time)
		m.downReporters[r.Target] = reporters
	}
	reporters[r.Reporter] = time.Now()

	if len(reporters) < m.cfg.MinDownReporters {
		return nil
	}

	pending.MarkDown(r.Target)
	m.downPendingOut[r.Target] = time.Now().Add(m.cfg.DownOutInterval)
	delete(m.downReporters, r.Target)
	return nil
}

// MarkDownCmd is an administrator-issued request to force id down
// immediately, bypassing the reporter quorum.
type MarkDownCmd struct {
	base
	ID osdmap.OSDID
}

func (c *MarkDownCmd) Preprocess(m *Monitor) bool {
	return !m.current.IsUp(c.ID)
}

func (c *MarkDownCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	pending.MarkDown(c.ID)
	m.downPendingOut[c.ID] = time.Now().Add(m.cfg.DownOutInterval)
	return nil
}

// ReweightCmd is an administrator-issued placement weight change.
type ReweightCmd struct {
	base
	ID     osdmap.OSDID
	Weight osdmap.Weight
}

func (c *ReweightCmd) Preprocess(m *Monitor) bool {
	return m.current.Exists(c.ID) && m.current.GetWeight(c.ID) == c.Weight
}

func (c *ReweightCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	pending.SetWeight(c.ID, c.Weight)
	return nil
}

// PoolCreateCmd creates a new pool under the given id.
type PoolCreateCmd struct {
	base
	ID   int
	Pool *osdmap.Pool
}

func (c *PoolCreateCmd) Preprocess(m *Monitor) bool {
	_, exists := m.current.LookupPoolName(c.Pool.Name)
	return exists
}

func (c *PoolCreateCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	c.Pool.LastChange = pending.Epoch
	pending.UpsertPool(c.ID, c.Pool)
	return nil
}

// PoolDeleteCmd removes a pool by id.
type PoolDeleteCmd struct {
	base
	ID int
}

func (c *PoolDeleteCmd) Preprocess(m *Monitor) bool {
	return m.current.GetPool(c.ID) == nil
}

func (c *PoolDeleteCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	pending.DeletePool(c.ID)
	return nil
}

// SnapCreateCmd creates a named snapshot of a pool.
type SnapCreateCmd struct {
	base
	PoolID int
	Name   string
	Stamp  int64
}

func (c *SnapCreateCmd) Preprocess(m *Monitor) bool {
	p := m.current.GetPool(c.PoolID)
	return p != nil && p.HasSnapName(c.Name)
}

func (c *SnapCreateCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	p := m.current.GetPool(c.PoolID)
	if p == nil {
		return nil
	}
	next := p.Clone()
	next.AddSnap(c.Name, c.Stamp)
	next.SnapEpoch = pending.Epoch
	next.LastChange = pending.Epoch
	pending.UpsertPool(c.PoolID, next)
	return nil
}

// SnapDeleteCmd removes a named snapshot of a pool.
type SnapDeleteCmd struct {
	base
	PoolID int
	Name   string
}

func (c *SnapDeleteCmd) Preprocess(m *Monitor) bool {
	p := m.current.GetPool(c.PoolID)
	return p == nil || !p.HasSnapName(c.Name)
}

func (c *SnapDeleteCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	p := m.current.GetPool(c.PoolID)
	if p == nil {
		return nil
	}
	id, ok := p.SnapIDByName(c.Name)
	if !ok {
		return nil
	}
	next := p.Clone()
	next.RemoveSnapByID(id)
	next.LastChange = pending.Epoch
	pending.UpsertPool(c.PoolID, next)
	return nil
}

// BlacklistCmd blacklists an address (client or OSD) until expiry.
type BlacklistCmd struct {
	base
	Addr   string
	Expiry int64
}

func (c *BlacklistCmd) Preprocess(m *Monitor) bool {
	return m.current.IsBlacklisted(c.Addr, time.Now().Unix())
}

func (c *BlacklistCmd) Prepare(m *Monitor, pending *osdmap.Incremental) Message {
	pending.Blacklist(c.Addr, c.Expiry)
	return nil
}
