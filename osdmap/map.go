package osdmap

import (
	"fmt"
)

// Map is the full cluster topology at a given epoch: every OSD's
// identity, weight and up/down/in/out state, the pool table and the
// CRUSH placement blob. It is always handled as an immutable value
// from the point of view of a caller holding a *Map: producing a new
// epoch means building an Incremental and calling Apply, which returns
// a fresh *Map rather than mutating the receiver in place.
type Map struct {
	FSID  FSID
	Epoch Epoch
	Created  int64
	Modified int64

	MaxOSD int32

	// per-OSD state, indexed by OSDID. osdState[id]&Exists==0 means the
	// slot was never allocated.
	osdState  []osdState
	weight    []Weight
	addr      []Addr
	info      []OSDInfo

	Pools     map[int]*Pool
	PoolName  map[string]int
	PoolMax   int

	Blacklist map[string]int64 // addr string -> unix expiry
	Crush     *CrushBlob
}

type osdState uint8

const (
	stateExists osdState = 1 << iota
	stateUp
	stateIn
)

// New returns an empty map for a freshly created cluster (epoch 0).
func New(fsid FSID) *Map {
	return &Map{
		FSID:     fsid,
		Epoch:    0,
		Pools:    make(map[int]*Pool),
		PoolName: make(map[string]int),
		Blacklist: make(map[string]int64),
	}
}

func (m *Map) ensureSlot(id OSDID) {
	n := int(id) + 1
	for len(m.osdState) < n {
		m.osdState = append(m.osdState, 0)
		m.weight = append(m.weight, 0)
		m.addr = append(m.addr, Addr{})
		m.info = append(m.info, OSDInfo{})
	}
	if int32(n) > m.MaxOSD {
		m.MaxOSD = int32(n)
	}
}

// Exists reports whether id has ever been allocated in this map.
func (m *Map) Exists(id OSDID) bool {
	return int(id) < len(m.osdState) && m.osdState[id]&stateExists != 0
}

// IsUp reports whether id is currently marked up.
func (m *Map) IsUp(id OSDID) bool {
	return m.Exists(id) && m.osdState[id]&stateUp != 0
}

// IsDown is the negation of IsUp, false for non-existent ids.
func (m *Map) IsDown(id OSDID) bool {
	return m.Exists(id) && m.osdState[id]&stateUp == 0
}

// IsIn reports whether id currently participates in data placement.
func (m *Map) IsIn(id OSDID) bool {
	return m.Exists(id) && m.osdState[id]&stateIn != 0
}

// IsOut is the negation of IsIn, false for non-existent ids.
func (m *Map) IsOut(id OSDID) bool {
	return m.Exists(id) && m.osdState[id]&stateIn == 0
}

// GetWeight returns id's placement weight, or 0 if it does not exist.
func (m *Map) GetWeight(id OSDID) Weight {
	if !m.Exists(id) {
		return 0
	}
	return m.weight[id]
}

// GetAddr returns id's last known network address.
func (m *Map) GetAddr(id OSDID) (Addr, bool) {
	if !m.Exists(id) {
		return Addr{}, false
	}
	return m.addr[id], true
}

// GetInfo returns id's history record.
func (m *Map) GetInfo(id OSDID) (OSDInfo, bool) {
	if !m.Exists(id) {
		return OSDInfo{}, false
	}
	return m.info[id], true
}

// HaveInst reports whether id exists, is up, and its address equals addr --
// i.e. whether addr currently identifies a live instance of id.
func (m *Map) HaveInst(id OSDID, addr Addr) bool {
	a, ok := m.GetAddr(id)
	return ok && m.IsUp(id) && a.Equal(addr)
}

// GetUpOSDs returns the ids of all OSDs currently marked up.
func (m *Map) GetUpOSDs() []OSDID {
	var out []OSDID
	for id := range m.osdState {
		if m.IsUp(OSDID(id)) {
			out = append(out, OSDID(id))
		}
	}
	return out
}

// GetAllOSDs returns the ids of all allocated OSD slots.
func (m *Map) GetAllOSDs() []OSDID {
	var out []OSDID
	for id := range m.osdState {
		if m.Exists(OSDID(id)) {
			out = append(out, OSDID(id))
		}
	}
	return out
}

// LookupPoolName returns the id of the pool with this name, or ok=false.
func (m *Map) LookupPoolName(name string) (int, bool) {
	id, ok := m.PoolName[name]
	return id, ok
}

// GetPool returns the pool by id, or nil.
func (m *Map) GetPool(id int) *Pool {
	return m.Pools[id]
}

// IsBlacklisted reports whether addr is currently blacklisted (expiry in
// the future relative to now).
func (m *Map) IsBlacklisted(addr string, now int64) bool {
	exp, ok := m.Blacklist[addr]
	return ok && exp > now
}

// PGToOSDs maps a placement group in pool to the ordered list of OSDs
// that should hold it. The real placement algorithm lives in the opaque
// CRUSH blob and is not re-implemented here; this is a deterministic
// stand-in -- rendezvous hashing over the pool's currently in+up OSDs --
// used so that the monitor's own tests can exercise PG-to-OSD plumbing
// without needing a real CRUSH evaluator.
func (m *Map) PGToOSDs(poolID int, pg uint32) []OSDID {
	pool := m.GetPool(poolID)
	if pool == nil {
		return nil
	}
	cands := m.GetAllOSDs()
	type scored struct {
		id    OSDID
		score uint64
	}
	var sc []scored
	for _, id := range cands {
		if !m.IsUp(id) || !m.IsIn(id) {
			continue
		}
		sc = append(sc, scored{id: id, score: rendezvous(poolID, pg, id)})
	}
	// selection sort into size slots, highest score first
	out := make([]OSDID, 0, pool.Size)
	for len(out) < pool.Size && len(sc) > 0 {
		best := 0
		for i := 1; i < len(sc); i++ {
			if sc[i].score > sc[best].score {
				best = i
			}
		}
		out = append(out, sc[best].id)
		sc = append(sc[:best], sc[best+1:]...)
	}
	return out
}

func rendezvous(poolID int, pg uint32, id OSDID) uint64 {
	h := uint64(14695981039346656037)
	mix := func(x uint64) {
		h ^= x
		h *= 1099511628211
	}
	mix(uint64(poolID))
	mix(uint64(pg))
	mix(uint64(id))
	return h
}

// PrintSummary renders a one-line cluster health summary, in the style
// of the teacher's terse fmt.Sprintf-based status helpers.
func (m *Map) PrintSummary() string {
	up, in := 0, 0
	total := 0
	for _, id := range m.GetAllOSDs() {
		total++
		if m.IsUp(id) {
			up++
		}
		if m.IsIn(id) {
			in++
		}
	}
	return fmt.Sprintf("epoch %d: %d osds: %d up, %d in", m.Epoch, total, up, in)
}
