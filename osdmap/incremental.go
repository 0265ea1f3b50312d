package osdmap

// Incremental is the diff from epoch N to epoch N+1. Every field is a
// sparse overlay: zero-value/nil/empty means "no change". Applying an
// Incremental to a Map never mutates the Map in place -- Apply returns a
// new *Map sharing unmodified sub-structures with its predecessor.
type Incremental struct {
	FSID     FSID
	Epoch    Epoch // epoch this increment produces, i.e. fromEpoch+1

	NewUp    map[OSDID]Addr
	NewDown  map[OSDID]bool // value unused, presence marks "mark down"
	NewIn    map[OSDID]bool
	NewOut   map[OSDID]bool
	NewWeight map[OSDID]Weight

	NewOSD   map[OSDID]bool // newly allocated slots (UpFrom etc. start fresh)
	LostAt   map[OSDID]Epoch

	NewPools  map[int]*Pool
	OldPools  map[int]bool // pool ids to delete

	NewBlacklist map[string]int64
	OldBlacklist map[string]bool

	FullCrush *CrushBlob // non-nil if this increment replaces the whole blob

	// FullMapBlob, when set, carries an encoded Map snapshot alongside
	// this increment. Only the propose policy reads it (a non-empty blob
	// makes the leader propose at once); Encode does not write it, Empty
	// does not count it, and Apply does not read it.
	FullMapBlob []byte
}

// NewIncremental returns an empty increment building on top of from.
func NewIncremental(from *Map) *Incremental {
	return &Incremental{
		FSID:  from.FSID,
		Epoch: from.Epoch + 1,
	}
}

// Empty reports whether the increment carries no changes at all, i.e.
// applying it would be a pure epoch bump.
func (inc *Incremental) Empty() bool {
	return len(inc.NewUp) == 0 && len(inc.NewDown) == 0 &&
		len(inc.NewIn) == 0 && len(inc.NewOut) == 0 &&
		len(inc.NewWeight) == 0 && len(inc.NewOSD) == 0 &&
		len(inc.LostAt) == 0 && len(inc.NewPools) == 0 &&
		len(inc.OldPools) == 0 && len(inc.NewBlacklist) == 0 &&
		len(inc.OldBlacklist) == 0 && inc.FullCrush == nil
}

// MarkUp records that id is now reachable at addr.
func (inc *Incremental) MarkUp(id OSDID, addr Addr) {
	if inc.NewUp == nil {
		inc.NewUp = make(map[OSDID]Addr)
	}
	inc.NewUp[id] = addr
	delete(inc.NewDown, id)
}

// MarkDown records that id should transition to down.
func (inc *Incremental) MarkDown(id OSDID) {
	if inc.NewDown == nil {
		inc.NewDown = make(map[OSDID]bool)
	}
	inc.NewDown[id] = true
	delete(inc.NewUp, id)
}

// MarkOut records that id should transition to out, with weight forced
// to zero.
func (inc *Incremental) MarkOut(id OSDID) {
	if inc.NewOut == nil {
		inc.NewOut = make(map[OSDID]bool)
	}
	inc.NewOut[id] = true
	delete(inc.NewIn, id)
}

// MarkIn records that id should transition to in.
func (inc *Incremental) MarkIn(id OSDID) {
	if inc.NewIn == nil {
		inc.NewIn = make(map[OSDID]bool)
	}
	inc.NewIn[id] = true
	delete(inc.NewOut, id)
}

// SetWeight records a placement weight override for id.
func (inc *Incremental) SetWeight(id OSDID, w Weight) {
	if inc.NewWeight == nil {
		inc.NewWeight = make(map[OSDID]Weight)
	}
	inc.NewWeight[id] = w
}

// AllocOSD records id as a newly allocated slot.
func (inc *Incremental) AllocOSD(id OSDID) {
	if inc.NewOSD == nil {
		inc.NewOSD = make(map[OSDID]bool)
	}
	inc.NewOSD[id] = true
}

// UpsertPool stages pool for creation or replacement at id.
func (inc *Incremental) UpsertPool(id int, pool *Pool) {
	if inc.NewPools == nil {
		inc.NewPools = make(map[int]*Pool)
	}
	inc.NewPools[id] = pool
}

// DeletePool stages pool id for removal.
func (inc *Incremental) DeletePool(id int) {
	if inc.OldPools == nil {
		inc.OldPools = make(map[int]bool)
	}
	inc.OldPools[id] = true
	delete(inc.NewPools, id)
}

// Blacklist stages addr for blacklisting until expiry (unix seconds).
func (inc *Incremental) Blacklist(addr string, expiry int64) {
	if inc.NewBlacklist == nil {
		inc.NewBlacklist = make(map[string]int64)
	}
	inc.NewBlacklist[addr] = expiry
}

// Unblacklist stages addr for removal from the blacklist.
func (inc *Incremental) Unblacklist(addr string) {
	if inc.OldBlacklist == nil {
		inc.OldBlacklist = make(map[string]bool)
	}
	inc.OldBlacklist[addr] = true
	delete(inc.NewBlacklist, addr)
}

// Apply produces the Map for epoch from.Epoch+1 by overlaying inc onto
// from. from itself is never modified. inc.Epoch must equal
// from.Epoch+1.
func Apply(from *Map, inc *Incremental) (*Map, error) {
	if inc.Epoch != from.Epoch+1 {
		return nil, &EpochMismatchError{Have: from.Epoch, IncFor: inc.Epoch}
	}
	if from.FSID != inc.FSID {
		return nil, &FSIDMismatchError{Have: from.FSID, Inc: inc.FSID}
	}

	out := &Map{
		FSID:     from.FSID,
		Epoch:    inc.Epoch,
		Created:  from.Created,
		MaxOSD:   from.MaxOSD,
		osdState: append([]osdState(nil), from.osdState...),
		weight:   append([]Weight(nil), from.weight...),
		addr:     append([]Addr(nil), from.addr...),
		info:     append([]OSDInfo(nil), from.info...),
		Pools:    make(map[int]*Pool, len(from.Pools)),
		PoolName: make(map[string]int, len(from.PoolName)),
		PoolMax:  from.PoolMax,
		Blacklist: make(map[string]int64, len(from.Blacklist)),
		Crush:    from.Crush,
	}
	for id, p := range from.Pools {
		out.Pools[id] = p
	}
	for name, id := range from.PoolName {
		out.PoolName[name] = id
	}
	for addr, exp := range from.Blacklist {
		out.Blacklist[addr] = exp
	}

	for id := range inc.NewOSD {
		out.ensureSlot(id)
		out.osdState[id] |= stateExists
		out.info[id] = OSDInfo{}
	}

	for id, addr := range inc.NewUp {
		out.ensureSlot(id)
		out.osdState[id] |= stateExists | stateUp
		out.addr[id] = addr
		out.info[id].UpFrom = inc.Epoch
	}
	for id := range inc.NewDown {
		if !out.Exists(id) {
			continue
		}
		out.osdState[id] &^= stateUp
		out.info[id].DownAt = inc.Epoch
	}

	for id := range inc.NewIn {
		out.ensureSlot(id)
		out.osdState[id] |= stateExists | stateIn
		out.weight[id] = WeightIn
	}
	for id := range inc.NewOut {
		if !out.Exists(id) {
			continue
		}
		out.osdState[id] &^= stateIn
		out.weight[id] = WeightOut
	}
	for id, w := range inc.NewWeight {
		if !out.Exists(id) {
			continue
		}
		out.weight[id] = w
		if w == WeightOut {
			out.osdState[id] &^= stateIn
		}
	}
	for id, epoch := range inc.LostAt {
		if !out.Exists(id) {
			continue
		}
		info := out.info[id]
		info.LostAt = epoch
		out.info[id] = info
	}

	for id, pool := range inc.NewPools {
		out.Pools[id] = pool
		out.PoolName[pool.Name] = id
		if id+1 > out.PoolMax {
			out.PoolMax = id + 1
		}
	}
	for id := range inc.OldPools {
		if p, ok := out.Pools[id]; ok {
			delete(out.PoolName, p.Name)
		}
		delete(out.Pools, id)
	}

	for addr, exp := range inc.NewBlacklist {
		out.Blacklist[addr] = exp
	}
	for addr := range inc.OldBlacklist {
		delete(out.Blacklist, addr)
	}

	if inc.FullCrush != nil {
		out.Crush = inc.FullCrush
	}

	return out, nil
}
