package mon

import (
	"fmt"

	"github.com/taodd/ceph-ci/consensus"
	"github.com/taodd/ceph-ci/osdmap"
)

const (
	nsIncremental = "osdmap"
	nsFull        = "osdmap_full"
)

// LogGapError means the local KV store is missing either an increment
// or a full map for an epoch that must exist -- invariant 7 of the map
// history (every epoch has at least one of the two persisted). Seeing
// this means local storage has been tampered with or corrupted; there
// is no safe way to keep serving maps, so callers are expected to treat
// it as fatal, not retry it.
type LogGapError struct {
	Epoch osdmap.Epoch
}

func (e *LogGapError) Error() string {
	return fmt.Sprintf("mon: no increment or full map persisted for epoch %d", e.Epoch)
}

// persistIncrement writes the increment that produced next, and, at
// epoch 1, every fullMapInterval epochs, or whenever the increment
// carries a FullCrush payload, a full map snapshot alongside it --
// mirroring Ceph's periodic full-map checkpointing so replay after a
// restart never has to walk an unbounded increment chain.
const fullMapInterval = 50

func persistIncrement(kv consensus.KVStore, inc *osdmap.Incremental, next *osdmap.Map) error {
	incBuf, err := inc.Encode()
	if err != nil {
		return err
	}
	if err := kv.Put(nsIncremental, epochKey(next.Epoch), incBuf); err != nil {
		return err
	}

	if next.Epoch == 1 || next.Epoch%fullMapInterval == 0 || inc.FullCrush != nil {
		fullBuf, err := next.Encode()
		if err != nil {
			return err
		}
		if err := kv.Put(nsFull, epochKey(next.Epoch), fullBuf); err != nil {
			return err
		}
	}
	return nil
}

// LoadLatest rebuilds the most recent full map and chains any
// increments persisted after it, checking invariant 7 as it goes. It is
// the counterpart to persistIncrement, called once at startup before
// Run begins serving requests.
func LoadLatest(kv consensus.KVStore) (*osdmap.Map, error) {
	fullKeys, err := kv.Keys(nsFull)
	if err != nil {
		return nil, err
	}
	if len(fullKeys) == 0 {
		return nil, fmt.Errorf("mon: no full map snapshot found; cluster must be bootstrapped first")
	}

	var latestFullEpoch osdmap.Epoch
	for _, k := range fullKeys {
		e, err := parseEpochKey(k)
		if err != nil {
			return nil, err
		}
		if e > latestFullEpoch {
			latestFullEpoch = e
		}
	}

	buf, ok, err := kv.Get(nsFull, epochKey(latestFullEpoch))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &LogGapError{Epoch: latestFullEpoch}
	}
	cur := &osdmap.Map{}
	if err := cur.Decode(buf); err != nil {
		return nil, err
	}

	incKeys, err := kv.Keys(nsIncremental)
	if err != nil {
		return nil, err
	}
	var maxIncEpoch osdmap.Epoch
	for _, k := range incKeys {
		e, err := parseEpochKey(k)
		if err != nil {
			return nil, err
		}
		if e > maxIncEpoch {
			maxIncEpoch = e
		}
	}

	for e := cur.Epoch + 1; e <= maxIncEpoch; e++ {
		incBuf, ok, err := kv.Get(nsIncremental, epochKey(e))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &LogGapError{Epoch: e}
		}
		var inc osdmap.Incremental
		if err := inc.Decode(incBuf); err != nil {
			return nil, err
		}
		cur, err = osdmap.Apply(cur, &inc)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func parseEpochKey(k string) (osdmap.Epoch, error) {
	var v uint32
	_, err := fmt.Sscanf(k, "%010d", &v)
	if err != nil {
		return 0, fmt.Errorf("mon: malformed epoch key %q: %w", k, err)
	}
	return osdmap.Epoch(v), nil
}
