// Package consensus models the external collaborators the monitor relies
// on but does not itself implement: the replicated log that decides
// proposal order and leadership, the durable key/value store each
// replica uses for its local copy of map state, the messenger used to
// talk to peer monitors and to OSD/client/MDS peers, and the narrow
// slices of the peer subsystems (PG stats, MDS beacons) the monitor
// consumes. Each is a small interface with an in-memory test double;
// a real deployment wires a Paxos/Raft log and a gosqlite-backed store
// behind the same interfaces.
package consensus

import (
	"context"

	"github.com/taodd/ceph-ci/osdmap"
)

// ProposalID identifies one in-flight Propose call.
type ProposalID uint64

// CommitNotice is delivered on Log.Commits() once a proposal's fate is
// known. Version is the log position the proposal landed at when Err is
// nil. The monitor does not check ID: it expects one proposal in flight
// at a time and applies its current pending Incremental on every
// successful notice.
type CommitNotice struct {
	ID      ProposalID
	Version uint64
	Err     error
}

// Log is the replicated decision log underlying the monitor cluster. It
// is deliberately minimal: the monitor does not get to choose proposal
// ordering or leadership, only to propose and to be told the outcome.
type Log interface {
	// IsLeader reports whether this replica may currently call Propose.
	// Preprocess-only handling must still work correctly on non-leader
	// replicas; Prepare is only ever invoked when IsLeader is true.
	IsLeader() bool

	// Leader returns the address of the current leader, if known.
	Leader() (osdmap.Addr, bool)

	// Propose submits data for replication. It returns immediately with
	// an id; the outcome arrives later on Commits(). Proposals are
	// serialized: a second Propose before the first commits is an error.
	Propose(ctx context.Context, data []byte) (ProposalID, error)

	// Commits is the channel commit/abort notices are delivered on. All
	// sends happen from a single internal goroutine per Log instance, so
	// a consumer that only ever reads from one goroutine needs no
	// additional synchronization.
	Commits() <-chan CommitNotice
}

// KVStore is the durable local store each replica keeps its epoch
// history in. Keys are scoped by namespace so the monitor can keep
// "osdmap" incrementals and "osdmap_full" snapshots apart without key
// collisions, mirroring how the teacher's storage backends scope rows
// by table rather than by prefix.
type KVStore interface {
	Get(ns, key string) ([]byte, bool, error)
	Put(ns, key string, val []byte) error
	Delete(ns, key string) error

	// Keys returns all keys currently stored in ns. Used at startup to
	// discover the oldest/newest epoch on disk.
	Keys(ns string) ([]string, error)

	Close() error
}

// Messenger sends encoded monitor traffic to a peer address. It stands
// in for the full messenger/peer-link subsystem: connection management,
// retries and wire framing are out of scope here, same as the teacher
// treats its node dial/redial machinery as a collaborator the map
// components never reach into directly.
type Messenger interface {
	Send(ctx context.Context, to osdmap.Addr, payload []byte) error
}

// PeerStats is the narrow slice of PG/MDS peer-reported state the
// monitor consumes when deciding whether an OSD report corroborates or
// contradicts another's failure claim. A real deployment backs this
// with the PG and MDS monitors; tests back it with a static table.
type PeerStats interface {
	// RecentlyContacted reports whether id was seen alive, from any
	// peer's point of view, at or after the given epoch.
	RecentlyContacted(id osdmap.OSDID, sinceEpoch osdmap.Epoch) bool
}
