// Package mon implements the cluster-membership/topology monitor: the
// single-goroutine event loop that accepts OSD boot/failure/alive
// reports and admin commands, turns leader-side ones into a pending
// Incremental, proposes it through consensus.Log, and on commit applies,
// persists and distributes the resulting osdmap.Map.
//
// Every exported entry point that touches mon state is only ever called
// from the Monitor's own goroutine (via dispatch from the Run loop);
// there are no locks on Monitor fields because there is only ever one
// writer.
package mon

import (
	"context"
	"net"
	"time"

	"github.com/taodd/ceph-ci/consensus"
	"github.com/taodd/ceph-ci/internal/log"
	"github.com/taodd/ceph-ci/osdmap"
)

// Config holds the tunables a deployment sets at startup; it is the
// in-memory counterpart of the config package's loaded values.
type Config struct {
	Self osdmap.Addr

	// MonTick is how often Tick is invoked by Run's timer.
	MonTick time.Duration

	// DownOutInterval is how long an OSD may stay down before the
	// monitor proposes marking it out.
	DownOutInterval time.Duration

	// MinDownReporters is the number of distinct reporters required
	// before a failure report is actionable (see FailureReport.Prepare).
	MinDownReporters int

	// BulkReweightThreshold is the number of simultaneous weight
	// changes in one pending Incremental that forces an immediate
	// propose instead of waiting for the consensus backoff window.
	BulkReweightThreshold int

	// ProposeBackoff is how long Prepare waits, after the first change
	// lands in an empty pending Incremental, before proposing -- unless
	// ShouldPropose says to go immediately.
	ProposeBackoff time.Duration
}

// DefaultConfig returns the tunables the teacher's own defaults would
// plausibly pick for a small cluster.
func DefaultConfig(self osdmap.Addr) Config {
	return Config{
		Self:                  self,
		MonTick:               5 * time.Second,
		DownOutInterval:       5 * time.Minute,
		MinDownReporters:      1,
		BulkReweightThreshold: 10,
		ProposeBackoff:        1 * time.Second,
	}
}

// Monitor is one replica of the cluster-membership monitor.
type Monitor struct {
	cfg Config

	log       consensus.Log
	kv        consensus.KVStore
	messenger consensus.Messenger
	peers     consensus.PeerStats

	current *osdmap.Map
	pending *pendingAccumulator

	downPendingOut map[osdmap.OSDID]time.Time
	downReporters  map[osdmap.OSDID]map[osdmap.OSDID]time.Time // target -> reporter -> when

	waiting *waitingForMap

	msgCh    chan incoming
	proposeT *time.Timer

	// closed by Run before it returns, so tests can synchronize shutdown.
	done chan struct{}
}

type incoming struct {
	msg   Message
	reply chan<- Message
}

// New builds a Monitor over an existing Map at epoch 0 or later. fsid
// and genesis content are the caller's responsibility (see config.Bootstrap).
func New(cfg Config, initial *osdmap.Map, lg consensus.Log, kv consensus.KVStore, msgr consensus.Messenger, peers consensus.PeerStats) *Monitor {
	return &Monitor{
		cfg:            cfg,
		log:            lg,
		kv:             kv,
		messenger:      msgr,
		peers:          peers,
		current:        initial,
		pending:        newPendingAccumulator(initial),
		downPendingOut: make(map[osdmap.OSDID]time.Time),
		downReporters:  make(map[osdmap.OSDID]map[osdmap.OSDID]time.Time),
		waiting:        newWaitingForMap(),
		msgCh:          make(chan incoming, 64),
		done:           make(chan struct{}),
	}
}

// Current returns the monitor's current, fully-committed Map. Callers
// must treat it as immutable.
func (m *Monitor) Current() *osdmap.Map {
	return m.current
}

// Submit enqueues msg for processing on the Monitor's own goroutine and
// returns the reply msg's Prepare produced, or nil when Preprocess
// handled it or this replica is not the leader. Maps served for a
// GetMapRequest go out through the Messenger, not through this reply.
// It is safe to call Submit from any goroutine.
func (m *Monitor) Submit(ctx context.Context, msg Message) (Message, error) {
	replyCh := make(chan Message, 1)
	select {
	case m.msgCh <- incoming{msg: msg, reply: replyCh}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run is the monitor's event loop. It owns every mutable field on m and
// must be invoked from exactly one goroutine; msg handling, consensus
// commit callbacks and the periodic tick are all serialized through the
// select below, the same way the teacher's Master.Run serializes node
// come/leave/command events through one select loop.
func (m *Monitor) Run(ctx context.Context) (err error) {
	defer running(&ctx, "mon")(&err)
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.MonTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-m.msgCh:
			m.dispatch(ctx, in)

		case notice := <-m.log.Commits():
			m.onCommit(ctx, notice)

		case <-ticker.C:
			m.Tick(ctx)

		case <-m.proposeTimerC():
			m.maybePropose(ctx)
		}
	}
}

func (m *Monitor) proposeTimerC() <-chan time.Time {
	if m.proposeT == nil {
		return nil
	}
	return m.proposeT.C
}

func (m *Monitor) dispatch(ctx context.Context, in incoming) {
	handled := in.msg.Preprocess(m)
	if handled {
		if in.reply != nil {
			in.reply <- nil
		}
		return
	}

	if !m.log.IsLeader() {
		// non-leader replicas only ever Preprocess; anything needing
		// Prepare is the leader's job and gets dropped here, same as
		// the source monitor silently ignores writes routed to a peon.
		if in.reply != nil {
			in.reply <- nil
		}
		return
	}

	reply := in.msg.Prepare(m, m.pending.inc)
	if in.reply != nil {
		in.reply <- reply
	}

	if m.pending.ShouldPropose(m.cfg) {
		m.proposeNow(ctx)
	} else if m.proposeT == nil {
		m.proposeT = time.NewTimer(m.cfg.ProposeBackoff)
	}
}

func (m *Monitor) maybePropose(ctx context.Context) {
	m.proposeT = nil
	if !m.pending.inc.Empty() {
		m.proposeNow(ctx)
	}
}

func (m *Monitor) proposeNow(ctx context.Context) {
	if m.proposeT != nil {
		m.proposeT.Stop()
		m.proposeT = nil
	}
	if m.pending.inc.Empty() {
		return
	}
	buf, err := m.pending.inc.Encode()
	if err != nil {
		log.Errorf(ctx, "mon: failed to encode pending increment: %s", err)
		return
	}
	if _, err := m.log.Propose(ctx, buf); err != nil {
		log.Errorf(ctx, "mon: propose failed: %s", err)
	}
}

func (m *Monitor) onCommit(ctx context.Context, notice consensus.CommitNotice) {
	if notice.Err != nil {
		log.Warningf(ctx, "mon: proposal aborted: %s", notice.Err)
		return
	}

	next, err := osdmap.Apply(m.current, m.pending.inc)
	if err != nil {
		// Never silently desync: a commit we cannot apply means our
		// local view of "current" has drifted from the replicated
		// log's, which is a correctness bug, not a recoverable event.
		log.Fatalf(ctx, "mon: commit %d: cannot apply pending increment: %s", notice.Version, err)
		return
	}

	if err := persistIncrement(m.kv, m.pending.inc, next); err != nil {
		log.Fatalf(ctx, "mon: commit %d: persist failed: %s", notice.Version, err)
		return
	}

	m.current = next
	m.pending = newPendingAccumulator(next)
	m.afterCommit(ctx)
	m.distributeLatest(ctx)
}

// afterCommit clears bookkeeping (down-report tallies, down-pending-out
// deadlines) for any OSD whose state the just-applied increment settled,
// so stale entries don't leak across epochs.
func (m *Monitor) afterCommit(ctx context.Context) {
	for id := range m.downPendingOut {
		if !m.current.IsDown(id) {
			delete(m.downPendingOut, id)
		}
	}
	for id := range m.downReporters {
		if m.current.IsUp(id) {
			delete(m.downReporters, id)
		}
	}
}

func localAddr(host string, port uint16) osdmap.Addr {
	return osdmap.Addr{IP: net.ParseIP(host), Port: port}
}
