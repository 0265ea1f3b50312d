package consensus

import (
	"context"
	"fmt"
	"sync"

	"github.com/taodd/ceph-ci/osdmap"
)

// MemLog is a single-replica, always-leader Log test double. It commits
// every proposal immediately, in submission order, on its own goroutine
// -- enough to drive the monitor's propose/commit lifecycle in tests
// without a real Paxos/Raft implementation.
type MemLog struct {
	self osdmap.Addr

	mu      sync.Mutex
	nextID  ProposalID
	version uint64
	inFlight bool

	commits chan CommitNotice

	// FailNext, if set, makes the next Propose's commit arrive with
	// this error instead of succeeding; it is cleared after firing.
	FailNext error
}

// NewMemLog returns a MemLog that reports self as the (only) leader.
func NewMemLog(self osdmap.Addr) *MemLog {
	return &MemLog{
		self:    self,
		commits: make(chan CommitNotice, 1),
	}
}

func (l *MemLog) IsLeader() bool { return true }

func (l *MemLog) Leader() (osdmap.Addr, bool) { return l.self, true }

func (l *MemLog) Propose(ctx context.Context, data []byte) (ProposalID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight {
		return 0, fmt.Errorf("consensus: proposal already in flight")
	}
	l.nextID++
	id := l.nextID
	l.inFlight = true

	notice := CommitNotice{ID: id}
	if l.FailNext != nil {
		notice.Err = l.FailNext
		l.FailNext = nil
	} else {
		l.version++
		notice.Version = l.version
	}

	go func() {
		l.commits <- notice
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}()

	return id, nil
}

func (l *MemLog) Commits() <-chan CommitNotice { return l.commits }
