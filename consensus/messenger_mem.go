package consensus

import (
	"context"
	"sync"

	"github.com/taodd/ceph-ci/osdmap"
)

// MemMessenger records every Send call instead of putting bytes on the
// wire; it is the test double for Messenger.
type MemMessenger struct {
	mu   sync.Mutex
	sent []MemSend
}

// MemSend is one recorded Send call.
type MemSend struct {
	To      osdmap.Addr
	Payload []byte
}

func (m *MemMessenger) Send(ctx context.Context, to osdmap.Addr, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.sent = append(m.sent, MemSend{To: to, Payload: cp})
	return nil
}

// Sent returns a snapshot of everything sent so far.
func (m *MemMessenger) Sent() []MemSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MemSend(nil), m.sent...)
}

// StaticPeerStats is a PeerStats test double backed by a fixed table.
type StaticPeerStats struct {
	Recent map[osdmap.OSDID]osdmap.Epoch
}

func (s StaticPeerStats) RecentlyContacted(id osdmap.OSDID, sinceEpoch osdmap.Epoch) bool {
	e, ok := s.Recent[id]
	return ok && e >= sinceEpoch
}
