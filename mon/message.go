package mon

import "github.com/taodd/ceph-ci/osdmap"

// Message is one request the monitor's event loop can receive, from an
// OSD, a peer monitor, or an admin client.
//
// Preprocess runs on every replica, leader or not, and must be
// side-effect-free with respect to cluster state: it may only read
// m.Current() and reply with information already known. It returns
// true when it fully handled the message (nothing to propose).
//
// Prepare is only ever invoked on the leader, after Preprocess returned
// false. It may stage changes into pending and returns a reply to give
// the submitter (often nil -- the effect becomes visible once the
// epoch commits, not synchronously).
type Message interface {
	Preprocess(m *Monitor) bool
	Prepare(m *Monitor, pending *osdmap.Incremental) Message
}

// base supplies no-op Preprocess/Prepare defaults for concrete messages
// to embed; it has no fields, so it is safe to embed by value.
type base struct{}

func (base) Preprocess(m *Monitor) bool                             { return false }
func (base) Prepare(m *Monitor, pending *osdmap.Incremental) Message { return nil }
