package mon

import (
	"context"
	"errors"
	"fmt"

	"github.com/someonegg/gocontainer/rbuf"

	"github.com/taodd/ceph-ci/internal/log"
	"github.com/taodd/ceph-ci/osdmap"
)

// GetMapRequest asks for the map at FromEpoch (full if zero, else an
// incremental chain up to the monitor's current epoch). It is always
// handled in Preprocess: serving a map never changes cluster state.
type GetMapRequest struct {
	base
	From osdmap.Addr
	FromEpoch osdmap.Epoch
}

func (r *GetMapRequest) Preprocess(m *Monitor) bool {
	if r.FromEpoch > m.current.Epoch {
		m.waiting.Add(r.FromEpoch, r.From)
		return true
	}
	m.sendMapRange(context.Background(), r.From, r.FromEpoch)
	return true
}

// waitingForMap holds addresses waiting for an epoch the monitor has
// not committed yet. It is consulted after every commit rather than
// polled, so a waiter gets served on the same tick its epoch becomes
// available.
type waitingForMap struct {
	byEpoch map[osdmap.Epoch][]osdmap.Addr
}

func newWaitingForMap() *waitingForMap {
	return &waitingForMap{byEpoch: make(map[osdmap.Epoch][]osdmap.Addr)}
}

func (w *waitingForMap) Add(epoch osdmap.Epoch, addr osdmap.Addr) {
	w.byEpoch[epoch] = append(w.byEpoch[epoch], addr)
}

// Drain removes and returns every (epoch, addr) pair now satisfiable at
// upTo, i.e. epoch <= upTo.
func (w *waitingForMap) Drain(upTo osdmap.Epoch) map[osdmap.Epoch][]osdmap.Addr {
	out := make(map[osdmap.Epoch][]osdmap.Addr)
	for epoch, addrs := range w.byEpoch {
		if epoch <= upTo {
			out[epoch] = addrs
			delete(w.byEpoch, epoch)
		}
	}
	return out
}

// sendFull encodes the monitor's current full map and sends it to addr.
func (m *Monitor) sendFull(ctx context.Context, addr osdmap.Addr) {
	buf, err := m.current.Encode()
	if err != nil {
		log.Errorf(ctx, "mon: encode full map epoch %d: %s", m.current.Epoch, err)
		return
	}
	m.send(ctx, addr, buf)
}

// sendIncremental replays the persisted increments from from+1 through
// the monitor's current epoch, assembling them into one byte stream
// before sending. The ring buffer absorbs the chain without repeated
// reallocation the way the teacher's connection layer absorbs inbound
// network reads into rxbuf.
func (m *Monitor) sendIncremental(ctx context.Context, addr osdmap.Addr, from osdmap.Epoch) error {
	var rb rbuf.RingBuf
	for e := from + 1; e <= m.current.Epoch; e++ {
		buf, ok, err := m.kv.Get(nsIncremental, epochKey(e))
		if err != nil {
			return err
		}
		if !ok {
			return &LogGapError{Epoch: e}
		}
		rb.Write(buf)
	}
	payload := make([]byte, rb.Len())
	if _, err := rb.Read(payload); err != nil {
		return err
	}
	m.send(ctx, addr, payload)
	return nil
}

// sendMapRange serves either a full map or an incremental chain. A
// missing increment (LogGapError) is fatal; any other failure to read
// the chain falls back to sending the full map.
func (m *Monitor) sendMapRange(ctx context.Context, addr osdmap.Addr, fromEpoch osdmap.Epoch) {
	if fromEpoch == 0 {
		m.sendFull(ctx, addr)
		return
	}
	if err := m.sendIncremental(ctx, addr, fromEpoch); err != nil {
		var gap *LogGapError
		if errors.As(err, &gap) {
			log.Fatalf(ctx, "mon: incremental send to %s from epoch %d: %s", addr, fromEpoch, err)
			return
		}
		log.Warningf(ctx, "mon: incremental send to %s from epoch %d failed (%s), falling back to full map", addr, fromEpoch, err)
		m.sendFull(ctx, addr)
	}
}

// sendLatest sends the current epoch's increment alone -- the common
// case of an OSD that is only one epoch behind.
func (m *Monitor) sendLatest(ctx context.Context, addr osdmap.Addr) {
	m.sendMapRange(ctx, addr, m.current.Epoch-1)
}

// bcastLatestOSD sends the latest increment to every currently-up OSD.
func (m *Monitor) bcastLatestOSD(ctx context.Context) {
	for _, id := range m.current.GetUpOSDs() {
		addr, ok := m.current.GetAddr(id)
		if !ok {
			continue
		}
		m.sendLatest(ctx, addr)
	}
}

// bcastFullOSD sends a full map to every currently-up OSD. Nothing in
// the monitor calls it: commits, including FullCrush replacements, are
// broadcast as increments by distributeLatest.
func (m *Monitor) bcastFullOSD(ctx context.Context) {
	for _, id := range m.current.GetUpOSDs() {
		addr, ok := m.current.GetAddr(id)
		if !ok {
			continue
		}
		m.sendFull(ctx, addr)
	}
}

// distributeLatest is called once per commit: it serves any address
// that was waiting for an epoch that just became available, then
// broadcasts the new increment to the cluster.
func (m *Monitor) distributeLatest(ctx context.Context) {
	for epoch, addrs := range m.waiting.Drain(m.current.Epoch) {
		for _, addr := range addrs {
			m.sendMapRange(ctx, addr, epoch)
		}
	}
	m.bcastLatestOSD(ctx)
}

func (m *Monitor) send(ctx context.Context, addr osdmap.Addr, payload []byte) {
	if m.messenger == nil {
		return
	}
	if err := m.messenger.Send(ctx, addr, payload); err != nil {
		log.Warningf(ctx, "mon: send to %s failed: %s", addr, err)
	}
}

func epochKey(e osdmap.Epoch) string {
	return fmt.Sprintf("%010d", uint32(e))
}
