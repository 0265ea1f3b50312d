package mon

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taodd/ceph-ci/consensus"
	"github.com/taodd/ceph-ci/osdmap"
)

func testFSID() osdmap.FSID {
	var f osdmap.FSID
	copy(f[:], []byte("testcluster123456"))
	return f
}

func newTestMonitor(t *testing.T) (*Monitor, *consensus.MemLog, context.Context, context.CancelFunc) {
	self := osdmap.Addr{IP: net.ParseIP("127.0.0.1"), Port: 6789}
	cfg := DefaultConfig(self)
	cfg.MonTick = time.Hour // disable automatic ticking in tests; call Tick directly
	cfg.ProposeBackoff = time.Millisecond

	initial := osdmap.New(testFSID())
	lg := consensus.NewMemLog(self)
	kv := consensus.NewMemKV()
	msgr := &consensus.MemMessenger{}

	m := New(cfg, initial, lg, kv, msgr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)

	return m, lg, ctx, cancel
}

func waitCommitted(t *testing.T, m *Monitor, wantEpoch osdmap.Epoch) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if m.Current().Epoch >= wantEpoch {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for epoch %d, have %d", wantEpoch, m.Current().Epoch)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBootMarksUpAndIn(t *testing.T) {
	m, _, ctx, cancel := newTestMonitor(t)
	defer cancel()

	addr := osdmap.Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800}
	_, err := m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)

	waitCommitted(t, m, 1)
	require.True(t, m.Current().IsUp(0))
	require.True(t, m.Current().IsIn(0))
}

func TestBootIsIdempotent(t *testing.T) {
	m, _, ctx, cancel := newTestMonitor(t)
	defer cancel()

	addr := osdmap.Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800}
	_, err := m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)
	waitCommitted(t, m, 1)

	// replaying the identical boot must not produce a second epoch
	_, err = m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, osdmap.Epoch(1), m.Current().Epoch)
}

func TestFailureReportMarksDownThenOutOnTick(t *testing.T) {
	m, _, ctx, cancel := newTestMonitor(t)
	defer cancel()

	addr := osdmap.Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800}
	_, err := m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)
	waitCommitted(t, m, 1)

	_, err = m.Submit(ctx, &FailureReport{Reporter: 1, Target: 0, Epoch: 1})
	require.NoError(t, err)
	waitCommitted(t, m, 2)
	require.True(t, m.Current().IsDown(0))
	require.True(t, m.Current().IsIn(0)) // down-but-in until grace period elapses

	// force the grace deadline into the past and let Tick stage the out.
	done := make(chan struct{})
	go func() {
		m.msgCh <- incoming{msg: &tickNow{}, reply: nil}
		close(done)
	}()
	<-done
	waitCommitted(t, m, 3)
	require.True(t, m.Current().IsOut(0))
}

// tickNow is a test-only Message whose Preprocess forces downPendingOut
// deadlines into the past and runs Tick synchronously on the monitor
// goroutine, avoiding a real time.Sleep in the test.
type tickNow struct{ base }

func (t *tickNow) Preprocess(m *Monitor) bool {
	for id := range m.downPendingOut {
		m.downPendingOut[id] = time.Now().Add(-time.Second)
	}
	m.Tick(context.Background())
	return true
}

func TestPoolAndSnapLifecycle(t *testing.T) {
	m, _, ctx, cancel := newTestMonitor(t)
	defer cancel()

	_, err := m.Submit(ctx, &PoolCreateCmd{ID: 1, Pool: &osdmap.Pool{Name: "data", Size: 3}})
	require.NoError(t, err)
	waitCommitted(t, m, 1)
	require.NotNil(t, m.Current().GetPool(1))

	_, err = m.Submit(ctx, &SnapCreateCmd{PoolID: 1, Name: "snap1", Stamp: 100})
	require.NoError(t, err)
	waitCommitted(t, m, 2)
	require.True(t, m.Current().GetPool(1).HasSnapName("snap1"))

	_, err = m.Submit(ctx, &SnapDeleteCmd{PoolID: 1, Name: "snap1"})
	require.NoError(t, err)
	waitCommitted(t, m, 3)
	require.False(t, m.Current().GetPool(1).HasSnapName("snap1"))
}

func TestFailureReportThenRebootBringsOSDBackUp(t *testing.T) {
	m, _, ctx, cancel := newTestMonitor(t)
	defer cancel()

	addr := osdmap.Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800}
	_, err := m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)
	waitCommitted(t, m, 1)

	// a failure report against an up OSD marks it down in the next
	// epoch; a fresh boot from the same address then brings it back up.
	_, err = m.Submit(ctx, &FailureReport{Reporter: 1, Target: 0, Epoch: 1})
	require.NoError(t, err)
	waitCommitted(t, m, 2)
	require.True(t, m.Current().IsDown(0))

	_, err = m.Submit(ctx, &BootRequest{ID: 0, Addr: addr})
	require.NoError(t, err)
	waitCommitted(t, m, 3)
	require.True(t, m.Current().IsUp(0))
}
