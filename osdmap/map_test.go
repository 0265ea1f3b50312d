package osdmap

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func testFSID() FSID {
	var f FSID
	copy(f[:], []byte("0123456789abcdef"))
	return f
}

func TestApplyBoot(t *testing.T) {
	m0 := New(testFSID())
	require.Equal(t, Epoch(0), m0.Epoch)

	inc := NewIncremental(m0)
	inc.AllocOSD(0)
	inc.MarkUp(0, Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800})
	inc.MarkIn(0)

	m1, err := Apply(m0, inc)
	require.NoError(t, err)
	require.Equal(t, Epoch(1), m1.Epoch)
	require.True(t, m1.IsUp(0))
	require.True(t, m1.IsIn(0))
	require.Equal(t, WeightIn, m1.GetWeight(0))

	// m0 must stay untouched
	require.False(t, m0.Exists(0))
}

func TestApplyEpochMismatch(t *testing.T) {
	m0 := New(testFSID())
	inc := NewIncremental(m0)
	inc.Epoch = 5

	_, err := Apply(m0, inc)
	require.Error(t, err)
}

func TestApplyDownOut(t *testing.T) {
	m0 := New(testFSID())
	inc := NewIncremental(m0)
	inc.AllocOSD(0)
	inc.MarkUp(0, Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800})
	inc.MarkIn(0)
	m1, err := Apply(m0, inc)
	require.NoError(t, err)

	inc2 := NewIncremental(m1)
	inc2.MarkDown(0)
	m2, err := Apply(m1, inc2)
	require.NoError(t, err)
	require.True(t, m2.IsDown(0))
	require.True(t, m2.IsIn(0)) // down != out

	inc3 := NewIncremental(m2)
	inc3.MarkOut(0)
	m3, err := Apply(m2, inc3)
	require.NoError(t, err)
	require.True(t, m3.IsOut(0))
	require.Equal(t, WeightOut, m3.GetWeight(0))
}

func TestPoolSnapLifecycle(t *testing.T) {
	m0 := New(testFSID())
	inc := NewIncremental(m0)
	pool := &Pool{Name: "data", Size: 3, PgNum: 64, PgpNum: 64}
	inc.UpsertPool(1, pool)
	m1, err := Apply(m0, inc)
	require.NoError(t, err)

	p := m1.GetPool(1).Clone()
	id := p.AddSnap("snap1", 1000)
	require.True(t, p.HasSnapName("snap1"))

	inc2 := NewIncremental(m1)
	inc2.UpsertPool(1, p)
	m2, err := Apply(m1, inc2)
	require.NoError(t, err)
	require.True(t, m2.GetPool(1).HasSnapName("snap1"))

	p2 := m2.GetPool(1).Clone()
	p2.RemoveSnapByID(id)
	inc3 := NewIncremental(m2)
	inc3.UpsertPool(1, p2)
	m3, err := Apply(m2, inc3)
	require.NoError(t, err)
	require.False(t, m3.GetPool(1).HasSnapName("snap1"))
	require.True(t, m3.GetPool(1).RemovedSnaps.Contains(uint64(id)))
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	m0 := New(testFSID())
	inc := NewIncremental(m0)
	inc.AllocOSD(0)
	inc.MarkUp(0, Addr{IP: net.ParseIP("10.0.0.1"), Port: 6800, Nonce: 7})
	inc.MarkIn(0)
	inc.UpsertPool(1, &Pool{Name: "data", Size: 3, PgNum: 8})
	inc.Blacklist("10.0.0.9:0", 12345)
	inc.FullCrush = &CrushBlob{Version: 1, Checksum: 42, Data: []byte("crushmap")}
	m1, err := Apply(m0, inc)
	require.NoError(t, err)

	buf, err := m1.Encode()
	require.NoError(t, err)

	var m2 Map
	require.NoError(t, m2.Decode(buf))

	require.Equal(t, m1.Epoch, m2.Epoch)
	require.Equal(t, m1.FSID, m2.FSID)
	require.True(t, m2.IsUp(0))
	require.True(t, m2.IsIn(0))
	require.Equal(t, "data", m2.GetPool(1).Name)
	require.Equal(t, int64(12345), m2.Blacklist["10.0.0.9:0"])
	require.Equal(t, m1.Crush.Data, m2.Crush.Data)
}

func TestIntervalSet(t *testing.T) {
	var s IntervalSet
	s.Insert(5)
	s.Insert(6)
	s.Insert(7)
	s.Insert(10)
	require.True(t, s.Contains(6))
	require.False(t, s.Contains(8))
	require.Equal(t, 4, s.Len())

	s.Insert(8)
	s.Insert(9)
	require.Equal(t, 6, s.Len())
	require.True(t, s.Contains(9))
}
