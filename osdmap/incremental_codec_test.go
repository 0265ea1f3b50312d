package osdmap

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncrementalEncodeDecodeRoundtrip(t *testing.T) {
	m0 := New(testFSID())
	inc := NewIncremental(m0)
	inc.AllocOSD(3)
	inc.MarkUp(3, Addr{IP: net.ParseIP("10.0.0.5"), Port: 6801})
	inc.MarkIn(3)
	inc.SetWeight(3, Weight(0x8000))
	inc.UpsertPool(2, &Pool{Name: "metadata", Size: 2})
	inc.Blacklist("10.0.0.9:0", 999)

	buf, err := inc.Encode()
	require.NoError(t, err)

	var inc2 Incremental
	require.NoError(t, inc2.Decode(buf))

	require.Equal(t, inc.Epoch, inc2.Epoch)
	require.Equal(t, inc.FSID, inc2.FSID)
	require.Equal(t, inc.NewUp[3].Port, inc2.NewUp[3].Port)
	require.True(t, inc2.NewIn[3])
	require.Equal(t, Weight(0x8000), inc2.NewWeight[3])
	require.Equal(t, "metadata", inc2.NewPools[2].Name)
	require.Equal(t, int64(999), inc2.NewBlacklist["10.0.0.9:0"])
}
