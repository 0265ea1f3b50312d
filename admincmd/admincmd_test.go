package admincmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundtrip(t *testing.T) {
	req := &Request{Op: OpPoolCreate, PoolName: "data", PoolSize: 3, PgNum: 64}
	buf, err := req.Encode()
	require.NoError(t, err)

	got, err := DecodeRequest(buf)
	require.NoError(t, err)
	require.Equal(t, req.Op, got.Op)
	require.Equal(t, req.PoolName, got.PoolName)
	require.Equal(t, req.PgNum, got.PgNum)
}

func TestReplyRoundtrip(t *testing.T) {
	rep := &Reply{OK: true, Epoch: 42, Summary: "ok"}
	buf, err := rep.Encode()
	require.NoError(t, err)

	got, err := DecodeReply(buf)
	require.NoError(t, err)
	require.True(t, got.OK)
	require.Equal(t, uint32(42), got.Epoch)
	require.Equal(t, "ok", got.Summary)
}
