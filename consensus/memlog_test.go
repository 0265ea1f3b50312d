package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taodd/ceph-ci/osdmap"
)

func TestMemLogCommits(t *testing.T) {
	l := NewMemLog(osdmap.Addr{})
	id, err := l.Propose(context.Background(), []byte("hello"))
	require.NoError(t, err)

	notice := <-l.Commits()
	require.Equal(t, id, notice.ID)
	require.NoError(t, notice.Err)
	require.Equal(t, uint64(1), notice.Version)
}

func TestMemLogFailNext(t *testing.T) {
	l := NewMemLog(osdmap.Addr{})
	l.FailNext = context.DeadlineExceeded
	_, err := l.Propose(context.Background(), []byte("x"))
	require.NoError(t, err)

	notice := <-l.Commits()
	require.Error(t, notice.Err)
}

func TestMemKV(t *testing.T) {
	kv := NewMemKV()
	require.NoError(t, kv.Put("osdmap", "1", []byte("inc1")))
	v, ok, err := kv.Get("osdmap", "1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("inc1"), v)

	_, ok, _ = kv.Get("osdmap", "2")
	require.False(t, ok)

	keys, err := kv.Keys("osdmap")
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, keys)
}
