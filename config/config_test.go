package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taodd/ceph-ci/osdmap"
)

func TestFromFlags(t *testing.T) {
	cfg, err := FromFlags([]string{"-listen", "127.0.0.1:6790", "-cluster", "testcluster"})
	require.NoError(t, err)
	require.Equal(t, "testcluster", cfg.ClusterName)
	require.Equal(t, "127.0.0.1", cfg.ListenAddr)
	require.Equal(t, uint16(6790), cfg.ListenPort)
}

func TestResolveFSIDGenerated(t *testing.T) {
	cfg := &Config{}
	fsid1, err := cfg.ResolveFSID()
	require.NoError(t, err)
	fsid2, err := cfg.ResolveFSID()
	require.NoError(t, err)
	require.NotEqual(t, fsid1, fsid2) // each call with no fsid configured mints a fresh one
}

func TestResolveFSIDFixed(t *testing.T) {
	cfg := &Config{FSIDHex: "0123456789abcdef0123456789abcdef"[:32]}
	fsid, err := cfg.ResolveFSID()
	require.NoError(t, err)
	require.Equal(t, "0123456789abcdef0123456789abcdef", fsid.String())
}

func TestBootstrap(t *testing.T) {
	fsid := osdmap.FSID{1, 2, 3}
	m := Bootstrap(fsid)
	require.Equal(t, fsid, m.FSID)
	require.Equal(t, 0, len(m.GetAllOSDs()))
}
