package config

import "github.com/taodd/ceph-ci/osdmap"

// Bootstrap builds the genesis map (epoch 0) a brand new cluster starts
// from: no OSDs, no pools, an empty CRUSH blob placeholder waiting for
// the first real CRUSH map to be pushed in by an admin command.
func Bootstrap(fsid osdmap.FSID) *osdmap.Map {
	m := osdmap.New(fsid)
	m.Crush = &osdmap.CrushBlob{Version: 0, Data: nil}
	return m
}
