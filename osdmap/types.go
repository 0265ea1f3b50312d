// Copyright (C) 2017  Nexedi SA and Contributors.
//                     Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

// Package osdmap represents the cluster topology map: which storage nodes
// exist, their up/down and in/out state, the pools and their snapshots, and
// the opaque CRUSH placement blob.
package osdmap

import (
	"fmt"
	"net"
)

// Epoch is the version number of the cluster topology.
type Epoch uint32

// OSDID identifies a storage node slot. Valid ids are in [0, MaxOSD).
type OSDID int32

// Weight is the data-placement weight of an OSD.
type Weight uint32

const (
	// WeightIn is the nominal weight of a normally-participating OSD.
	WeightIn Weight = 0x10000
	// WeightOut marks an OSD as evicted from data placement.
	WeightOut Weight = 0
)

// FSID identifies a cluster instance; map operations across different
// fsids must never be mixed.
type FSID [16]byte

func (f FSID) String() string {
	return fmt.Sprintf("%x", f[:])
}

// Addr is a storage node network address.
type Addr struct {
	IP   net.IP
	Port uint16
	Nonce uint32 // distinguishes successive boots of the same IP:port
}

func (a Addr) String() string {
	if a.IP == nil {
		return "-"
	}
	return fmt.Sprintf("%s:%d/%d", a.IP, a.Port, a.Nonce)
}

func (a Addr) Equal(b Addr) bool {
	return a.IP.Equal(b.IP) && a.Port == b.Port && a.Nonce == b.Nonce
}

// OSDInfo tracks the per-OSD history the map carries across epochs.
type OSDInfo struct {
	UpFrom           Epoch
	DownAt           Epoch
	LastCleanFirst   Epoch
	LastCleanLast    Epoch
	LostAt           Epoch
}

// SnapID identifies a snapshot within a pool's namespace.
type SnapID uint64

// PoolType distinguishes a pool's redundancy scheme.
type PoolType int

const (
	PoolReplicated PoolType = iota
	PoolErasure
)

// Snap describes one named, time-stamped snapshot of a pool.
type Snap struct {
	Name  string
	Stamp int64 // unix seconds
}

// Pool is a named container of objects with its own placement and
// snapshot state.
type Pool struct {
	Name       string
	Type       PoolType
	Size       int // replica count
	CrushRuleset int
	PgNum      uint32
	PgpNum     uint32
	LpgNum     uint32
	LpgpNum    uint32
	LastChange Epoch

	SnapSeq      SnapID
	RemovedSnaps IntervalSet
	Snaps        map[SnapID]Snap
	SnapEpoch    Epoch
}

// Clone returns a deep copy of the pool, suitable for copy-on-write into a
// pending increment.
func (p *Pool) Clone() *Pool {
	cp := *p
	cp.RemovedSnaps = p.RemovedSnaps.Clone()
	cp.Snaps = make(map[SnapID]Snap, len(p.Snaps))
	for id, s := range p.Snaps {
		cp.Snaps[id] = s
	}
	return &cp
}

// HasSnapName reports whether a snap by this name exists in the pool.
func (p *Pool) HasSnapName(name string) bool {
	for _, s := range p.Snaps {
		if s.Name == name {
			return true
		}
	}
	return false
}

// SnapIDByName returns the id of the snap with this name, or ok=false.
func (p *Pool) SnapIDByName(name string) (SnapID, bool) {
	for id, s := range p.Snaps {
		if s.Name == name {
			return id, true
		}
	}
	return 0, false
}

// AddSnap records a new named snapshot, bumping SnapSeq.
func (p *Pool) AddSnap(name string, stamp int64) SnapID {
	p.SnapSeq++
	id := p.SnapSeq
	if p.Snaps == nil {
		p.Snaps = make(map[SnapID]Snap)
	}
	p.Snaps[id] = Snap{Name: name, Stamp: stamp}
	return id
}

// RemoveSnapByID marks id removed: it deletes the Snaps entry, records id
// in RemovedSnaps and advances SnapSeq to at least id, per invariant 4 of
// the data model.
func (p *Pool) RemoveSnapByID(id SnapID) {
	delete(p.Snaps, id)
	p.RemovedSnaps.Insert(uint64(id))
	if id > p.SnapSeq {
		p.SnapSeq = id
	}
}

// CrushBlob is the opaque, versioned, checksummed placement configuration.
// It is large (tens of KB) and is always copied by value on replacement,
// never mutated in place -- mirroring how the teacher wraps bulk object
// data in a byte buffer rather than aliasing it.
type CrushBlob struct {
	Version  uint64
	Checksum uint32
	Data     []byte
}

// Clone returns an independent copy of the blob.
func (c *CrushBlob) Clone() *CrushBlob {
	if c == nil {
		return nil
	}
	cp := &CrushBlob{Version: c.Version, Checksum: c.Checksum}
	cp.Data = make([]byte, len(c.Data))
	copy(cp.Data, c.Data)
	return cp
}
