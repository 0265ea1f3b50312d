package osdmap

import (
	"github.com/tinylib/msgp/msgp"
)

// Encode serializes m to MessagePack, in the hand-rolled style of a
// msgp-generated MarshalMsg method: each field is appended in a fixed
// order behind a map header, so old and new binaries can skip fields
// they don't recognize.
func (m *Map) Encode() ([]byte, error) {
	sz := 13
	b := msgp.AppendMapHeader(nil, uint32(sz))
	b = msgp.AppendString(b, "fsid")
	b = msgp.AppendBytes(b, m.FSID[:])
	b = msgp.AppendString(b, "epoch")
	b = msgp.AppendUint32(b, uint32(m.Epoch))
	b = msgp.AppendString(b, "created")
	b = msgp.AppendInt64(b, m.Created)
	b = msgp.AppendString(b, "modified")
	b = msgp.AppendInt64(b, m.Modified)
	b = msgp.AppendString(b, "maxosd")
	b = msgp.AppendInt32(b, m.MaxOSD)

	b = msgp.AppendString(b, "osdstate")
	b = msgp.AppendArrayHeader(b, uint32(len(m.osdState)))
	for _, s := range m.osdState {
		b = msgp.AppendUint8(b, uint8(s))
	}

	b = msgp.AppendString(b, "weight")
	b = msgp.AppendArrayHeader(b, uint32(len(m.weight)))
	for _, w := range m.weight {
		b = msgp.AppendUint32(b, uint32(w))
	}

	b = msgp.AppendString(b, "addr")
	b = msgp.AppendArrayHeader(b, uint32(len(m.addr)))
	for _, a := range m.addr {
		b = encodeAddr(b, a)
	}

	b = msgp.AppendString(b, "info")
	b = msgp.AppendArrayHeader(b, uint32(len(m.info)))
	for _, info := range m.info {
		b = encodeInfo(b, info)
	}

	b = msgp.AppendString(b, "pools")
	b = msgp.AppendMapHeader(b, uint32(len(m.Pools)))
	for id, p := range m.Pools {
		b = msgp.AppendInt(b, id)
		b = encodePool(b, p)
	}

	b = msgp.AppendString(b, "poolmax")
	b = msgp.AppendInt(b, m.PoolMax)

	b = msgp.AppendString(b, "blacklist")
	b = msgp.AppendMapHeader(b, uint32(len(m.Blacklist)))
	for addr, exp := range m.Blacklist {
		b = msgp.AppendString(b, addr)
		b = msgp.AppendInt64(b, exp)
	}

	b = msgp.AppendString(b, "crush")
	if m.Crush == nil {
		b = msgp.AppendNil(b)
	} else {
		b = encodeCrush(b, m.Crush)
	}

	return b, nil
}

// Decode deserializes the output of Encode back into m.
func (m *Map) Decode(b []byte) error {
	sz, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return err
	}
	m.Pools = make(map[int]*Pool)
	m.PoolName = make(map[string]int)
	m.Blacklist = make(map[string]int64)

	for i := uint32(0); i < sz; i++ {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return err
		}
		switch key {
		case "fsid":
			var raw []byte
			raw, b, err = msgp.ReadBytesBytes(b, nil)
			if err != nil {
				return err
			}
			copy(m.FSID[:], raw)
		case "epoch":
			var v uint32
			v, b, err = msgp.ReadUint32Bytes(b)
			m.Epoch = Epoch(v)
		case "created":
			m.Created, b, err = msgp.ReadInt64Bytes(b)
		case "modified":
			m.Modified, b, err = msgp.ReadInt64Bytes(b)
		case "maxosd":
			m.MaxOSD, b, err = msgp.ReadInt32Bytes(b)
		case "osdstate":
			var n uint32
			n, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return err
			}
			m.osdState = make([]osdState, n)
			for i := range m.osdState {
				var v uint8
				v, b, err = msgp.ReadUint8Bytes(b)
				if err != nil {
					return err
				}
				m.osdState[i] = osdState(v)
			}
		case "weight":
			var n uint32
			n, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return err
			}
			m.weight = make([]Weight, n)
			for i := range m.weight {
				var v uint32
				v, b, err = msgp.ReadUint32Bytes(b)
				if err != nil {
					return err
				}
				m.weight[i] = Weight(v)
			}
		case "addr":
			var n uint32
			n, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return err
			}
			m.addr = make([]Addr, n)
			for i := range m.addr {
				m.addr[i], b, err = decodeAddr(b)
				if err != nil {
					return err
				}
			}
		case "info":
			var n uint32
			n, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return err
			}
			m.info = make([]OSDInfo, n)
			for i := range m.info {
				m.info[i], b, err = decodeInfo(b)
				if err != nil {
					return err
				}
			}
		case "pools":
			var n uint32
			n, b, err = msgp.ReadMapHeaderBytes(b)
			if err != nil {
				return err
			}
			for i := uint32(0); i < n; i++ {
				var id int
				id, b, err = msgp.ReadIntBytes(b)
				if err != nil {
					return err
				}
				var p *Pool
				p, b, err = decodePool(b)
				if err != nil {
					return err
				}
				m.Pools[id] = p
				m.PoolName[p.Name] = id
			}
		case "poolmax":
			m.PoolMax, b, err = msgp.ReadIntBytes(b)
		case "blacklist":
			var n uint32
			n, b, err = msgp.ReadMapHeaderBytes(b)
			if err != nil {
				return err
			}
			for i := uint32(0); i < n; i++ {
				var addr string
				addr, b, err = msgp.ReadStringBytes(b)
				if err != nil {
					return err
				}
				var exp int64
				exp, b, err = msgp.ReadInt64Bytes(b)
				if err != nil {
					return err
				}
				m.Blacklist[addr] = exp
			}
		case "crush":
			if msgp.IsNil(b) {
				b = b[1:]
				m.Crush = nil
			} else {
				m.Crush, b, err = decodeCrush(b)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func encodeAddr(b []byte, a Addr) []byte {
	ip := a.IP.To16()
	if ip == nil {
		ip = make([]byte, 16)
	}
	b = msgp.AppendBytes(b, ip)
	b = msgp.AppendUint16(b, a.Port)
	b = msgp.AppendUint32(b, a.Nonce)
	return b
}

func decodeAddr(b []byte) (Addr, []byte, error) {
	var a Addr
	raw, b, err := msgp.ReadBytesBytes(b, nil)
	if err != nil {
		return a, b, err
	}
	a.IP = raw
	a.Port, b, err = msgp.ReadUint16Bytes(b)
	if err != nil {
		return a, b, err
	}
	a.Nonce, b, err = msgp.ReadUint32Bytes(b)
	return a, b, err
}

func encodeInfo(b []byte, info OSDInfo) []byte {
	b = msgp.AppendUint32(b, uint32(info.UpFrom))
	b = msgp.AppendUint32(b, uint32(info.DownAt))
	b = msgp.AppendUint32(b, uint32(info.LastCleanFirst))
	b = msgp.AppendUint32(b, uint32(info.LastCleanLast))
	b = msgp.AppendUint32(b, uint32(info.LostAt))
	return b
}

func decodeInfo(b []byte) (OSDInfo, []byte, error) {
	var info OSDInfo
	var v uint32
	var err error
	if v, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return info, b, err
	}
	info.UpFrom = Epoch(v)
	if v, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return info, b, err
	}
	info.DownAt = Epoch(v)
	if v, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return info, b, err
	}
	info.LastCleanFirst = Epoch(v)
	if v, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return info, b, err
	}
	info.LastCleanLast = Epoch(v)
	if v, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return info, b, err
	}
	info.LostAt = Epoch(v)
	return info, b, nil
}

func encodePool(b []byte, p *Pool) []byte {
	b = msgp.AppendString(b, p.Name)
	b = msgp.AppendInt(b, int(p.Type))
	b = msgp.AppendInt(b, p.Size)
	b = msgp.AppendInt(b, p.CrushRuleset)
	b = msgp.AppendUint32(b, p.PgNum)
	b = msgp.AppendUint32(b, p.PgpNum)
	b = msgp.AppendUint32(b, p.LpgNum)
	b = msgp.AppendUint32(b, p.LpgpNum)
	b = msgp.AppendUint32(b, uint32(p.LastChange))
	b = msgp.AppendUint64(b, uint64(p.SnapSeq))
	b = msgp.AppendUint32(b, uint32(p.SnapEpoch))

	runs := p.RemovedSnaps.Runs()
	b = msgp.AppendArrayHeader(b, uint32(len(runs)))
	for _, r := range runs {
		b = msgp.AppendUint64(b, r.Start)
		b = msgp.AppendUint64(b, r.Len)
	}

	b = msgp.AppendMapHeader(b, uint32(len(p.Snaps)))
	for id, s := range p.Snaps {
		b = msgp.AppendUint64(b, uint64(id))
		b = msgp.AppendString(b, s.Name)
		b = msgp.AppendInt64(b, s.Stamp)
	}
	return b
}

func decodePool(b []byte) (*Pool, []byte, error) {
	p := &Pool{Snaps: make(map[SnapID]Snap)}
	var err error
	if p.Name, b, err = msgp.ReadStringBytes(b); err != nil {
		return nil, b, err
	}
	var v int
	if v, b, err = msgp.ReadIntBytes(b); err != nil {
		return nil, b, err
	}
	p.Type = PoolType(v)
	if p.Size, b, err = msgp.ReadIntBytes(b); err != nil {
		return nil, b, err
	}
	if p.CrushRuleset, b, err = msgp.ReadIntBytes(b); err != nil {
		return nil, b, err
	}
	if p.PgNum, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	if p.PgpNum, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	if p.LpgNum, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	if p.LpgpNum, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	var u32 uint32
	if u32, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	p.LastChange = Epoch(u32)
	var u64 uint64
	if u64, b, err = msgp.ReadUint64Bytes(b); err != nil {
		return nil, b, err
	}
	p.SnapSeq = SnapID(u64)
	if u32, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	p.SnapEpoch = Epoch(u32)

	var n uint32
	if n, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return nil, b, err
	}
	for i := uint32(0); i < n; i++ {
		var start, length uint64
		if start, b, err = msgp.ReadUint64Bytes(b); err != nil {
			return nil, b, err
		}
		if length, b, err = msgp.ReadUint64Bytes(b); err != nil {
			return nil, b, err
		}
		for off := uint64(0); off < length; off++ {
			p.RemovedSnaps.Insert(start + off)
		}
	}

	if n, b, err = msgp.ReadMapHeaderBytes(b); err != nil {
		return nil, b, err
	}
	for i := uint32(0); i < n; i++ {
		var id uint64
		if id, b, err = msgp.ReadUint64Bytes(b); err != nil {
			return nil, b, err
		}
		var s Snap
		if s.Name, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, b, err
		}
		if s.Stamp, b, err = msgp.ReadInt64Bytes(b); err != nil {
			return nil, b, err
		}
		p.Snaps[SnapID(id)] = s
	}
	return p, b, nil
}

func encodeCrush(b []byte, c *CrushBlob) []byte {
	b = msgp.AppendUint64(b, c.Version)
	b = msgp.AppendUint32(b, c.Checksum)
	b = msgp.AppendBytes(b, c.Data)
	return b
}

func decodeCrush(b []byte) (*CrushBlob, []byte, error) {
	c := &CrushBlob{}
	var err error
	if c.Version, b, err = msgp.ReadUint64Bytes(b); err != nil {
		return nil, b, err
	}
	if c.Checksum, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return nil, b, err
	}
	c.Data, b, err = msgp.ReadBytesBytes(b, nil)
	return c, b, err
}
