package osdmap

import "github.com/tinylib/msgp/msgp"

// Encode serializes inc to MessagePack, field order fixed as in
// Map.Encode.
func (inc *Incremental) Encode() ([]byte, error) {
	b := msgp.AppendMapHeader(nil, 14)

	b = msgp.AppendString(b, "fsid")
	b = msgp.AppendBytes(b, inc.FSID[:])
	b = msgp.AppendString(b, "epoch")
	b = msgp.AppendUint32(b, uint32(inc.Epoch))

	b = msgp.AppendString(b, "newup")
	b = msgp.AppendMapHeader(b, uint32(len(inc.NewUp)))
	for id, addr := range inc.NewUp {
		b = msgp.AppendInt32(b, int32(id))
		b = encodeAddr(b, addr)
	}

	b = msgp.AppendString(b, "newdown")
	b = appendIDSet(b, inc.NewDown)

	b = msgp.AppendString(b, "newin")
	b = appendIDSet(b, inc.NewIn)

	b = msgp.AppendString(b, "newout")
	b = appendIDSet(b, inc.NewOut)

	b = msgp.AppendString(b, "newweight")
	b = msgp.AppendMapHeader(b, uint32(len(inc.NewWeight)))
	for id, w := range inc.NewWeight {
		b = msgp.AppendInt32(b, int32(id))
		b = msgp.AppendUint32(b, uint32(w))
	}

	b = msgp.AppendString(b, "newosd")
	b = appendIDSet(b, inc.NewOSD)

	b = msgp.AppendString(b, "lostat")
	b = msgp.AppendMapHeader(b, uint32(len(inc.LostAt)))
	for id, e := range inc.LostAt {
		b = msgp.AppendInt32(b, int32(id))
		b = msgp.AppendUint32(b, uint32(e))
	}

	b = msgp.AppendString(b, "newpools")
	b = msgp.AppendMapHeader(b, uint32(len(inc.NewPools)))
	for id, p := range inc.NewPools {
		b = msgp.AppendInt(b, id)
		b = encodePool(b, p)
	}

	b = msgp.AppendString(b, "oldpools")
	b = msgp.AppendArrayHeader(b, uint32(len(inc.OldPools)))
	for id := range inc.OldPools {
		b = msgp.AppendInt(b, id)
	}

	b = msgp.AppendString(b, "newblacklist")
	b = msgp.AppendMapHeader(b, uint32(len(inc.NewBlacklist)))
	for addr, exp := range inc.NewBlacklist {
		b = msgp.AppendString(b, addr)
		b = msgp.AppendInt64(b, exp)
	}

	b = msgp.AppendString(b, "oldblacklist")
	b = msgp.AppendArrayHeader(b, uint32(len(inc.OldBlacklist)))
	for addr := range inc.OldBlacklist {
		b = msgp.AppendString(b, addr)
	}

	b = msgp.AppendString(b, "fullcrush")
	if inc.FullCrush == nil {
		b = msgp.AppendNil(b)
	} else {
		b = encodeCrush(b, inc.FullCrush)
	}

	return b, nil
}

// Decode deserializes the output of Encode back into inc.
func (inc *Incremental) Decode(b []byte) error {
	sz, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return err
	}
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
			if err == nil {
				copy(inc.FSID[:], raw)
			}
		case "epoch":
			var v uint32
			v, b, err = msgp.ReadUint32Bytes(b)
			inc.Epoch = Epoch(v)
		case "newup":
			inc.NewUp, b, err = readAddrMap(b)
		case "newdown":
			inc.NewDown, b, err = readIDSet(b)
		case "newin":
			inc.NewIn, b, err = readIDSet(b)
		case "newout":
			inc.NewOut, b, err = readIDSet(b)
		case "newweight":
			inc.NewWeight, b, err = readWeightMap(b)
		case "newosd":
			inc.NewOSD, b, err = readIDSet(b)
		case "lostat":
			inc.LostAt, b, err = readEpochMap(b)
		case "newpools":
			inc.NewPools, b, err = readPoolMap(b)
		case "oldpools":
			inc.OldPools, b, err = readIDBoolArray(b)
		case "newblacklist":
			inc.NewBlacklist, b, err = readStringInt64Map(b)
		case "oldblacklist":
			inc.OldBlacklist, b, err = readStringBoolArray(b)
		case "fullcrush":
			if msgp.IsNil(b) {
				b = b[1:]
				inc.FullCrush = nil
			} else {
				inc.FullCrush, b, err = decodeCrush(b)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func appendIDSet(b []byte, set map[OSDID]bool) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(set)))
	for id := range set {
		b = msgp.AppendInt32(b, int32(id))
	}
	return b
}

func readIDSet(b []byte) (map[OSDID]bool, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[OSDID]bool, n)
	for i := uint32(0); i < n; i++ {
		var v int32
		v, b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		out[OSDID(v)] = true
	}
	return out, b, nil
}

func readAddrMap(b []byte) (map[OSDID]Addr, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[OSDID]Addr, n)
	for i := uint32(0); i < n; i++ {
		var id int32
		id, b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		var a Addr
		a, b, err = decodeAddr(b)
		if err != nil {
			return nil, b, err
		}
		out[OSDID(id)] = a
	}
	return out, b, nil
}

func readWeightMap(b []byte) (map[OSDID]Weight, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[OSDID]Weight, n)
	for i := uint32(0); i < n; i++ {
		var id int32
		id, b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		var w uint32
		w, b, err = msgp.ReadUint32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		out[OSDID(id)] = Weight(w)
	}
	return out, b, nil
}

func readEpochMap(b []byte) (map[OSDID]Epoch, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[OSDID]Epoch, n)
	for i := uint32(0); i < n; i++ {
		var id int32
		id, b, err = msgp.ReadInt32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		var e uint32
		e, b, err = msgp.ReadUint32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		out[OSDID(id)] = Epoch(e)
	}
	return out, b, nil
}

func readPoolMap(b []byte) (map[int]*Pool, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[int]*Pool, n)
	for i := uint32(0); i < n; i++ {
		var id int
		id, b, err = msgp.ReadIntBytes(b)
		if err != nil {
			return nil, b, err
		}
		var p *Pool
		p, b, err = decodePool(b)
		if err != nil {
			return nil, b, err
		}
		out[id] = p
	}
	return out, b, nil
}

func readIDBoolArray(b []byte) (map[int]bool, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[int]bool, n)
	for i := uint32(0); i < n; i++ {
		var id int
		id, b, err = msgp.ReadIntBytes(b)
		if err != nil {
			return nil, b, err
		}
		out[id] = true
	}
	return out, b, nil
}

func readStringInt64Map(b []byte) (map[string]int64, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[string]int64, n)
	for i := uint32(0); i < n; i++ {
		var k string
		k, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return nil, b, err
		}
		var v int64
		v, b, err = msgp.ReadInt64Bytes(b)
		if err != nil {
			return nil, b, err
		}
		out[k] = v
	}
	return out, b, nil
}

func readStringBoolArray(b []byte) (map[string]bool, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	out := make(map[string]bool, n)
	for i := uint32(0); i < n; i++ {
		var k string
		k, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return nil, b, err
		}
		out[k] = true
	}
	return out, b, nil
}
