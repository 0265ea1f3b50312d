// Package admincmd encodes and decodes the administrator command
// protocol used by CLI tools talking to a running monitor: pool
// lifecycle, snapshot lifecycle, OSD reweight/mark-down/blacklist, and
// status queries. Payloads are MessagePack, encoded/decoded with
// shamaton/msgpack rather than the hand-rolled msgp codec the map types
// use -- admin commands are small, infrequent and schema-light, exactly
// the profile shamaton/msgpack's reflection-based (en|de)coder is
// suited for, unlike the hot-path map/increment codec.
package admincmd

import (
	"fmt"

	"github.com/shamaton/msgpack"
)

// Op names the administrative operation a Request carries.
type Op string

const (
	OpStatus       Op = "status"
	OpPoolCreate   Op = "pool-create"
	OpPoolDelete   Op = "pool-delete"
	OpSnapCreate   Op = "snap-create"
	OpSnapDelete   Op = "snap-delete"
	OpReweight     Op = "reweight"
	OpMarkDown     Op = "mark-down"
	OpBlacklist    Op = "blacklist"
	OpDumpMap      Op = "dump-map"
)

// Request is the wire shape of one admin command. Not every field is
// meaningful for every Op; unused fields are simply left zero.
type Request struct {
	Op Op

	PoolID   int    `msgpack:"pool_id,omitempty"`
	PoolName string `msgpack:"pool_name,omitempty"`
	PoolSize int    `msgpack:"pool_size,omitempty"`
	PgNum    uint32 `msgpack:"pg_num,omitempty"`

	SnapName  string `msgpack:"snap_name,omitempty"`
	SnapStamp int64  `msgpack:"snap_stamp,omitempty"`

	OSDID  int32  `msgpack:"osd_id,omitempty"`
	Weight uint32 `msgpack:"weight,omitempty"`

	Addr   string `msgpack:"addr,omitempty"`
	Expiry int64  `msgpack:"expiry,omitempty"`

	FromEpoch uint32 `msgpack:"from_epoch,omitempty"`
}

// Reply is the wire shape of a command's result.
type Reply struct {
	OK      bool   `msgpack:"ok"`
	Error   string `msgpack:"error,omitempty"`
	Epoch   uint32 `msgpack:"epoch,omitempty"`
	Summary string `msgpack:"summary,omitempty"`
	Payload []byte `msgpack:"payload,omitempty"`
}

// Encode serializes req to MessagePack.
func (req *Request) Encode() ([]byte, error) {
	return msgpack.Encode(req)
}

// DecodeRequest deserializes a Request previously produced by Encode.
func DecodeRequest(b []byte) (*Request, error) {
	var req Request
	if err := msgpack.Decode(b, &req); err != nil {
		return nil, fmt.Errorf("admincmd: decode request: %w", err)
	}
	return &req, nil
}

// Encode serializes rep to MessagePack.
func (rep *Reply) Encode() ([]byte, error) {
	return msgpack.Encode(rep)
}

// DecodeReply deserializes a Reply previously produced by Encode.
func DecodeReply(b []byte) (*Reply, error) {
	var rep Reply
	if err := msgpack.Decode(b, &rep); err != nil {
		return nil, fmt.Errorf("admincmd: decode reply: %w", err)
	}
	return &rep, nil
}
