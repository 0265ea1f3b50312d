package admincmd

import (
	"context"
	"fmt"

	"github.com/taodd/ceph-ci/mon"
	"github.com/taodd/ceph-ci/osdmap"
)

// Dispatch translates an admin Request into the corresponding mon.Message,
// submits it to m, and renders the result as a Reply. It is the only
// place that needs to know both the wire protocol and the mon package's
// message types.
func Dispatch(ctx context.Context, m *mon.Monitor, req *Request) *Reply {
	var msg mon.Message

	switch req.Op {
	case OpStatus:
		return &Reply{OK: true, Epoch: uint32(m.Current().Epoch), Summary: m.Current().PrintSummary()}

	case OpPoolCreate:
		msg = &mon.PoolCreateCmd{
			ID: req.PoolID,
			Pool: &osdmap.Pool{
				Name: req.PoolName,
				Size: req.PoolSize,
				PgNum: req.PgNum,
				PgpNum: req.PgNum,
			},
		}
	case OpPoolDelete:
		msg = &mon.PoolDeleteCmd{ID: req.PoolID}
	case OpSnapCreate:
		msg = &mon.SnapCreateCmd{PoolID: req.PoolID, Name: req.SnapName, Stamp: req.SnapStamp}
	case OpSnapDelete:
		msg = &mon.SnapDeleteCmd{PoolID: req.PoolID, Name: req.SnapName}
	case OpReweight:
		msg = &mon.ReweightCmd{ID: osdmap.OSDID(req.OSDID), Weight: osdmap.Weight(req.Weight)}
	case OpMarkDown:
		msg = &mon.MarkDownCmd{ID: osdmap.OSDID(req.OSDID)}
	case OpBlacklist:
		msg = &mon.BlacklistCmd{Addr: req.Addr, Expiry: req.Expiry}
	case OpDumpMap:
		buf, err := m.Current().Encode()
		if err != nil {
			return &Reply{Error: err.Error()}
		}
		return &Reply{OK: true, Epoch: uint32(m.Current().Epoch), Payload: buf}
	default:
		return &Reply{Error: fmt.Sprintf("admincmd: unknown op %q", req.Op)}
	}

	if _, err := m.Submit(ctx, msg); err != nil {
		return &Reply{Error: err.Error()}
	}
	return &Reply{OK: true, Epoch: uint32(m.Current().Epoch)}
}
