package main
// cli to run one monitor replica

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	stdnet "net"
	"net/http"
	"os"

	_ "net/http/pprof"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"lab.nexedi.com/kirr/go123/prog"

	"github.com/taodd/ceph-ci/admincmd"
	"github.com/taodd/ceph-ci/config"
	"github.com/taodd/ceph-ci/consensus"
	"github.com/taodd/ceph-ci/internal/log"
	"github.com/taodd/ceph-ci/mon"
	"github.com/taodd/ceph-ci/osdmap"
)

const runSummary = "run one monitor replica"

func runUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage: osdmon run [options]
Run one replica of the cluster-membership/topology monitor.
`)
}

// adminMagic prefixes every admin-command frame on the wire so cmux can
// route it away from plain HTTP debug traffic on the same listener.
var adminMagic = [4]byte{'O', 'A', 'D', '1'}

func adminMatch(r io.Reader) bool {
	var b [4]byte
	n, _ := io.ReadFull(r, b[:])
	return n == 4 && b == adminMagic
}

func runMain(argv []string) {
	cfg, err := config.FromFlags(argv[1:])
	if err != nil {
		prog.Fatal(err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		prog.Fatal(err)
	}

	fsid, err := cfg.ResolveFSID()
	if err != nil {
		prog.Fatal(err)
	}

	kv, err := consensus.OpenSqliteKV(cfg.DataDir + "/osdmon.db")
	if err != nil {
		prog.Fatal(err)
	}

	initial, err := mon.LoadLatest(kv)
	if err != nil {
		fullKeys, kerr := kv.Keys("osdmap_full")
		if kerr != nil || len(fullKeys) != 0 {
			// prior state exists but cannot be loaded (e.g. a
			// LogGapError): refuse to bootstrap over it.
			prog.Fatal(err)
		}
		// no prior state: this is a fresh cluster, bootstrap genesis
		// and let the first commit persist epoch 1's full map.
		initial = config.Bootstrap(fsid)
	}

	self := osdmap.Addr{IP: stdnet.ParseIP(cfg.ListenAddr), Port: cfg.ListenPort}
	monCfg := mon.DefaultConfig(self)

	lg := consensus.NewMemLog(self)
	msgr := &consensus.MemMessenger{}

	m := mon.New(monCfg, initial, lg, kv, msgr, nil)

	ctx := context.Background()
	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return m.Run(ctx)
	})

	wg.Go(func() error {
		return listenAndServe(ctx, fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.ListenPort), m)
	})

	if err := wg.Wait(); err != nil {
		prog.Fatal(err)
	}
}

// listenAndServe multiplexes the admin-command protocol and the debug
// HTTP mux (pprof and the like) on one listener, the same way the
// teacher's cmd/neo multiplexes the NEO wire protocol against HTTP.
func listenAndServe(ctx context.Context, laddr string, m *mon.Monitor) error {
	l, err := stdnet.Listen("tcp", laddr)
	if err != nil {
		return err
	}

	log.Infof(ctx, "osdmon: listening at %s ...", l.Addr())

	mux := cmux.New(l)
	adminL := mux.Match(adminMatch)
	httpL := mux.Match(cmux.HTTP1(), cmux.HTTP2())
	miscL := mux.Match(cmux.Any())

	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return mux.Serve()
	})

	wg.Go(func() error {
		return serveAdmin(ctx, adminL, m)
	})

	wg.Go(func() error {
		return http.Serve(httpL, nil)
	})

	wg.Go(func() error {
		for {
			conn, err := miscL.Accept()
			if err != nil {
				return err
			}
			conn.Close()
		}
	})

	return wg.Wait()
}

func serveAdmin(ctx context.Context, l stdnet.Listener, m *mon.Monitor) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go handleAdminConn(ctx, conn, m)
	}
}

func handleAdminConn(ctx context.Context, conn stdnet.Conn, m *mon.Monitor) {
	defer conn.Close()

	var magic [4]byte
	if _, err := io.ReadFull(conn, magic[:]); err != nil {
		return
	}

	var szBuf [4]byte
	if _, err := io.ReadFull(conn, szBuf[:]); err != nil {
		return
	}
	sz := binary.BigEndian.Uint32(szBuf[:])
	body := make([]byte, sz)
	if _, err := io.ReadFull(conn, body); err != nil {
		return
	}

	req, err := admincmd.DecodeRequest(body)
	if err != nil {
		log.Warningf(ctx, "osdmon: admin conn %s: bad request: %s", conn.RemoteAddr(), err)
		return
	}

	rep := admincmd.Dispatch(ctx, m, req)
	repBuf, err := rep.Encode()
	if err != nil {
		log.Errorf(ctx, "osdmon: admin conn %s: encode reply: %s", conn.RemoteAddr(), err)
		return
	}

	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(len(repBuf)))
	conn.Write(out[:])
	conn.Write(repBuf)
}
