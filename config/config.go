// Package config loads a monitor's startup configuration from flags and
// environment variables, and builds the genesis osdmap.Map a brand new
// cluster boots from.
package config

import (
	"crypto/rand"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/taodd/ceph-ci/osdmap"
)

// Config is everything needed to start one monitor replica.
type Config struct {
	ClusterName string
	DataDir     string
	ListenAddr  string
	ListenPort  uint16

	// Peers lists the other monitors in the quorum, host:port each.
	Peers []string

	FSIDHex string
}

// FromFlags parses argv (typically os.Args[1:]) into a Config, falling
// back to the CEPH_CI_* environment variables the way the teacher's
// storageMain falls back to its own flag defaults before erroring out.
func FromFlags(argv []string) (*Config, error) {
	fs := flag.NewFlagSet("osdmon", flag.ExitOnError)

	clusterName := fs.String("cluster", envDefault("CEPH_CI_CLUSTER", "ceph"), "cluster name")
	dataDir := fs.String("data-dir", envDefault("CEPH_CI_DATA_DIR", "/var/lib/osdmon"), "local state directory")
	listen := fs.String("listen", envDefault("CEPH_CI_LISTEN", "0.0.0.0:6789"), "address to listen on")
	peers := fs.String("peers", os.Getenv("CEPH_CI_PEERS"), "comma-separated list of peer monitor addresses")
	fsid := fs.String("fsid", os.Getenv("CEPH_CI_FSID"), "cluster fsid (hex); generated if empty and this is the first monitor")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	host, portStr, err := net.SplitHostPort(*listen)
	if err != nil {
		return nil, fmt.Errorf("config: invalid -listen %q: %w", *listen, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("config: invalid -listen port %q: %w", portStr, err)
	}

	var peerList []string
	if *peers != "" {
		peerList = strings.Split(*peers, ",")
	}

	return &Config{
		ClusterName: *clusterName,
		DataDir:     *dataDir,
		ListenAddr:  host,
		ListenPort:  uint16(port),
		Peers:       peerList,
		FSIDHex:     *fsid,
	}, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ResolveFSID returns the configured fsid, or a freshly generated one
// if none was given.
func (c *Config) ResolveFSID() (osdmap.FSID, error) {
	var fsid osdmap.FSID
	if c.FSIDHex == "" {
		if _, err := rand.Read(fsid[:]); err != nil {
			return fsid, fmt.Errorf("config: generating fsid: %w", err)
		}
		return fsid, nil
	}
	b, err := parseHex16(c.FSIDHex)
	if err != nil {
		return fsid, fmt.Errorf("config: invalid -fsid: %w", err)
	}
	copy(fsid[:], b)
	return fsid, nil
}

func parseHex16(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 32 {
		return nil, fmt.Errorf("expected 32 hex digits, got %d", len(s))
	}
	out := make([]byte, 16)
	for i := 0; i < 16; i++ {
		var v int
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v); err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
