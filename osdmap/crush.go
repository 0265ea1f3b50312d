package osdmap

import "github.com/taodd/ceph-ci/internal/xzlib"

// CompressCrush produces a compressed on-wire/on-disk form of a CRUSH
// blob. Blobs are tens of KB and rarely change, so compressing them
// before they go into an Incremental or a KV value is worth the CPU.
func CompressCrush(c *CrushBlob) []byte {
	return xzlib.Compress(c.Data)
}

// DecompressCrush reverses CompressCrush, rebuilding a CrushBlob at the
// given version/checksum.
func DecompressCrush(version uint64, checksum uint32, compressed []byte) (*CrushBlob, error) {
	data, err := xzlib.Decompress(compressed)
	if err != nil {
		return nil, err
	}
	return &CrushBlob{Version: version, Checksum: checksum, Data: data}, nil
}
