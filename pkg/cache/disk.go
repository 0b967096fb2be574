package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/Chris-Cullins/TestIntel-sub004/pkg/tierrors"
)

// magic identifies a Tier 2 cache entry; version lets the header format
// evolve without confusing readers of an older layout.
const (
	magic         uint32 = 0x54494332 // "TIC2"
	formatVersion uint16 = 1
	headerSize           = 4 + 2 + 8 + 8 + 4 + 1
	dirPerm              = 0o750
	filePerm             = 0o600
)

// header is the fixed-size prefix of every Tier 2 payload on disk.
type header struct {
	Magic            uint32
	Version          uint16
	CreatedUnix      int64
	ExpiresUnix      int64 // 0 means no expiry.
	UncompressedSize uint32
	CompressionID    byte // 0 = none, 1 = lz4 block.
}

const (
	compressionNone byte = 0
	compressionLZ4  byte = 1
)

// diskStore is the content-addressed Tier 2 cache: entries live at
// <root>/<hh>/<hash>.bin, where hh is the first two hex characters of the
// key's sha256 hash.
type diskStore struct {
	root       string
	byteBudget int64
}

func newDiskStore(root string, byteBudget int64) *diskStore {
	return &diskStore{root: root, byteBudget: byteBudget}
}

func (d *diskStore) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	hexKey := hex.EncodeToString(sum[:])

	return filepath.Join(d.root, hexKey[:2], hexKey+".bin")
}

func (d *diskStore) exists(key string) bool {
	_, err := os.Stat(d.pathFor(key))

	return err == nil
}

// get reads and validates an entry. Any structural problem (missing file,
// bad magic/version, expired, truncated payload) is treated as a miss.
// Concurrent cross-process corruption must never surface as an error to
// the caller.
func (d *diskStore) get(key string) ([]byte, float64, bool) {
	raw, err := os.ReadFile(d.pathFor(key))
	if err != nil {
		return nil, 0, false
	}

	h, payload, ok := decodeHeader(raw)
	if !ok {
		return nil, 0, false
	}

	if h.Magic != magic || h.Version != formatVersion {
		return nil, 0, false
	}

	if h.ExpiresUnix != 0 && time.Now().Unix() >= h.ExpiresUnix {
		go d.bestEffortRemove(key)

		return nil, 0, false
	}

	decompressed, err := decompress(payload, h)
	if err != nil {
		return nil, 0, false
	}

	ratio := 0.0
	if len(payload) > 0 {
		ratio = float64(h.UncompressedSize) / float64(len(payload))
	}

	return decompressed, ratio, true
}

// set writes value atomically: a temp file is created alongside the
// target, synced, then renamed into place, so concurrent readers never
// observe a partial write.
func (d *diskStore) set(key string, value []byte, ttlSeconds int64) (float64, error) {
	finalPath := d.pathFor(key)

	if err := os.MkdirAll(filepath.Dir(finalPath), dirPerm); err != nil {
		return 0, tierrors.Wrap(tierrors.Internal, "create cache dir", err)
	}

	compressed, ratio, compressionID := compress(value)

	var buf bytes.Buffer

	now := time.Now().Unix()

	// 0 means no expiry; a negative ttl writes an already-expired entry.
	expires := int64(0)
	if ttlSeconds != 0 {
		expires = now + ttlSeconds
	}

	h := header{
		Magic:            magic,
		Version:          formatVersion,
		CreatedUnix:      now,
		ExpiresUnix:      expires,
		UncompressedSize: uint32(len(value)),
		CompressionID:    compressionID,
	}

	if err := encodeHeader(&buf, h); err != nil {
		return 0, tierrors.Wrap(tierrors.Internal, "encode cache header", err)
	}

	buf.Write(compressed)

	tmpPath := finalPath + ".tmp"

	fd, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return 0, tierrors.Wrap(tierrors.Internal, "create cache temp file", err)
	}

	if _, err := fd.Write(buf.Bytes()); err != nil {
		fd.Close()

		return 0, tierrors.Wrap(tierrors.Internal, "write cache temp file", err)
	}

	if err := fd.Sync(); err != nil {
		fd.Close()

		return 0, tierrors.Wrap(tierrors.Internal, "sync cache temp file", err)
	}

	if err := fd.Close(); err != nil {
		return 0, tierrors.Wrap(tierrors.Internal, "close cache temp file", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return 0, tierrors.Wrap(tierrors.Internal, "rename cache entry into place", err)
	}

	return ratio, nil
}

func (d *diskStore) remove(key string) error {
	err := os.Remove(d.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return tierrors.Wrap(tierrors.Internal, "remove cache entry", err)
	}

	return nil
}

func (d *diskStore) bestEffortRemove(key string) {
	_ = os.Remove(d.pathFor(key))
}

func (d *diskStore) clear() error {
	err := os.RemoveAll(d.root)
	if err != nil {
		return tierrors.Wrap(tierrors.Internal, "clear cache root", err)
	}

	return nil
}

func (d *diskStore) bytesOnDisk() int64 {
	var total int64

	_ = filepath.WalkDir(d.root, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil //nolint:nilerr // best-effort stats scan, never fails the caller.
		}

		info, statErr := entry.Info()
		if statErr == nil {
			total += info.Size()
		}

		return nil
	})

	return total
}

func encodeHeader(w io.Writer, h header) error {
	fields := []any{h.Magic, h.Version, h.CreatedUnix, h.ExpiresUnix, h.UncompressedSize, h.CompressionID}

	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	return nil
}

func decodeHeader(raw []byte) (header, []byte, bool) {
	if len(raw) < headerSize {
		return header{}, nil, false
	}

	r := bytes.NewReader(raw[:headerSize])

	var h header

	fields := []any{&h.Magic, &h.Version, &h.CreatedUnix, &h.ExpiresUnix, &h.UncompressedSize, &h.CompressionID}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return header{}, nil, false
		}
	}

	return h, raw[headerSize:], true
}

func compress(value []byte) ([]byte, float64, byte) {
	bound := lz4.CompressBlockBound(len(value))
	if bound <= 0 {
		return value, 1.0, compressionNone
	}

	out := make([]byte, bound)

	n, err := lz4.CompressBlock(value, out, nil)
	if err != nil || n == 0 || n >= len(value) {
		return value, 1.0, compressionNone
	}

	ratio := 1.0
	if n > 0 {
		ratio = float64(len(value)) / float64(n)
	}

	return out[:n], ratio, compressionLZ4
}

func decompress(payload []byte, h header) ([]byte, error) {
	if h.CompressionID == compressionNone {
		return payload, nil
	}

	if h.CompressionID != compressionLZ4 {
		return nil, errors.New("cache: unknown compression id")
	}

	out := make([]byte, h.UncompressedSize)

	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, err
	}

	return out[:n], nil
}
