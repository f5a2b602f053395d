package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/roach88/provermarket/internal/fault"
)

// Blob describes a persisted artifact.
type Blob struct {
	// URL is the reference stored in witness_input_jobs.witness_inputs_blob_url.
	URL string
	// Path is where the bytes live on disk.
	Path string
	// CID is the CIDv1 (raw, sha2-256) of the bytes.
	CID  string
	Size int64
}

// Writer writes artifacts into a single directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir. An empty dir means the working directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Dir returns the directory artifacts are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// Key returns the deterministic blob reference for a batch.
func Key(batchNumber uint64) string {
	return fmt.Sprintf("witness_inputs_%d.bin", batchNumber)
}

// Write atomically stores data for batchNumber and returns its reference.
func (w *Writer) Write(ctx context.Context, batchNumber uint64, data []byte) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, fault.Storage("write artifact", err)
	}

	id, err := contentID(data)
	if err != nil {
		return Blob{}, fault.Storage("hash artifact", err)
	}

	key := Key(batchNumber)
	path := filepath.Join(w.dir, key)
	if err := writeFileAtomic(path, data); err != nil {
		return Blob{}, fault.Storage(fmt.Sprintf("write %s", path), err)
	}

	return Blob{
		URL:  key,
		Path: path,
		CID:  id.String(),
		Size: int64(len(data)),
	}, nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place. The temp file is removed on any failure.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// contentID returns the CIDv1 of data using the raw codec and a sha2-256 multihash.
func contentID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ContentID is exported for callers that want to verify a file on disk.
func ContentID(data []byte) (string, error) {
	id, err := contentID(data)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
