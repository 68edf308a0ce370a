package artifact

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/okian/recomodel/internal/domain/model"
)

// envelope is the on-store layout: metadata in clear, payload compressed and
// checksummed so a truncated or edited artifact is detected before decoding.
type envelope struct {
	Metadata       model.Metadata
	Checksum       string
	SizeBytes      int64
	SavedAt        time.Time
	CompressedData []byte
}

// Seal wraps an encoded model and its metadata.
func Seal(meta model.Metadata, payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(payload); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	env := envelope{
		Metadata:       meta,
		Checksum:       hex.EncodeToString(hash[:]),
		SizeBytes:      int64(compressed.Len()),
		SavedAt:        time.Now().UTC(),
		CompressedData: compressed.Bytes(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// Unseal verifies and unwraps data produced by Seal. Any failure is ErrCorrupt.
func Unseal(data []byte) (model.Metadata, []byte, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return model.Metadata{}, nil, fmt.Errorf("%w: read envelope: %w", ErrCorrupt, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return model.Metadata{}, nil, fmt.Errorf("%w: decompress model: %w", ErrCorrupt, err)
	}
	defer func() { _ = gzr.Close() }()

	payload, err := io.ReadAll(gzr)
	if err != nil {
		return model.Metadata{}, nil, fmt.Errorf("%w: read decompressed data: %w", ErrCorrupt, err)
	}

	hash := sha256.Sum256(payload)
	if checksum := hex.EncodeToString(hash[:]); checksum != env.Checksum {
		return model.Metadata{}, nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorrupt, env.Checksum, checksum)
	}
	return env.Metadata, payload, nil
}
