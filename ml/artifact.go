package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Artifact is the on-disk model envelope. Only the fields of the declared
// type are populated.
type Artifact struct {
	Type         string            `json:"type"`
	FeatureNames []string          `json:"feature_names"`
	Target       string            `json:"target,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// linear
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	// gradient_boosting, random_forest
	BaseScore    float64          `json:"base_score,omitempty"`
	LearningRate float64          `json:"learning_rate,omitempty"`
	Trees        []RegressionTree `json:"trees,omitempty"`
}

// ArtifactInfo describes a loaded artifact.
type ArtifactInfo struct {
	Type         string            `json:"type"`
	Path         string            `json:"path"`
	Compression  string            `json:"compression"`
	Size         int64             `json:"size"`
	Fingerprint  string            `json:"fingerprint"`
	FeatureNames []string          `json:"feature_names"`
	Target       string            `json:"target,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LoadedAt     time.Time         `json:"loaded_at"`
}

// ReadArtifact reads and decodes the artifact at path. Compression is chosen
// by extension: .zst, .lz4 and .gz are decompressed, anything else is JSON.
func ReadArtifact(path string) (*Artifact, ArtifactInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("read model artifact: %w", err)
	}

	compression := compressionFor(path)
	payload, err := decompress(compression, raw)
	if err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("decompress model artifact %s: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("decode model artifact %s: %w", path, err)
	}

	info := ArtifactInfo{
		Type:         artifact.Type,
		Path:         path,
		Compression:  compression,
		Size:         int64(len(raw)),
		Fingerprint:  Fingerprint(raw),
		FeatureNames: artifact.FeatureNames,
		Target:       artifact.Target,
		Metadata:     artifact.Metadata,
		LoadedAt:     time.Now(),
	}
	return &artifact, info, nil
}

// Fingerprint is the hex xxhash64 of the artifact bytes.
func Fingerprint(raw []byte) string {
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

func compressionFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return "zstd"
	case ".lz4":
		return "lz4"
	case ".gz":
		return "gzip"
	default:
		return "none"
	}
}

func decompress(compression string, raw []byte) ([]byte, error) {
	switch compression {
	case "zstd":
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case "lz4":
		return io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return raw, nil
	}
}

// WriteArtifact encodes artifact as JSON and writes it to path, compressed
// according to the extension the same way ReadArtifact expects.
func WriteArtifact(path string, artifact *Artifact) (ArtifactInfo, error) {
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("encode model artifact: %w", err)
	}

	compression := compressionFor(path)
	raw, err := compress(compression, payload)
	if err != nil {
		return ArtifactInfo{}, fmt.Errorf("compress model artifact %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return ArtifactInfo{}, fmt.Errorf("write model artifact: %w", err)
	}

	return ArtifactInfo{
		Type:         artifact.Type,
		Path:         path,
		Compression:  compression,
		Size:         int64(len(raw)),
		Fingerprint:  Fingerprint(raw),
		FeatureNames: artifact.FeatureNames,
		Target:       artifact.Target,
		Metadata:     artifact.Metadata,
	}, nil
}

func compress(compression string, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch compression {
	case "zstd":
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		w = enc
	case "lz4":
		w = lz4.NewWriter(&buf)
	case "gzip":
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		w = zw
	default:
		return payload, nil
	}

	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
