// Package persistence encodes an index into a single self-describing binary
// blob and back.
//
// A blob is a CBOR map (the envelope) whose fields are tagged with small
// integer keys. The envelope names the format and schema version, the
// compression of the payload and a BLAKE3 checksum of the uncompressed
// payload. The payload is itself a field-tagged CBOR record of the index.
// Decoding reads the format and version before anything else, so blobs from
// an incompatible schema fail with a CodecError instead of being
// misinterpreted.
package persistence

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/gcbaptista/go-archive-search/index"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
)

const (
	// FormatName identifies an archive-search index blob.
	FormatName = "go-archive-search/index"

	// SchemaVersion is bumped whenever indexRecord changes incompatibly.
	SchemaVersion uint64 = 1
)

// Compression selects how the payload is stored inside the envelope.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name from configuration.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case CompressionNone, CompressionZstd:
		return Compression(name), nil
	case "":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// header is the part of the envelope every schema version must keep.
type header struct {
	Format  string `cbor:"1,keyasint"`
	Version uint64 `cbor:"2,keyasint"`
}

type envelope struct {
	Format      string      `cbor:"1,keyasint"`
	Version     uint64      `cbor:"2,keyasint"`
	Compression Compression `cbor:"3,keyasint"`
	Checksum    []byte      `cbor:"4,keyasint"`
	Documents   uint64      `cbor:"5,keyasint"`
	Terms       uint64      `cbor:"6,keyasint"`
	Payload     []byte      `cbor:"7,keyasint"`
}

type termRecord struct {
	Postings map[uint32]uint32 `cbor:"1,keyasint"`
	IDF      float64           `cbor:"2,keyasint"`
}

type indexRecord struct {
	Documents    []string              `cbor:"1,keyasint"`
	Terms        map[string]termRecord `cbor:"2,keyasint"`
	DocLength    map[uint32]uint32     `cbor:"3,keyasint"`
	AvgDocLength float64               `cbor:"4,keyasint"`
}

var (
	encMode    cbor.EncMode
	headerMode cbor.DecMode
	strictMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// Core deterministic encoding: sorted map keys and shortest lossless
	// float forms, so the same index always produces the same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("persistence: CBOR encoder initialization failed: " + err.Error())
	}

	limits := cbor.DecOptions{
		MaxArrayElements: math.MaxInt32,
		MaxMapPairs:      math.MaxInt32,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}
	headerMode, err = limits.DecMode()
	if err != nil {
		panic("persistence: CBOR header decoder initialization failed: " + err.Error())
	}

	strict := limits
	strict.ExtraReturnErrors = cbor.ExtraDecErrorUnknownField
	strictMode, err = strict.DecMode()
	if err != nil {
		panic("persistence: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic("persistence: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("persistence: zstd decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes idx into a blob.
func Marshal(idx *index.Index, compression Compression) ([]byte, error) {
	rec := indexRecord{
		Documents:    idx.Documents,
		Terms:        make(map[string]termRecord, len(idx.Terms)),
		DocLength:    idx.DocLength,
		AvgDocLength: idx.AvgDocLength,
	}
	for term, td := range idx.Terms {
		rec.Terms[term] = termRecord{Postings: td.Postings, IDF: td.IDF}
	}

	payload, err := encMode.Marshal(rec)
	if err != nil {
		return nil, internalErrors.NewCodecError("encode index record", err)
	}
	checksum := blake3.Sum256(payload)

	switch compression {
	case CompressionNone:
	case CompressionZstd:
		payload = zstdEncoder.EncodeAll(payload, make([]byte, 0, len(payload)/4))
	default:
		return nil, internalErrors.NewCodecError(fmt.Sprintf("unknown compression %q", compression), nil)
	}

	blob, err := encMode.Marshal(envelope{
		Format:      FormatName,
		Version:     SchemaVersion,
		Compression: compression,
		Checksum:    checksum[:],
		Documents:   uint64(len(idx.Documents)),
		Terms:       uint64(len(idx.Terms)),
		Payload:     payload,
	})
	if err != nil {
		return nil, internalErrors.NewCodecError("encode envelope", err)
	}
	return blob, nil
}

// Encode writes the blob for idx to w.
func Encode(w io.Writer, idx *index.Index, compression Compression) error {
	blob, err := Marshal(idx, compression)
	if err != nil {
		return err
	}
	_, err = w.Write(blob)
	return err
}

// Unmarshal decodes a blob. Every failure is a CodecError.
func Unmarshal(blob []byte) (*index.Index, error) {
	var hdr header
	if err := headerMode.Unmarshal(blob, &hdr); err != nil {
		return nil, internalErrors.NewCodecError("decode envelope header", err)
	}
	if hdr.Format != FormatName {
		return nil, internalErrors.NewCodecError(fmt.Sprintf("unexpected format %q", hdr.Format), nil)
	}
	if hdr.Version != SchemaVersion {
		return nil, internalErrors.NewCodecError(
			fmt.Sprintf("unsupported schema version %d (want %d)", hdr.Version, SchemaVersion), nil)
	}

	var env envelope
	if err := strictMode.Unmarshal(blob, &env); err != nil {
		return nil, internalErrors.NewCodecError("decode envelope", err)
	}

	payload := env.Payload
	switch env.Compression {
	case CompressionNone:
	case CompressionZstd:
		var err error
		payload, err = zstdDecoder.DecodeAll(env.Payload, nil)
		if err != nil {
			return nil, internalErrors.NewCodecError("decompress payload", err)
		}
	default:
		return nil, internalErrors.NewCodecError(fmt.Sprintf("unknown compression %q", env.Compression), nil)
	}

	checksum := blake3.Sum256(payload)
	if !bytes.Equal(checksum[:], env.Checksum) {
		return nil, internalErrors.NewCodecError("payload checksum mismatch", nil)
	}

	var rec indexRecord
	if err := strictMode.Unmarshal(payload, &rec); err != nil {
		return nil, internalErrors.NewCodecError("decode index record", err)
	}
	if uint64(len(rec.Documents)) != env.Documents || uint64(len(rec.Terms)) != env.Terms {
		return nil, internalErrors.NewCodecError("envelope counts do not match payload", nil)
	}

	idx, err := fromRecord(rec)
	if err != nil {
		return nil, internalErrors.NewCodecError("invalid index", err)
	}
	return idx, nil
}

// Decode reads a whole blob from r.
func Decode(r io.Reader) (*index.Index, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(blob)
}

// fromRecord rebuilds an index and checks the structural invariants the
// scorer relies on.
func fromRecord(rec indexRecord) (*index.Index, error) {
	idx := index.New()
	if rec.Documents != nil {
		idx.Documents = rec.Documents
	}
	if rec.DocLength != nil {
		idx.DocLength = rec.DocLength
	}
	idx.AvgDocLength = rec.AvgDocLength

	n := uint32(len(idx.Documents))
	if len(idx.DocLength) != len(idx.Documents) {
		return nil, fmt.Errorf("%d document lengths for %d documents", len(idx.DocLength), n)
	}
	for docID := range idx.DocLength {
		if docID >= n {
			return nil, fmt.Errorf("document length for unknown document %d", docID)
		}
	}

	idx.Terms = make(map[string]*index.TermData, len(rec.Terms))
	for term, tr := range rec.Terms {
		postings := index.Postings(tr.Postings)
		if postings == nil {
			postings = make(index.Postings)
		}
		for docID, freq := range postings {
			if docID >= n {
				return nil, fmt.Errorf("term %q references unknown document %d", term, docID)
			}
			if freq == 0 {
				return nil, fmt.Errorf("term %q has zero frequency for document %d", term, docID)
			}
		}
		idx.Terms[term] = &index.TermData{Postings: postings, IDF: tr.IDF}
	}
	return idx, nil
}
