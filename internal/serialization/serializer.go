// Package serialization encodes flat records stored in Redis. Each encoded
// value carries a leading format byte so JSON and protobuf records can be
// mixed under the same keys.
package serialization

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Format identifies the encoding of a stored record
type Format byte

const (
	// FormatJSON encodes the record as a JSON object
	FormatJSON Format = 0x00

	// FormatProtobuf encodes the record as a google.protobuf.Struct
	FormatProtobuf Format = 0x01
)

// String implements fmt.Stringer
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatProtobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(f))
	}
}

// ParseFormat maps a config name onto a format
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "json":
		return FormatJSON, nil
	case "protobuf", "proto":
		return FormatProtobuf, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

var (
	// ErrUnknownFormat is returned when the record format cannot be determined
	ErrUnknownFormat = errors.New("unknown record format")

	// ErrEncodeFailed is returned when encoding fails
	ErrEncodeFailed = errors.New("failed to encode record")

	// ErrDecodeFailed is returned when decoding fails
	ErrDecodeFailed = errors.New("failed to decode record")
)

// Record is a flat set of named values. Values must be strings, bools,
// numbers or nil. Numbers always decode as float64; use the typed getters.
type Record map[string]interface{}

// String returns the string stored under key, or ""
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Int returns the whole number stored under key
func (r Record) Int(key string) (int, error) {
	switch v := r[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("field %q is not a whole number: %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("field %q is missing", key)
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

// Time parses an RFC3339 timestamp stored under key. A missing or empty
// field yields the zero time.
func (r Record) Time(key string) (time.Time, error) {
	s := r.String(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}
	return t, nil
}

// Codec encodes and decodes records
type Codec struct {
	// Format is used for newly encoded records. Decoding detects the format.
	Format Format
}

// NewCodec creates a codec writing the given format
func NewCodec(format Format) *Codec {
	return &Codec{Format: format}
}

// Encode serializes rec with the codec's format, prefixed by the format byte
func (c *Codec) Encode(rec Record) ([]byte, error) {
	var data []byte
	var err error

	switch c.Format {
	case FormatJSON:
		data, err = json.Marshal(map[string]interface{}(rec))
		if err != nil {
			return nil, fmt.Errorf("%w (JSON): %v", ErrEncodeFailed, err)
		}

	case FormatProtobuf:
		st, err := structpb.NewStruct(rec)
		if err != nil {
			return nil, fmt.Errorf("%w (Protobuf): %v", ErrEncodeFailed, err)
		}
		data, err = proto.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("%w (Protobuf): %v", ErrEncodeFailed, err)
		}

	default:
		return nil, fmt.Errorf("%w: format %d", ErrUnknownFormat, c.Format)
	}

	out := make([]byte, len(data)+1)
	out[0] = byte(c.Format)
	copy(out[1:], data)

	return out, nil
}

// Decode deserializes a record written in any supported format
func (c *Codec) Decode(data []byte) (Record, error) {
	format, payload, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		rec := Record{}
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("%w (JSON): %v", ErrDecodeFailed, err)
		}
		return rec, nil

	case FormatProtobuf:
		st := &structpb.Struct{}
		if err := proto.Unmarshal(payload, st); err != nil {
			return nil, fmt.Errorf("%w (Protobuf): %v", ErrDecodeFailed, err)
		}
		return Record(st.AsMap()), nil

	default:
		return nil, fmt.Errorf("%w: format %d", ErrUnknownFormat, format)
	}
}

// DetectFormat returns the format of an encoded record and its payload
// without the prefix. Unprefixed JSON objects are accepted.
func DetectFormat(data []byte) (Format, []byte, error) {
	if len(data) == 0 {
		return FormatJSON, nil, fmt.Errorf("%w: empty record", ErrDecodeFailed)
	}

	format := Format(data[0])
	switch format {
	case FormatJSON:
		if len(data) < 2 {
			return format, nil, fmt.Errorf("%w: record too short", ErrDecodeFailed)
		}
		return format, data[1:], nil

	case FormatProtobuf:
		// An empty Struct encodes to zero bytes
		return format, data[1:], nil

	default:
		if data[0] == '{' {
			return FormatJSON, data, nil
		}
		return FormatJSON, data, fmt.Errorf("%w: unknown format byte 0x%02X", ErrUnknownFormat, data[0])
	}
}
