package serialization

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleRecord() Record {
	return Record{
		"id":          "3f2a",
		"entry_point": "run-evaluation",
		"weekday":     6,
		"hour":        7,
		"created_at":  "2024-05-20T09:00:00Z",
		"enabled":     true,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatProtobuf} {
		t.Run(format.String(), func(t *testing.T) {
			c := NewCodec(format)

			data, err := c.Encode(sampleRecord())
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if data[0] != byte(format) {
				t.Errorf("Expected format prefix %d, got %d", format, data[0])
			}

			rec, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if rec.String("entry_point") != "run-evaluation" {
				t.Errorf("entry_point = %q", rec.String("entry_point"))
			}
			hour, err := rec.Int("hour")
			if err != nil || hour != 7 {
				t.Errorf("hour = %d, %v", hour, err)
			}
			created, err := rec.Time("created_at")
			if err != nil || !created.Equal(time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)) {
				t.Errorf("created_at = %v, %v", created, err)
			}
			if rec["enabled"] != true {
				t.Errorf("enabled = %v", rec["enabled"])
			}
		})
	}
}

func TestCodec_DecodeDetectsFormat(t *testing.T) {
	data, err := NewCodec(FormatProtobuf).Encode(sampleRecord())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// A JSON-writing codec still reads protobuf records
	rec, err := NewCodec(FormatJSON).Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.String("id") != "3f2a" {
		t.Errorf("id = %q", rec.String("id"))
	}
}

func TestCodec_LegacyUnprefixedJSON(t *testing.T) {
	rec, err := NewCodec(FormatJSON).Decode([]byte(`{"id":"abc","hour":9}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.String("id") != "abc" {
		t.Errorf("id = %q", rec.String("id"))
	}
}

func TestCodec_Errors(t *testing.T) {
	c := NewCodec(FormatJSON)

	if _, err := c.Decode(nil); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected decode error for empty input, got %v", err)
	}
	if _, err := c.Decode([]byte{0x7F, 0x01}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected unknown format, got %v", err)
	}
	if _, err := c.Decode([]byte{byte(FormatJSON), '{'}); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected decode error for truncated JSON, got %v", err)
	}

	bad := NewCodec(Format(9))
	if _, err := bad.Encode(Record{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected unknown format on encode, got %v", err)
	}

	proto := NewCodec(FormatProtobuf)
	if _, err := proto.Encode(Record{"ch": make(chan int)}); !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("expected encode error for unsupported value, got %v", err)
	}
}

func TestCodec_EmptyProtobufRecord(t *testing.T) {
	c := NewCodec(FormatProtobuf)

	data, err := c.Encode(Record{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(rec) != 0 {
		t.Errorf("expected empty record, got %v", rec)
	}
}

func TestRecord_Int(t *testing.T) {
	rec := Record{"whole": float64(7), "frac": 7.5, "text": "7"}

	if v, err := rec.Int("whole"); err != nil || v != 7 {
		t.Errorf("Int(whole) = %d, %v", v, err)
	}
	for _, key := range []string{"frac", "text", "missing"} {
		if _, err := rec.Int(key); err == nil {
			t.Errorf("Int(%s) should fail", key)
		}
	}
}

func TestRecord_Time(t *testing.T) {
	rec := Record{"bad": "yesterday"}

	if ts, err := rec.Time("missing"); err != nil || !ts.IsZero() {
		t.Errorf("missing time = %v, %v", ts, err)
	}
	if _, err := rec.Time("bad"); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("expected parse error naming the field, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"protobuf", FormatProtobuf, false},
		{"proto", FormatProtobuf, false},
		{"xml", FormatJSON, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
		}
	}
}
