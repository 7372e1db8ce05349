package cbormap

import (
	"strings"
	"testing"
	"time"
)

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      FieldFunc
		value   interface{}
		want    interface{}
		wantErr string
	}{
		{name: "text ok", fn: Text(), value: "hello", want: "hello"},
		{name: "text wrong type", fn: Text(), value: 42, wantErr: "expected text string"},
		{name: "text one of ok", fn: TextOneOf("SHA-256", "SHA-384"), value: "SHA-256", want: "SHA-256"},
		{name: "text one of rejected", fn: TextOneOf("SHA-256", "SHA-384"), value: "MD5", wantErr: "not in"},
		{name: "bytes ok", fn: Bytes(), value: []byte{1, 2}, want: []byte{1, 2}},
		{name: "bytes wrong type", fn: Bytes(), value: "no", wantErr: "expected byte string"},
		{name: "uint from uint64", fn: Uint(), value: uint64(7), want: uint64(7)},
		{name: "uint from int64", fn: Uint(), value: int64(7), want: uint64(7)},
		{name: "uint negative", fn: Uint(), value: int64(-1), wantErr: "non-negative"},
		{name: "map ok", fn: Map(), value: map[interface{}]interface{}{}, want: map[interface{}]interface{}{}},
		{name: "map wrong type", fn: Map(), value: "no", wantErr: "expected map"},
		{name: "any passes everything", fn: Any(), value: 3.14, want: 3.14},
		{name: "version ok", fn: Version(), value: "1.0", want: "1.0"},
		{name: "version multi-part", fn: Version(), value: "2.10.3", want: "2.10.3"},
		{name: "version with letters", fn: Version(), value: "1.0-beta", wantErr: "invalid version"},
		{name: "version empty part", fn: Version(), value: "1.", wantErr: "invalid version"},
		{name: "version wrong type", fn: Version(), value: 1.0, wantErr: "expected text string"},
		{name: "optional null passes", fn: Optional(Text()), value: nil, want: nil},
		{name: "optional delegates", fn: Optional(Text()), value: 42, wantErr: "expected text string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn("ctx.field", tt.value)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want containing %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case []byte:
				if string(got.([]byte)) != string(want) {
					t.Errorf("got %v, want %v", got, want)
				}
			case map[interface{}]interface{}:
				// Identity is enough: Map passes the value through.
			default:
				if got != tt.want {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDateTimeValidator(t *testing.T) {
	fn := DateTime()

	t.Run("time value is normalized to UTC whole seconds", func(t *testing.T) {
		in := time.Date(2026, 8, 25, 19, 30, 0, 500, time.FixedZone("JST", 9*60*60))
		got, err := fn("validityInfo.signed", in)
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
		if !got.(time.Time).Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("string value is parsed", func(t *testing.T) {
		got, err := fn("validityInfo.signed", "2026-08-25T10:30:00Z")
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
		if !got.(time.Time).Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := fn("validityInfo.signed", 12345); err == nil {
			t.Error("expected error for non date-time value")
		}
		if _, err := fn("validityInfo.signed", "tomorrow"); err == nil {
			t.Error("expected error for unparseable string")
		}
	})
}
