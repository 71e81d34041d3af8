package zmx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uint64p(v uint64) *uint64 { return &v }
func uint32p(v uint32) *uint32 { return &v }

func TestZip64ExtraField_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  CentralDirectoryEntry
		x    Zip64ExtraField
	}{
		{
			name: "uncompressed size only",
			rec:  CentralDirectoryEntry{UncompressedSize: 0xffffffff},
			x:    Zip64ExtraField{UncompressedSize: uint64p(0x1_0000_0000)},
		},
		{
			name: "both sizes",
			rec:  CentralDirectoryEntry{UncompressedSize: 0xffffffff, CompressedSize: 0xffffffff},
			x: Zip64ExtraField{
				UncompressedSize: uint64p(0x1_0000_0000),
				CompressedSize:   uint64p(0xfffe_0000),
			},
		},
		{
			name: "offset and disk number",
			rec:  CentralDirectoryEntry{DiskNumber: 0xffff, LocalHeaderOffset: -1},
			x: Zip64ExtraField{
				LocalHeaderOffset: uint64p(0x2_0000_002a),
				DiskNumber:        uint32p(0),
			},
		},
		{
			name: "all four",
			rec: CentralDirectoryEntry{
				UncompressedSize:  0xffffffff,
				CompressedSize:    0xffffffff,
				LocalHeaderOffset: -1,
				DiskNumber:        0xffff,
			},
			x: Zip64ExtraField{
				UncompressedSize:  uint64p(1),
				CompressedSize:    uint64p(2),
				LocalHeaderOffset: uint64p(3),
				DiskNumber:        uint32p(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			n, err := tt.x.WriteTo(buf)
			assert.NoErrorf(t, err, "WriteTo() error = %v", err)
			assert.Equal(t, int64(buf.Len()), n)
			assert.GreaterOrEqual(t, buf.Len(), Zip64ExtraFieldMinLen)

			rec := tt.rec
			rec.Extra = buf.Bytes()

			got, err := rec.Zip64()
			assert.NoErrorf(t, err, "Zip64() error = %v", err)
			assert.Equal(t, &tt.x, got)
		})
	}
}

func TestZip64ExtraField_SkipsForeignTags(t *testing.T) {
	// a UT timestamp sub-record precedes the Zip64 one; the walk must skip it by its
	// declared length.
	extra := []byte{
		0x55, 0x54, 0x05, 0x00, 0x03, 0x12, 0x34, 0x56, 0x78, // tag 0x5455, length 5
		0x01, 0x00, 0x08, 0x00, // tag 0x0001, length 8
		0x2a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // uncompressed size 42
	}
	rec := CentralDirectoryEntry{UncompressedSize: 0xffffffff, Extra: extra}

	got, err := rec.Zip64()
	assert.NoErrorf(t, err, "Zip64() error = %v", err)
	assert.Equal(t, &Zip64ExtraField{UncompressedSize: uint64p(42)}, got)
}

func TestZip64ExtraField_Absent(t *testing.T) {
	tests := []struct {
		name  string
		extra []byte
	}{
		{name: "no extra block", extra: nil},
		{name: "only foreign tags", extra: []byte{0x55, 0x54, 0x02, 0x00, 0xaa, 0xbb}},
		{name: "truncated mid-tag", extra: []byte{0x01}},
		{name: "truncated mid-length", extra: []byte{0x55, 0x54, 0x02}},
		{name: "foreign length overruns block", extra: []byte{0x55, 0x54, 0xff, 0x7f, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := CentralDirectoryEntry{UncompressedSize: 0xffffffff, Extra: tt.extra}

			got, err := rec.Zip64()
			assert.NoErrorf(t, err, "Zip64() error = %v", err)
			assert.Nil(t, got)
		})
	}
}

func TestZip64ExtraField_LengthMismatch(t *testing.T) {
	tests := []struct {
		name     string
		rec      CentralDirectoryEntry
		declared uint16
	}{
		{
			// entry expects 8 bytes for the uncompressed size; record declares 16.
			name:     "too long",
			rec:      CentralDirectoryEntry{UncompressedSize: 0xffffffff},
			declared: 16,
		},
		{
			// entry expects 16 bytes for both sizes; record declares 8.
			name:     "too short",
			rec:      CentralDirectoryEntry{UncompressedSize: 0xffffffff, CompressedSize: 0xffffffff},
			declared: 8,
		},
		{
			// no field is sentineled, so the only acceptable declared length is 0.
			name:     "nothing expected",
			rec:      CentralDirectoryEntry{},
			declared: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extra := []byte{0x01, 0x00, byte(tt.declared), byte(tt.declared >> 8)}
			extra = append(extra, make([]byte, tt.declared)...)

			rec := tt.rec
			rec.Extra = extra

			got, err := rec.Zip64()
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrUnexpectedExtraDataLength)

			var mismatch UnexpectedExtraDataLengthError
			assert.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.declared, mismatch.Declared)
		})
	}
}

func TestUncompressedSize64(t *testing.T) {
	// plain 32-bit value passes through.
	rec := CentralDirectoryEntry{UncompressedSize: 300}
	v, err := rec.UncompressedSize64()
	assert.NoErrorf(t, err, "UncompressedSize64() error = %v", err)
	assert.Equal(t, uint64(300), v)

	// sentinel resolves through the extra field.
	rec = CentralDirectoryEntry{
		UncompressedSize: 0xffffffff,
		Extra: []byte{
			0x01, 0x00, 0x08, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		},
	}
	v, err = rec.UncompressedSize64()
	assert.NoErrorf(t, err, "UncompressedSize64() error = %v", err)
	assert.Equal(t, uint64(0x1_0000_0000), v)

	// sentinel with no extra field stays raw.
	rec = CentralDirectoryEntry{UncompressedSize: 0xffffffff}
	v, err = rec.UncompressedSize64()
	assert.NoErrorf(t, err, "UncompressedSize64() error = %v", err)
	assert.Equal(t, uint64(0xffffffff), v)
}
