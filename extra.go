package zmx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/RavuAlHemio/zmx/binio"
)

// Zip64ExtraFieldTag is the header tag of the Zip64 extended-information sub-record
// within an entry's extra field block.
const Zip64ExtraFieldTag uint16 = 0x0001

// Zip64ExtraFieldMinLen is the least number of bytes a Zip64 extra field occupies on the
// wire: an empty sub-record carrying only its framing.
const Zip64ExtraFieldMinLen = 2 + // header tag
	2 // data length

// Zip64ExtraField holds the widened values of the central directory entry fields that
// overflowed their classic widths.
//
// Only the fields whose classic counterpart holds its sentinel value appear on the wire,
// in the fixed order below; the others stay nil. The sentinel convention means a field
// never legitimately carries the sentinel as its true value.
type Zip64ExtraField struct {
	// UncompressedSize is present when the entry's 32-bit uncompressed size is 0xffffffff.
	UncompressedSize *uint64
	// CompressedSize is present when the entry's 32-bit compressed size is 0xffffffff.
	CompressedSize *uint64
	// LocalHeaderOffset is present when the entry's 32-bit local header offset is -1.
	LocalHeaderOffset *uint64
	// DiskNumber is present when the entry's 16-bit disk number is 0xffff.
	DiskNumber *uint32
}

// Zip64 walks the entry's extra field block for the Zip64 sub-record and decodes it.
//
// Returns (nil, nil) if the block carries no Zip64 sub-record, including when the block's
// tag+length framing runs out before one is found. A Zip64 sub-record whose declared
// length does not equal the widths of exactly the sentinel-valued entry fields fails with
// an UnexpectedExtraDataLengthError carrying the declared length; no partial decode is
// attempted.
func (rec CentralDirectoryEntry) Zip64() (*Zip64ExtraField, error) {
	r := bytes.NewReader(rec.Extra)
	for {
		tag, err := binio.ReadUint16LE(r)
		if err != nil {
			// clean end of the block, or framing truncated mid-tag.
			return nil, nil
		}
		length, err := binio.ReadUint16LE(r)
		if err != nil {
			return nil, nil
		}

		if tag != Zip64ExtraFieldTag {
			// seeking past the end is fine; the next tag read stops the walk.
			if _, err = r.Seek(int64(length), io.SeekCurrent); err != nil {
				return nil, nil
			}
			continue
		}

		x, err := readZip64ExtraField(r, length, rec)
		if err != nil {
			return nil, err
		}
		return &x, nil
	}
}

// readZip64ExtraField decodes the payload of a Zip64 sub-record whose tag and declared
// length have already been consumed.
//
// The originating entry supplies the context: only its sentinel-valued fields are
// expected in the payload, in fixed order, and the declared length must equal the sum of
// exactly their widths.
func readZip64ExtraField(r io.Reader, declared uint16, rec CentralDirectoryEntry) (x Zip64ExtraField, err error) {
	var expected uint16
	if rec.UncompressedSize == 0xffffffff {
		expected += 8
	}
	if rec.CompressedSize == 0xffffffff {
		expected += 8
	}
	if rec.LocalHeaderOffset == -1 {
		expected += 8
	}
	if rec.DiskNumber == 0xffff {
		expected += 4
	}
	if declared != expected {
		return x, UnexpectedExtraDataLengthError{Declared: declared}
	}

	if rec.UncompressedSize == 0xffffffff {
		v, err := binio.ReadUint64LE(r)
		if err != nil {
			return x, fmt.Errorf("read uncompressed size: %w", err)
		}
		x.UncompressedSize = &v
	}
	if rec.CompressedSize == 0xffffffff {
		v, err := binio.ReadUint64LE(r)
		if err != nil {
			return x, fmt.Errorf("read compressed size: %w", err)
		}
		x.CompressedSize = &v
	}
	if rec.LocalHeaderOffset == -1 {
		v, err := binio.ReadUint64LE(r)
		if err != nil {
			return x, fmt.Errorf("read local header offset: %w", err)
		}
		x.LocalHeaderOffset = &v
	}
	if rec.DiskNumber == 0xffff {
		v, err := binio.ReadUint32LE(r)
		if err != nil {
			return x, fmt.Errorf("read disk number: %w", err)
		}
		x.DiskNumber = &v
	}

	return x, nil
}

// WriteTo writes the sub-record including its tag and length framing. The declared length
// is computed from the widths of the present fields, which are written in fixed order.
func (x Zip64ExtraField) WriteTo(w io.Writer) (int64, error) {
	var length uint16
	if x.UncompressedSize != nil {
		length += 8
	}
	if x.CompressedSize != nil {
		length += 8
	}
	if x.LocalHeaderOffset != nil {
		length += 8
	}
	if x.DiskNumber != nil {
		length += 4
	}

	cw := &countingWriter{w: w}

	if err := binio.WriteUint16LE(cw, Zip64ExtraFieldTag); err != nil {
		return cw.n, fmt.Errorf("write header tag: %w", err)
	}
	if err := binio.WriteUint16LE(cw, length); err != nil {
		return cw.n, fmt.Errorf("write data length: %w", err)
	}
	if x.UncompressedSize != nil {
		if err := binio.WriteUint64LE(cw, *x.UncompressedSize); err != nil {
			return cw.n, fmt.Errorf("write uncompressed size: %w", err)
		}
	}
	if x.CompressedSize != nil {
		if err := binio.WriteUint64LE(cw, *x.CompressedSize); err != nil {
			return cw.n, fmt.Errorf("write compressed size: %w", err)
		}
	}
	if x.LocalHeaderOffset != nil {
		if err := binio.WriteUint64LE(cw, *x.LocalHeaderOffset); err != nil {
			return cw.n, fmt.Errorf("write local header offset: %w", err)
		}
	}
	if x.DiskNumber != nil {
		if err := binio.WriteUint32LE(cw, *x.DiskNumber); err != nil {
			return cw.n, fmt.Errorf("write disk number: %w", err)
		}
	}

	return cw.n, nil
}

// UncompressedSize64 returns the entry's uncompressed size, resolved through the Zip64
// extra field when the 32-bit field holds its sentinel.
//
// If the field is sentinel-valued but the entry carries no Zip64 sub-record, the raw
// sentinel is returned unresolved rather than guessed at.
func (rec CentralDirectoryEntry) UncompressedSize64() (uint64, error) {
	if rec.UncompressedSize != 0xffffffff {
		return uint64(rec.UncompressedSize), nil
	}

	x, err := rec.Zip64()
	if err != nil {
		return 0, err
	}
	if x == nil || x.UncompressedSize == nil {
		return uint64(rec.UncompressedSize), nil
	}
	return *x.UncompressedSize, nil
}

// CompressedSize64 returns the entry's compressed size, resolved through the Zip64 extra
// field when the 32-bit field holds its sentinel.
func (rec CentralDirectoryEntry) CompressedSize64() (uint64, error) {
	if rec.CompressedSize != 0xffffffff {
		return uint64(rec.CompressedSize), nil
	}

	x, err := rec.Zip64()
	if err != nil {
		return 0, err
	}
	if x == nil || x.CompressedSize == nil {
		return uint64(rec.CompressedSize), nil
	}
	return *x.CompressedSize, nil
}
