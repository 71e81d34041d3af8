package zmx

import (
	"fmt"
	"io"
	"time"

	"github.com/RavuAlHemio/zmx/binio"
	"github.com/valyala/bytebufferpool"
)

// CentralDirectoryEntrySignature is the magic of a central directory entry, equivalent
// to b"PK\x01\x02" interpreted as a little-endian uint32.
const CentralDirectoryEntrySignature uint32 = 0x02014b50

// CentralDirectoryEntryMinLen is the least number of bytes a valid central directory
// entry occupies on the wire.
const CentralDirectoryEntryMinLen = 4 + // signature
	2 + // creator version
	2 + // required version
	2 + // general-purpose flags
	2 + // compression method
	2 + // modification time
	2 + // modification date
	4 + // CRC-32
	4 + // compressed size
	4 + // uncompressed size
	2 + // file name length
	2 + // extra field length
	2 + // file comment length
	2 + // disk number of first chunk
	2 + // internal attributes
	4 + // external attributes
	4 // local header offset

// CentralDirectoryEntry models one file or directory record of the central directory.
//
// The sizes, the disk number and the local header offset keep their raw wire values;
// when one equals its sentinel (0xffffffff, 0xffff, or -1 respectively) the true value
// lives in the entry's Zip64 extra field, see Zip64.
type CentralDirectoryEntry struct {
	// CreatorVersion is the ZIP version the writing software supports in its low byte
	// and the originating operating system in its high byte (0x03 is Unix).
	CreatorVersion uint16
	// RequiredVersion is the ZIP version required to extract this entry.
	RequiredVersion uint16
	// Flags holds the general-purpose flag bits.
	Flags uint16
	// Method is the compression method of the entry data.
	Method uint16
	// ModifiedTime is the modification time in MS-DOS encoding.
	ModifiedTime uint16
	// ModifiedDate is the modification date in MS-DOS encoding.
	ModifiedDate uint16
	// CRC32 is the checksum of the uncompressed entry data.
	CRC32 uint32
	// CompressedSize is the size of the compressed entry data (0xffffffff for Zip64).
	CompressedSize uint32
	// UncompressedSize is the size of the uncompressed entry data (0xffffffff for Zip64).
	UncompressedSize uint32
	// DiskNumber is the disk holding the first chunk of the entry data (0xffff for Zip64).
	DiskNumber uint16
	// InternalAttributes holds the internal attribute bits.
	InternalAttributes uint16
	// ExternalAttributes holds DOS attributes in its low 16 bits and, for entries of
	// Unix origin, st_mode-style bits in its high 16 bits.
	ExternalAttributes uint32
	// LocalHeaderOffset is the offset of the entry's local header relative to the start
	// of its disk (-1 for Zip64).
	LocalHeaderOffset int32

	// Name is the stored file name, which is not necessarily valid text; see DecodeName.
	Name []byte
	// Extra is the extra field block, a sequence of tag+length+payload sub-records.
	Extra []byte
	// Comment is the stored file comment.
	Comment []byte
}

// Modified returns the entry's MS-DOS modification date and time as a time.Time with
// 2-second resolution.
func (e CentralDirectoryEntry) Modified() time.Time {
	return msDosTimeToTime(e.ModifiedDate, e.ModifiedTime)
}

// ReadCentralDirectoryEntry reads a central directory entry from r.
//
// The caller must already have consumed and matched the 4-byte signature, typically
// while walking the central directory.
func ReadCentralDirectoryEntry(r io.Reader) (rec CentralDirectoryEntry, err error) {
	if rec.CreatorVersion, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read creator version: %w", err)
	}
	if rec.RequiredVersion, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read required version: %w", err)
	}
	if rec.Flags, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read flags: %w", err)
	}
	if rec.Method, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read compression method: %w", err)
	}
	if rec.ModifiedTime, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read modification time: %w", err)
	}
	if rec.ModifiedDate, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read modification date: %w", err)
	}
	if rec.CRC32, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read CRC-32: %w", err)
	}
	if rec.CompressedSize, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read compressed size: %w", err)
	}
	if rec.UncompressedSize, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read uncompressed size: %w", err)
	}
	nameLength, err := binio.ReadUint16LE(r)
	if err != nil {
		return rec, fmt.Errorf("read file name length: %w", err)
	}
	extraLength, err := binio.ReadUint16LE(r)
	if err != nil {
		return rec, fmt.Errorf("read extra field length: %w", err)
	}
	commentLength, err := binio.ReadUint16LE(r)
	if err != nil {
		return rec, fmt.Errorf("read file comment length: %w", err)
	}
	if rec.DiskNumber, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read disk number: %w", err)
	}
	if rec.InternalAttributes, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read internal attributes: %w", err)
	}
	if rec.ExternalAttributes, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read external attributes: %w", err)
	}
	if rec.LocalHeaderOffset, err = binio.ReadInt32LE(r); err != nil {
		return rec, fmt.Errorf("read local header offset: %w", err)
	}

	// the variable tail is read in one go through a pooled scratch buffer, then copied
	// out into the three owned slices.
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	n, m, k := int(nameLength), int(extraLength), int(commentLength)
	total := n + m + k
	if cap(bb.B) < total {
		bb.B = make([]byte, total)
	} else {
		bb.B = bb.B[:total]
	}
	if _, err = io.ReadFull(r, bb.B); err != nil {
		return rec, fmt.Errorf("read file name, extra field and comment: %w", err)
	}

	rec.Name = make([]byte, n)
	copy(rec.Name, bb.B[:n])
	rec.Extra = make([]byte, m)
	copy(rec.Extra, bb.B[n:n+m])
	rec.Comment = make([]byte, k)
	copy(rec.Comment, bb.B[n+m:])

	return rec, nil
}

// WriteTo writes the complete record including its signature.
//
// The name and comment length fields are capped at the 0xffff sentinel while all bytes
// are still written; an extra field block longer than 0xffff bytes fails with
// ErrFieldTooLong instead, since truncating its length would corrupt the tag+length
// framing of the sub-records.
func (rec CentralDirectoryEntry) WriteTo(w io.Writer) (int64, error) {
	if len(rec.Extra) > 0xffff {
		return 0, ErrFieldTooLong
	}

	cw := &countingWriter{w: w}

	if err := binio.WriteUint32LE(cw, CentralDirectoryEntrySignature); err != nil {
		return cw.n, fmt.Errorf("write signature: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.CreatorVersion); err != nil {
		return cw.n, fmt.Errorf("write creator version: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.RequiredVersion); err != nil {
		return cw.n, fmt.Errorf("write required version: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.Flags); err != nil {
		return cw.n, fmt.Errorf("write flags: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.Method); err != nil {
		return cw.n, fmt.Errorf("write compression method: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.ModifiedTime); err != nil {
		return cw.n, fmt.Errorf("write modification time: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.ModifiedDate); err != nil {
		return cw.n, fmt.Errorf("write modification date: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.CRC32); err != nil {
		return cw.n, fmt.Errorf("write CRC-32: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.CompressedSize); err != nil {
		return cw.n, fmt.Errorf("write compressed size: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.UncompressedSize); err != nil {
		return cw.n, fmt.Errorf("write uncompressed size: %w", err)
	}
	if err := binio.WriteUint16LE(cw, capLength(len(rec.Name))); err != nil {
		return cw.n, fmt.Errorf("write file name length: %w", err)
	}
	if err := binio.WriteUint16LE(cw, uint16(len(rec.Extra))); err != nil {
		return cw.n, fmt.Errorf("write extra field length: %w", err)
	}
	if err := binio.WriteUint16LE(cw, capLength(len(rec.Comment))); err != nil {
		return cw.n, fmt.Errorf("write file comment length: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.DiskNumber); err != nil {
		return cw.n, fmt.Errorf("write disk number: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.InternalAttributes); err != nil {
		return cw.n, fmt.Errorf("write internal attributes: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.ExternalAttributes); err != nil {
		return cw.n, fmt.Errorf("write external attributes: %w", err)
	}
	if err := binio.WriteInt32LE(cw, rec.LocalHeaderOffset); err != nil {
		return cw.n, fmt.Errorf("write local header offset: %w", err)
	}
	if _, err := cw.Write(rec.Name); err != nil {
		return cw.n, fmt.Errorf("write file name: %w", err)
	}
	if _, err := cw.Write(rec.Extra); err != nil {
		return cw.n, fmt.Errorf("write extra field: %w", err)
	}
	if _, err := cw.Write(rec.Comment); err != nil {
		return cw.n, fmt.Errorf("write file comment: %w", err)
	}

	return cw.n, nil
}

// capLength converts a byte count to the 16-bit length field value, capping overlong
// values at the 0xffff sentinel.
func capLength(n int) uint16 {
	if n >= 0xffff {
		return 0xffff
	}
	return uint16(n)
}

// Entry is a central directory entry together with its location within the archive.
type Entry struct {
	CentralDirectoryEntry

	// Disk is the disk the entry's header was read from, currently always 0.
	Disk uint32
	// Offset is the absolute offset of the entry's header within the archive. It is the
	// handle the patch operations take and stays valid until the archive is rewritten by
	// something other than a patch.
	Offset uint64
}

// msDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
// See: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-dosdatetimetofiletime
//
// taken from https://go.dev/src/archive/zip/struct.go.
func msDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0, // nanoseconds

		time.UTC,
	)
}
