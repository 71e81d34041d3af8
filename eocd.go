package zmx

import (
	"fmt"
	"io"

	"github.com/RavuAlHemio/zmx/binio"
)

// EOCDSignature is the magic of an end-of-central-directory record, equivalent to
// b"PK\x05\x06" interpreted as a little-endian uint32.
const EOCDSignature uint32 = 0x06054b50

// EOCDRecordMinLen is the least number of bytes a valid end-of-central-directory record
// occupies on the wire.
const EOCDRecordMinLen = 4 + // signature
	2 + // disk number
	2 + // disk number holding the start of the central directory
	2 + // central directory entries on this disk
	2 + // central directory entries in total
	4 + // central directory size
	4 + // central directory offset on its disk
	2 // comment length

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is the number of this disk (0xffff for Zip64).
	DiskNumber uint16
	// CDStartDiskNumber is the disk where the central directory starts (0xffff for Zip64).
	CDStartDiskNumber uint16
	// CDCountOnDisk is the number of central directory records on this disk (0xffff for Zip64).
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records (0xffff for Zip64).
	CDCount uint16
	// CDSize is the size of the central directory in bytes (0xffffffff for Zip64).
	CDSize uint32
	// CDOffset is the offset of the start of the central directory relative to the start
	// of its disk (0xffffffff for Zip64).
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	//
	// nil means the comment is absent (length 0xffff on the wire) and is distinct from a
	// present but empty comment.
	Comment []byte
}

// ShouldCheckZip64 reports whether any field of the record holds its sentinel value,
// meaning the true value must be sought in the Zip64 end-of-central-directory record.
func (rec EOCDRecord) ShouldCheckZip64() bool {
	return rec.DiskNumber == 0xffff ||
		rec.CDStartDiskNumber == 0xffff ||
		rec.CDCountOnDisk == 0xffff ||
		rec.CDCount == 0xffff ||
		rec.CDSize == 0xffffffff ||
		rec.CDOffset == 0xffffffff
}

// ReadEOCDRecord reads an end-of-central-directory record from r.
//
// The caller must already have consumed and matched the 4-byte signature, typically as
// the final step of a backward signature scan.
func ReadEOCDRecord(r io.Reader) (rec EOCDRecord, err error) {
	if rec.DiskNumber, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read disk number: %w", err)
	}
	if rec.CDStartDiskNumber, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read central directory start disk: %w", err)
	}
	if rec.CDCountOnDisk, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read entry count on disk: %w", err)
	}
	if rec.CDCount, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read total entry count: %w", err)
	}
	if rec.CDSize, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read central directory size: %w", err)
	}
	if rec.CDOffset, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read central directory offset: %w", err)
	}

	commentLength, err := binio.ReadUint16LE(r)
	if err != nil {
		return rec, fmt.Errorf("read comment length: %w", err)
	}
	if commentLength != 0xffff {
		rec.Comment = make([]byte, commentLength)
		if _, err = io.ReadFull(r, rec.Comment); err != nil {
			return rec, fmt.Errorf("read comment: %w", err)
		}
	}

	return rec, nil
}

// WriteTo writes the complete record including its signature.
//
// A comment longer than 0xfffe bytes has its length field capped at the 0xffff sentinel
// while all comment bytes are still written; readers cannot distinguish such a record
// from one with an absent comment followed by trailing data.
func (rec EOCDRecord) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	if err := binio.WriteUint32LE(cw, EOCDSignature); err != nil {
		return cw.n, fmt.Errorf("write signature: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.DiskNumber); err != nil {
		return cw.n, fmt.Errorf("write disk number: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.CDStartDiskNumber); err != nil {
		return cw.n, fmt.Errorf("write central directory start disk: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.CDCountOnDisk); err != nil {
		return cw.n, fmt.Errorf("write entry count on disk: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.CDCount); err != nil {
		return cw.n, fmt.Errorf("write total entry count: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.CDSize); err != nil {
		return cw.n, fmt.Errorf("write central directory size: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.CDOffset); err != nil {
		return cw.n, fmt.Errorf("write central directory offset: %w", err)
	}

	if rec.Comment == nil {
		if err := binio.WriteUint16LE(cw, 0xffff); err != nil {
			return cw.n, fmt.Errorf("write comment length: %w", err)
		}
		return cw.n, nil
	}

	length := uint16(0xffff)
	if n := len(rec.Comment); n < 0xffff {
		length = uint16(n)
	}
	if err := binio.WriteUint16LE(cw, length); err != nil {
		return cw.n, fmt.Errorf("write comment length: %w", err)
	}
	if _, err := cw.Write(rec.Comment); err != nil {
		return cw.n, fmt.Errorf("write comment: %w", err)
	}

	return cw.n, nil
}

// Zip64EOCDLocatorSignature is the magic of a Zip64 end-of-central-directory locator
// record, equivalent to b"PK\x06\x07" interpreted as a little-endian uint32.
const Zip64EOCDLocatorSignature uint32 = 0x07064b50

// Zip64EOCDLocatorMinLen is the number of bytes a Zip64 end-of-central-directory
// locator record occupies on the wire.
const Zip64EOCDLocatorMinLen = 4 + // signature
	4 + // disk number holding the Zip64 end-of-central-directory record
	8 + // offset of the Zip64 end-of-central-directory record on that disk
	4 // total number of disks

// Zip64EOCDLocator points at the Zip64 end-of-central-directory record from near the
// end of the archive, where it can be found by a backward signature scan.
type Zip64EOCDLocator struct {
	// DiskNumber is the disk holding the Zip64 end-of-central-directory record.
	DiskNumber uint32
	// Offset is the absolute offset of the Zip64 end-of-central-directory record on
	// that disk.
	Offset uint64
	// TotalDisks is the total number of disks making up the archive.
	TotalDisks uint32
}

// ReadZip64EOCDLocator reads a Zip64 end-of-central-directory locator record from r.
//
// The caller must already have consumed and matched the 4-byte signature.
func ReadZip64EOCDLocator(r io.Reader) (rec Zip64EOCDLocator, err error) {
	if rec.DiskNumber, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read disk number: %w", err)
	}
	if rec.Offset, err = binio.ReadUint64LE(r); err != nil {
		return rec, fmt.Errorf("read offset: %w", err)
	}
	if rec.TotalDisks, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read total disks: %w", err)
	}
	return rec, nil
}

// WriteTo writes the complete record including its signature.
func (rec Zip64EOCDLocator) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	if err := binio.WriteUint32LE(cw, Zip64EOCDLocatorSignature); err != nil {
		return cw.n, fmt.Errorf("write signature: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.DiskNumber); err != nil {
		return cw.n, fmt.Errorf("write disk number: %w", err)
	}
	if err := binio.WriteUint64LE(cw, rec.Offset); err != nil {
		return cw.n, fmt.Errorf("write offset: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.TotalDisks); err != nil {
		return cw.n, fmt.Errorf("write total disks: %w", err)
	}
	return cw.n, nil
}

// Zip64EOCDSignature is the magic of a Zip64 end-of-central-directory record,
// equivalent to b"PK\x06\x06" interpreted as a little-endian uint32.
const Zip64EOCDSignature uint32 = 0x06064b50

// zip64EOCDFixedLen is the span of the fixed fields of a Zip64 end-of-central-directory
// record, excluding the signature and the size field; the record's declared size covers
// these fields plus the extensible data sector.
const zip64EOCDFixedLen = 2 + // creator version
	2 + // required version
	4 + // disk number
	4 + // disk number holding the start of the central directory
	8 + // central directory entries on this disk
	8 + // central directory entries in total
	8 + // central directory size
	8 // central directory offset on its disk

// Zip64EOCDMinLen is the least number of bytes a valid Zip64 end-of-central-directory
// record occupies on the wire.
const Zip64EOCDMinLen = 4 + // signature
	8 + // declared size
	zip64EOCDFixedLen

// Zip64EOCDRecord models the Zip64 end of central directory record, the widened
// counterpart of EOCDRecord that allows archives beyond the classic 32-bit limits.
type Zip64EOCDRecord struct {
	// CreatorVersion is the ZIP version supported by the software that wrote the archive.
	CreatorVersion uint16
	// RequiredVersion is the ZIP version required to extract the archive.
	RequiredVersion uint16
	// DiskNumber is the number of this disk.
	DiskNumber uint32
	// CDStartDiskNumber is the disk where the central directory starts.
	CDStartDiskNumber uint32
	// CDCountOnDisk is the number of central directory records on this disk.
	CDCountOnDisk uint64
	// CDCount is the total number of central directory records.
	CDCount uint64
	// CDSize is the size of the central directory in bytes.
	CDSize uint64
	// CDOffset is the offset of the start of the central directory relative to the start
	// of its disk.
	CDOffset uint64
	// ExtensibleData is the Zip64 extensible data sector, kept verbatim and never
	// interpreted.
	ExtensibleData []byte
}

// ReadZip64EOCDRecord reads a Zip64 end-of-central-directory record from r.
//
// The caller must already have consumed and matched the 4-byte signature. The declared
// size that follows it covers the fixed fields plus the extensible data sector;
// ErrRecordTooSmall is returned if it cannot even hold the fixed fields.
func ReadZip64EOCDRecord(r io.Reader) (rec Zip64EOCDRecord, err error) {
	size, err := binio.ReadUint64LE(r)
	if err != nil {
		return rec, fmt.Errorf("read declared size: %w", err)
	}
	if size < zip64EOCDFixedLen {
		return rec, ErrRecordTooSmall
	}
	extensibleLength := size - zip64EOCDFixedLen

	if rec.CreatorVersion, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read creator version: %w", err)
	}
	if rec.RequiredVersion, err = binio.ReadUint16LE(r); err != nil {
		return rec, fmt.Errorf("read required version: %w", err)
	}
	if rec.DiskNumber, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read disk number: %w", err)
	}
	if rec.CDStartDiskNumber, err = binio.ReadUint32LE(r); err != nil {
		return rec, fmt.Errorf("read central directory start disk: %w", err)
	}
	if rec.CDCountOnDisk, err = binio.ReadUint64LE(r); err != nil {
		return rec, fmt.Errorf("read entry count on disk: %w", err)
	}
	if rec.CDCount, err = binio.ReadUint64LE(r); err != nil {
		return rec, fmt.Errorf("read total entry count: %w", err)
	}
	if rec.CDSize, err = binio.ReadUint64LE(r); err != nil {
		return rec, fmt.Errorf("read central directory size: %w", err)
	}
	if rec.CDOffset, err = binio.ReadUint64LE(r); err != nil {
		return rec, fmt.Errorf("read central directory offset: %w", err)
	}

	rec.ExtensibleData = make([]byte, extensibleLength)
	if _, err = io.ReadFull(r, rec.ExtensibleData); err != nil {
		return rec, fmt.Errorf("read extensible data sector: %w", err)
	}

	return rec, nil
}

// WriteTo writes the complete record including its signature. The declared size is
// computed as the fixed fields plus the extensible data sector, excluding the signature
// and the size field itself.
func (rec Zip64EOCDRecord) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	if err := binio.WriteUint32LE(cw, Zip64EOCDSignature); err != nil {
		return cw.n, fmt.Errorf("write signature: %w", err)
	}
	if err := binio.WriteUint64LE(cw, zip64EOCDFixedLen+uint64(len(rec.ExtensibleData))); err != nil {
		return cw.n, fmt.Errorf("write declared size: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.CreatorVersion); err != nil {
		return cw.n, fmt.Errorf("write creator version: %w", err)
	}
	if err := binio.WriteUint16LE(cw, rec.RequiredVersion); err != nil {
		return cw.n, fmt.Errorf("write required version: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.DiskNumber); err != nil {
		return cw.n, fmt.Errorf("write disk number: %w", err)
	}
	if err := binio.WriteUint32LE(cw, rec.CDStartDiskNumber); err != nil {
		return cw.n, fmt.Errorf("write central directory start disk: %w", err)
	}
	if err := binio.WriteUint64LE(cw, rec.CDCountOnDisk); err != nil {
		return cw.n, fmt.Errorf("write entry count on disk: %w", err)
	}
	if err := binio.WriteUint64LE(cw, rec.CDCount); err != nil {
		return cw.n, fmt.Errorf("write total entry count: %w", err)
	}
	if err := binio.WriteUint64LE(cw, rec.CDSize); err != nil {
		return cw.n, fmt.Errorf("write central directory size: %w", err)
	}
	if err := binio.WriteUint64LE(cw, rec.CDOffset); err != nil {
		return cw.n, fmt.Errorf("write central directory offset: %w", err)
	}
	if _, err := cw.Write(rec.ExtensibleData); err != nil {
		return cw.n, fmt.Errorf("write extensible data sector: %w", err)
	}

	return cw.n, nil
}

// countingWriter tracks how many bytes have been written for the WriteTo methods.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
