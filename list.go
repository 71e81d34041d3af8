// Package zmx reads the central directory metadata of a ZIP archive and performs
// targeted in-place edits that mark individual entries as Unix-executable or not,
// without rewriting the archive's compressed data.
//
// Every operation works against a caller-supplied seekable byte stream, typically an
// open *os.File; nothing is cached between calls and callers serialize shared streams
// themselves. The wire layouts follow the ZIP/Zip64 APPNOTE specification exactly.
package zmx

import (
	"errors"
	"fmt"
	"io"

	"github.com/RavuAlHemio/zmx/binio"
)

// lookbackForSignature scans rs backward, one byte at a time, for the given 4-byte
// little-endian signature.
//
// The scan begins at the current stream position. On a match it returns true with the
// stream positioned just past the signature; reaching position 0 without a match returns
// false without error, as does an empty search window. Reads that run past the end of
// the stream count as mismatches, which lets a search legitimately start at end of file.
//
// The scan is exhaustive and O(stream size) in the worst case. There is no cheaper
// strategy that stays correct: the end-of-central-directory comment of unbounded length
// sits after the record's fixed fields, so the signature can be arbitrarily far from the
// end of the archive.
func lookbackForSignature(rs io.ReadSeeker, signature uint32) (bool, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, fmt.Errorf("get search position: %w", err)
	}

	for {
		switch v, err := binio.ReadUint32LE(rs); {
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
			// no 4 bytes to read here; treat as mismatch and step back.
		case err != nil:
			return false, fmt.Errorf("read possible signature at %d: %w", pos, err)
		case v == signature:
			return true, nil
		}

		if pos == 0 {
			return false, nil
		}
		pos--
		if _, err = rs.Seek(pos, io.SeekStart); err != nil {
			return false, fmt.Errorf("step back to %d: %w", pos, err)
		}
	}
}

// List reads the archive's central directory and returns its entries in the order
// encountered, each carrying the absolute offset of its header.
//
// The order is the on-disk order of the central directory, not sorted; an empty archive
// yields an empty list, not an error. Callers holding the list across external
// modifications of the archive must re-list, since the offsets become stale.
//
// The end-of-central-directory record is found by backward signature search from the
// last position its fixed fields could start at. When any of its fields holds a sentinel
// value, the Zip64 augmentation is sought: the Zip64 locator is searched for backward
// from the record, and only if its target actually starts with the Zip64
// end-of-central-directory signature does that record supply the directory offset and
// entry counts. In every other case the classic fields are used as they are, sentinels
// included. Archives spanning multiple disks are rejected with ErrSpannedArchive.
func List(rs io.ReadSeeker) ([]Entry, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("get file size: %w", err)
	}

	// the last position the fixed fields of an EOCD record could start at; clamped so
	// that files too small for any EOCD still search (and fail) cleanly from 0.
	if _, err = rs.Seek(max(size-EOCDRecordMinLen, 0), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to EOCD search start: %w", err)
	}
	switch found, err := lookbackForSignature(rs, EOCDSignature); {
	case err != nil:
		return nil, fmt.Errorf("find EOCD: %w", err)
	case !found:
		return nil, ErrMissingEndOfCentralDirectory
	}

	eocd, err := ReadEOCDRecord(rs)
	if err != nil {
		return nil, fmt.Errorf("read EOCD: %w", err)
	}
	if eocd.DiskNumber != 0 {
		return nil, ErrSpannedArchive
	}

	var zip64CDOffset *uint64
	if eocd.ShouldCheckZip64() {
		// reading the EOCD left the cursor past its comment; re-locating the signature
		// resets the cursor so the locator search starts just past it.
		if _, err = lookbackForSignature(rs, EOCDSignature); err != nil {
			return nil, fmt.Errorf("relocate EOCD: %w", err)
		}

		switch found, err := lookbackForSignature(rs, Zip64EOCDLocatorSignature); {
		case err != nil:
			return nil, fmt.Errorf("find Zip64 EOCD locator: %w", err)
		case found:
			loc, err := ReadZip64EOCDLocator(rs)
			if err != nil {
				return nil, fmt.Errorf("read Zip64 EOCD locator: %w", err)
			}
			if loc.DiskNumber != 0 || loc.TotalDisks != 1 {
				return nil, ErrSpannedArchive
			}

			if _, err = rs.Seek(int64(loc.Offset), io.SeekStart); err != nil {
				return nil, fmt.Errorf("seek to Zip64 EOCD: %w", err)
			}
			sig, err := binio.ReadUint32LE(rs)
			if err != nil {
				return nil, fmt.Errorf("read Zip64 EOCD signature: %w", err)
			}
			if sig == Zip64EOCDSignature {
				rec, err := ReadZip64EOCDRecord(rs)
				if err != nil {
					return nil, fmt.Errorf("read Zip64 EOCD: %w", err)
				}
				if rec.CDCount != rec.CDCountOnDisk {
					return nil, ErrSpannedArchive
				}
				zip64CDOffset = &rec.CDOffset
			}
		}
	}

	var cdOffset uint64
	if zip64CDOffset != nil {
		cdOffset = *zip64CDOffset
	} else {
		// the counts are compared raw here, even when they still hold sentinels that no
		// Zip64 record resolved.
		if eocd.CDCount != eocd.CDCountOnDisk {
			return nil, ErrSpannedArchive
		}
		cdOffset = uint64(eocd.CDOffset)
	}

	if _, err = rs.Seek(int64(cdOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to central directory: %w", err)
	}

	var entries []Entry
	for {
		pos, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("get entry offset: %w", err)
		}
		sig, err := binio.ReadUint32LE(rs)
		if err != nil {
			return nil, fmt.Errorf("read signature at %d: %w", pos, err)
		}
		if sig != CentralDirectoryEntrySignature {
			// first record past the directory; usually the EOCD or its Zip64 augmentation.
			break
		}

		rec, err := ReadCentralDirectoryEntry(rs)
		if err != nil {
			return nil, fmt.Errorf("read central directory entry at %d: %w", pos, err)
		}
		entries = append(entries, Entry{
			CentralDirectoryEntry: rec,
			Disk:                  0,
			Offset:                uint64(pos),
		})
	}

	return entries, nil
}
