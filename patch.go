package zmx

import (
	"fmt"
	"io"

	"github.com/RavuAlHemio/zmx/binio"
)

// MakeExecutable rewrites the central directory entry at the given absolute offset so
// that the entry counts as executable: the creator version's high byte becomes Unix
// (its low byte is preserved), the Unix file type is forced to regular file, and the
// execute bits of user, group and others are turned on without disturbing the remaining
// permission bits.
//
// The offset comes from a prior List call; a stale or wrong offset fails with
// ErrIncorrectSignature before anything is written. At most 6 bytes are rewritten in
// place and the archive's length never changes. The operation is idempotent.
func MakeExecutable(f io.ReadWriteSeeker, offset uint64) error {
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("seek to entry header: %w", err)
	}

	switch sig, err := binio.ReadUint32LE(f); {
	case err != nil:
		return fmt.Errorf("read signature: %w", err)
	case sig != CentralDirectoryEntrySignature:
		return ErrIncorrectSignature
	}

	// force the origin to Unix, keeping the format version in the low byte.
	creatorVersion, err := binio.ReadUint16LE(f)
	if err != nil {
		return fmt.Errorf("read creator version: %w", err)
	}
	creatorVersion = creatorVersion&0x00ff | HostUnix<<8
	if _, err = f.Seek(-2, io.SeekCurrent); err != nil {
		return fmt.Errorf("seek back to creator version: %w", err)
	}
	if err = binio.WriteUint16LE(f, creatorVersion); err != nil {
		return fmt.Errorf("write creator version: %w", err)
	}

	if err = skipToExternalAttributes(f); err != nil {
		return err
	}

	externalAttributes, err := binio.ReadUint32LE(f)
	if err != nil {
		return fmt.Errorf("read external attributes: %w", err)
	}
	externalAttributes = externalAttributes&^(uint32(UnixModeTypeMask)<<16) | uint32(UnixModeTypeRegular)<<16
	externalAttributes |= uint32(UnixModeExecuteAll) << 16
	if _, err = f.Seek(-4, io.SeekCurrent); err != nil {
		return fmt.Errorf("seek back to external attributes: %w", err)
	}
	if err = binio.WriteUint32LE(f, externalAttributes); err != nil {
		return fmt.Errorf("write external attributes: %w", err)
	}

	return nil
}

// MakeNotExecutable rewrites the central directory entry at the given absolute offset so
// that the entry no longer counts as executable, by clearing the execute bits of user,
// group and others.
//
// An entry whose origin is not Unix cannot be executable under this format's convention,
// so it is left untouched and the call succeeds. Likewise no write happens when none of
// the execute bits are set, so tools watching the archive's content hash see no change.
// At most 4 bytes are rewritten in place and the archive's length never changes. The
// operation is idempotent.
func MakeNotExecutable(f io.ReadWriteSeeker, offset uint64) error {
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("seek to entry header: %w", err)
	}

	switch sig, err := binio.ReadUint32LE(f); {
	case err != nil:
		return fmt.Errorf("read signature: %w", err)
	case sig != CentralDirectoryEntrySignature:
		return ErrIncorrectSignature
	}

	creatorVersion, err := binio.ReadUint16LE(f)
	if err != nil {
		return fmt.Errorf("read creator version: %w", err)
	}
	if creatorVersion>>8 != HostUnix {
		return nil
	}

	if err = skipToExternalAttributes(f); err != nil {
		return err
	}

	externalAttributes, err := binio.ReadUint32LE(f)
	if err != nil {
		return fmt.Errorf("read external attributes: %w", err)
	}
	if externalAttributes&(uint32(UnixModeExecuteAll)<<16) == 0 {
		return nil
	}

	externalAttributes &^= uint32(UnixModeExecuteAll) << 16
	if _, err = f.Seek(-4, io.SeekCurrent); err != nil {
		return fmt.Errorf("seek back to external attributes: %w", err)
	}
	if err = binio.WriteUint32LE(f, externalAttributes); err != nil {
		return fmt.Errorf("write external attributes: %w", err)
	}

	return nil
}

// skipToExternalAttributes advances from just past the creator-version field to the
// external-attributes field of a central directory entry. The itemized span must match
// the record layout byte for byte or the subsequent write corrupts the entry.
func skipToExternalAttributes(f io.Seeker) error {
	if _, err := f.Seek(2+ // required version
		2+ // general-purpose flags
		2+ // compression method
		2+ // modification time
		2+ // modification date
		4+ // CRC-32
		4+ // compressed size
		4+ // uncompressed size
		2+ // file name length
		2+ // extra field length
		2+ // file comment length
		2+ // disk number
		2, // internal attributes
		io.SeekCurrent); err != nil {
		return fmt.Errorf("skip to external attributes: %w", err)
	}

	return nil
}
