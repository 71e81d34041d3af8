package zmx

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEndOfCentralDirectory is returned if the backward scan reaches the start
	// of the stream without finding an end-of-central-directory signature; the stream is
	// most likely not a ZIP archive.
	ErrMissingEndOfCentralDirectory = errors.New("missing end-of-central-directory record")

	// ErrSpannedArchive is returned for archives spanning multiple disks/files.
	//
	// Spanned ZIP archives are not supported.
	ErrSpannedArchive = errors.New("ZIP archive spans multiple files/disks")

	// ErrIncorrectSignature is returned if a record does not start with the signature
	// required for its type, e.g. when a patch operation is given a stale offset.
	ErrIncorrectSignature = errors.New("incorrect signature for structure")

	// ErrRecordTooSmall is returned if a record declares a size below the minimum its
	// fixed fields require.
	ErrRecordTooSmall = errors.New("record too small")

	// ErrFieldTooLong is returned if a field is too long to be written, such as an extra
	// field block that cannot be represented by its 16-bit length prefix.
	ErrFieldTooLong = errors.New("field too long")

	// ErrUnexpectedExtraDataLength matches any UnexpectedExtraDataLengthError via errors.Is.
	ErrUnexpectedExtraDataLength = errors.New("unexpected length of extra data")
)

// UnexpectedExtraDataLengthError is returned if a Zip64 extra field declares a length
// that does not equal the widths of exactly the sentinel-valued entry fields.
//
// Declared carries the length from the malformed sub-record so callers can seek past it
// and continue with the next extra data entry.
type UnexpectedExtraDataLengthError struct {
	Declared uint16
}

func (e UnexpectedExtraDataLengthError) Error() string {
	return fmt.Sprintf("unexpected length of extra data: %d", e.Declared)
}

func (e UnexpectedExtraDataLengthError) Unwrap() error {
	return ErrUnexpectedExtraDataLength
}
