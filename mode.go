package zmx

// HostUnix is the originating-OS code for Unix in the high byte of a creator version.
// Only entries with this origin interpret the high word of their external attributes as
// Unix st_mode bits.
const HostUnix = 0x03

// Unix file-type and permission bits as stored in the high word of a central directory
// entry's external attributes (st_mode encoding).
const (
	// UnixModeTypeMask covers the file-type bits.
	UnixModeTypeMask uint16 = 0o170000
	// UnixModeTypeRegular is the file-type value of a regular file.
	UnixModeTypeRegular uint16 = 0o100000
	// UnixModeExecuteAll covers the execute permission bits of user, group and others.
	UnixModeExecuteAll uint16 = 0o000111
)

// dosDirectory is the MS-DOS directory attribute bit in the low word of the external
// attributes.
const dosDirectory = 0x10

// dosReadOnly is the MS-DOS read-only attribute bit.
const dosReadOnly = 0x01

// UnixMode returns the st_mode-style bits from the high word of the entry's external
// attributes. The bits carry meaning only for entries of Unix origin.
func (rec CentralDirectoryEntry) UnixMode() uint16 {
	return uint16(rec.ExternalAttributes >> 16)
}

// IsExecutable reports whether the entry is currently marked executable.
//
// An entry counts as executable only if its DOS attributes do not mark it a directory,
// it is of Unix origin, its Unix file type is regular file, and at least one of user,
// group or others holds execute permission, checked in that order. The predicate works
// on the decoded fields alone and performs no I/O.
func (rec CentralDirectoryEntry) IsExecutable() bool {
	if rec.ExternalAttributes&dosDirectory != 0 {
		return false
	}
	if rec.CreatorVersion>>8 != HostUnix {
		return false
	}
	mode := rec.UnixMode()
	if mode&UnixModeTypeMask != UnixModeTypeRegular {
		return false
	}
	return mode&UnixModeExecuteAll != 0
}

// ModeString renders the entry's attributes ls-style, e.g. "-rw-r--r--" or "drwxr-xr-x".
//
// Entries of Unix origin render their full st_mode bits including setuid/setgid/sticky.
// For other origins only the DOS directory and read-only attributes have anything to
// say, so the permission triplets are synthesized from those.
func (rec CentralDirectoryEntry) ModeString() string {
	if rec.CreatorVersion>>8 != HostUnix {
		buf := [10]byte{'-', 'r', 'w', '-', 'r', 'w', '-', 'r', 'w', '-'}
		if rec.ExternalAttributes&dosDirectory != 0 {
			buf[0] = 'd'
		}
		if rec.ExternalAttributes&dosReadOnly != 0 {
			buf[2], buf[5], buf[8] = '-', '-', '-'
		}
		return string(buf[:])
	}

	mode := rec.UnixMode()
	buf := [10]byte{
		// the string pairs position-for-value with the file-type nibble.
		"?pc?d?b?-?l?s?w?"[mode>>12],

		"-r"[mode>>8&0o1],
		"-w"[mode>>7&0o1],
		"-xSs"[mode>>6&0o1|mode>>10&0o2],

		"-r"[mode>>5&0o1],
		"-w"[mode>>4&0o1],
		"-xSs"[mode>>3&0o1|mode>>9&0o2],

		"-r"[mode>>2&0o1],
		"-w"[mode>>1&0o1],
		"-xTt"[mode>>0&0o1|mode>>8&0o2],
	}
	return string(buf[:])
}
