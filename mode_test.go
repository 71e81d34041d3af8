package zmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExecutable(t *testing.T) {
	tests := []struct {
		name    string
		creator uint16
		attrs   uint32
		want    bool
	}{
		{name: "unix regular 755", creator: HostUnix<<8 | 20, attrs: 0o100755 << 16, want: true},
		{name: "unix regular 644", creator: HostUnix<<8 | 20, attrs: 0o100644 << 16, want: false},
		{name: "unix regular single execute bit", creator: HostUnix<<8 | 20, attrs: 0o100001 << 16, want: true},
		{name: "unix symlink 777", creator: HostUnix<<8 | 20, attrs: 0o120777 << 16, want: false},
		{name: "unix directory", creator: HostUnix<<8 | 20, attrs: 0o040755<<16 | dosDirectory, want: false},
		{name: "unix directory without dos bit", creator: HostUnix<<8 | 20, attrs: 0o040755 << 16, want: false},
		{name: "dos creator with unix-looking bits", creator: 20, attrs: 0o100755 << 16, want: false},
		{name: "dos directory bit wins over mode", creator: HostUnix<<8 | 20, attrs: 0o100755<<16 | dosDirectory, want: false},
		{name: "dos read-only bit does not matter", creator: HostUnix<<8 | 20, attrs: 0o100755<<16 | dosReadOnly, want: true},
		{name: "zero attributes", creator: HostUnix<<8 | 20, attrs: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := CentralDirectoryEntry{CreatorVersion: tt.creator, ExternalAttributes: tt.attrs}
			assert.Equal(t, tt.want, rec.IsExecutable())
		})
	}
}

func TestUnixMode(t *testing.T) {
	// only the high word counts; DOS attributes in the low word are ignored.
	rec := CentralDirectoryEntry{ExternalAttributes: 0o100755<<16 | 0xabcd}
	assert.Equal(t, uint16(0o100755), rec.UnixMode())
}

func TestModeString(t *testing.T) {
	unix := func(mode uint32) CentralDirectoryEntry {
		return CentralDirectoryEntry{CreatorVersion: HostUnix<<8 | 20, ExternalAttributes: mode << 16}
	}
	dos := func(attrs uint32) CentralDirectoryEntry {
		return CentralDirectoryEntry{CreatorVersion: 20, ExternalAttributes: attrs}
	}

	tests := []struct {
		name string
		rec  CentralDirectoryEntry
		want string
	}{
		{name: "regular 644", rec: unix(0o100644), want: "-rw-r--r--"},
		{name: "regular 755", rec: unix(0o100755), want: "-rwxr-xr-x"},
		{name: "regular no permissions", rec: unix(0o100000), want: "----------"},
		{name: "directory", rec: unix(0o040755), want: "drwxr-xr-x"},
		{name: "symlink", rec: unix(0o120777), want: "lrwxrwxrwx"},
		{name: "setuid", rec: unix(0o104755), want: "-rwsr-xr-x"},
		{name: "setuid without execute", rec: unix(0o104655), want: "-rwSr-xr-x"},
		{name: "setgid", rec: unix(0o102755), want: "-rwxr-sr-x"},
		{name: "sticky directory", rec: unix(0o041777), want: "drwxrwxrwt"},
		{name: "sticky without execute", rec: unix(0o041776), want: "drwxrwxrwT"},
		{name: "dos plain", rec: dos(0), want: "-rw-rw-rw-"},
		{name: "dos directory", rec: dos(dosDirectory), want: "drw-rw-rw-"},
		{name: "dos read-only", rec: dos(dosReadOnly), want: "-r--r--r--"},
		{name: "dos read-only directory", rec: dos(dosDirectory | dosReadOnly), want: "dr--r--r--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.ModeString())
		})
	}
}
