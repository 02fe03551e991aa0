package scanner

import (
	"io/fs"
	"path/filepath"
)

// FileType classifies a discovered filesystem node.
type FileType int

const (
	FileTypeDirectory FileType = iota
	FileTypeRegular
)

func (t FileType) String() string {
	if t == FileTypeDirectory {
		return "d"
	}
	return "-"
}

func (t FileType) MarshalJSON() ([]byte, error) {
	if t == FileTypeDirectory {
		return []byte(`"directory"`), nil
	}
	return []byte(`"regular"`), nil
}

// Permissions is a coarse, best-effort view of an entry's mode bits.
// No attempt is made at cross-platform fidelity beyond these flags.
type Permissions struct {
	Readonly   bool `json:"readonly"`
	Writable   bool `json:"writable"`
	Executable bool `json:"executable"`
}

// PermissionsFromMode derives coarse permission flags from a file mode.
func PermissionsFromMode(mode fs.FileMode) Permissions {
	writable := mode.Perm()&0o200 != 0
	return Permissions{
		Readonly:   !writable,
		Writable:   writable,
		Executable: mode.Perm()&0o111 != 0,
	}
}

func (p Permissions) String() string {
	b := [3]byte{'-', '-', '-'}
	if p.Readonly {
		b[0] = 'r'
	}
	if p.Writable {
		b[1] = 'w'
	}
	if p.Executable {
		b[2] = 'x'
	}
	return string(b[:])
}

// DeleteStatus tracks the deletion lifecycle of a discovered entry.
// Transitions are owned by the consumer layer; the scan engine only ever
// creates entries in NotDeleted.
type DeleteStatus int

const (
	NotDeleted DeleteStatus = iota
	Deleting
	Deleted
)

func (s DeleteStatus) String() string {
	switch s {
	case Deleting:
		return "deleting"
	case Deleted:
		return "deleted"
	default:
		return "not-deleted"
	}
}

func (s DeleteStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// FileEntry is one discovered match. SizeRaw and SizeDisplay are final at
// creation time; DeleteStatus is the only field mutated afterwards.
type FileEntry struct {
	FileType     FileType     `json:"fileType"`
	Permissions  Permissions  `json:"permissions"`
	SizeDisplay  string       `json:"sizeDisplay"`
	SizeRaw      uint64       `json:"sizeRaw"`
	Path         string       `json:"path"`
	DeleteStatus DeleteStatus `json:"deleteStatus"`
}

// canonicalPath resolves p to an absolute, symlink-free path. On any failure
// it falls back to the best form it has; display paths are never load-bearing.
func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
