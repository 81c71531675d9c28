// File: reactor/openflags.go
// Author: momentics <momentics@gmail.com>

package reactor

import "golang.org/x/sys/unix"

// OpenFlags computes the openat(2) flag word for (mode, creation),
// identical across both backends per spec.md's open flags mapping table.
// O_CLOEXEC is always set.
func OpenFlags(mode OpenMode, creation Creation) int {
	flags := unix.O_CLOEXEC
	switch mode {
	case OpenRead:
		flags |= unix.O_RDONLY
	case OpenWrite, OpenAttrWrite:
		flags |= unix.O_WRONLY | unix.O_CREAT
	case OpenAppend:
		flags |= unix.O_WRONLY | unix.O_APPEND
	}
	switch creation {
	case OpenExisting:
	case CreateIfNeeded:
		flags |= unix.O_CREAT
	case CreateAlwaysNew:
		flags |= unix.O_CREAT | unix.O_EXCL
	case TruncateExisting:
		flags |= unix.O_TRUNC
	}
	return flags
}
