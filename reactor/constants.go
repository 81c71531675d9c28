// File: reactor/constants.go
// Author: momentics <momentics@gmail.com>
//
// Constants shared by both backends. spec.md's design notes flag that the
// source repeats the listen backlog in multiple places; it is centralized
// here instead.

package reactor

// ListenBacklog is the backlog passed to listen(2) by every acceptor, on
// both backends, unless the acceptor's own Backlog field is non-zero.
const ListenBacklog = 16

// DefaultIOURingQueueDepth is the submission/completion queue depth used
// when a io_uring context is constructed without an explicit depth.
const DefaultIOURingQueueDepth = 128

// OpenMode selects the access mode for File/SeekableFile.Open.
type OpenMode int

const (
	OpenRead OpenMode = iota
	OpenWrite
	OpenAppend
	OpenAttrWrite
)

// Creation selects the creation disposition for File/SeekableFile.Open.
type Creation int

const (
	OpenExisting Creation = iota
	CreateIfNeeded
	CreateAlwaysNew
	TruncateExisting
)

// CreateFileMode is the mode bits used when a file is created, matching
// the 0644 the spec fixes for every backend.
const CreateFileMode = 0644
