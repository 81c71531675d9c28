// File: handle/errors.go
// Author: momentics <momentics@gmail.com>
package handle

import "errors"

// errStaleToken is returned by an Ops adapter when asked to resolve a
// reference that no longer names a live descriptor, mirroring
// reactor/epoll's own errStaleToken for callers one level up.
var errStaleToken = errors.New("handle: stale descriptor reference")
