// File: reactor/epoll/errors.go
// Author: momentics <momentics@gmail.com>

package epoll

import "errors"

// errStaleToken is returned when an operation is started against a Token
// whose slot has since been released and possibly reused.
var errStaleToken = errors.New("epoll: stale descriptor token")
