// File: reactor/epoll/interest.go
// Author: momentics <momentics@gmail.com>

package epoll

// Interest names the readiness condition a waiting operation cares about.
type Interest int

const (
	InterestNone Interest = iota
	InterestRead
	InterestWrite
)
