package ripagent

import "fmt"

// ErrInvalidRTE reports a Response RTE that failed §4.3 step 2 validation:
// metric out of [1,16], a prefix length over 32, or a loopback/multicast
// address. A single bad RTE drops the entire containing message.
type ErrInvalidRTE struct {
	Reason string
}

func (e *ErrInvalidRTE) Error() string {
	return fmt.Sprintf("ripagent: invalid RTE: %s", e.Reason)
}

// ErrNoRoute is returned by RouteOutput when the RIB has nothing matching.
type ErrNoRoute struct {
	Dest string
}

func (e *ErrNoRoute) Error() string {
	return fmt.Sprintf("ripagent: no route to %s", e.Dest)
}
