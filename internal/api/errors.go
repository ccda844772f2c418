package api

import (
	"errors"
	"fmt"
)

// Failure classification for remote calls. Callers pick recovery per class:
// a rejected call means the input (usually the token) needs fixing, an
// unreachable service means try again later, and a ServerFault means the
// service itself is unhealthy and must be surfaced loudly by the host.
var (
	// ErrUnreachable marks transport-level failures where no response was
	// received (DNS, refused connection, timeout).
	ErrUnreachable = errors.New("schol-ar service unreachable")

	// ErrRejected marks 4xx responses. The call was understood and refused.
	ErrRejected = errors.New("schol-ar call rejected")

	// ErrFileTooLarge is returned before any network I/O when an upload
	// exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file exceeds upload size limit")
)

// ServerFault is a 5xx response from the Schol-AR service. It is a
// distinguished error type, not a sentinel, so that callers can surface it
// prominently instead of logging and swallowing it like a 4xx.
type ServerFault struct {
	// URL of the failed request.
	URL string
	// Status is the HTTP status code received.
	Status int
}

func (e *ServerFault) Error() string {
	return fmt.Sprintf("schol-ar server error %d calling %s", e.Status, e.URL)
}

// IsServerFault reports whether err wraps a ServerFault.
func IsServerFault(err error) bool {
	var sf *ServerFault
	return errors.As(err, &sf)
}
