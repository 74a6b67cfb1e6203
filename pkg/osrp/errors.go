package osrp

import "errors"

var (
	// ErrInvalidServerEphemeral is returned when the server's public
	// ephemeral B is zero modulo N. The client must abort before
	// deriving a session.
	ErrInvalidServerEphemeral = errors.New("osrp: invalid server ephemeral")

	// ErrBadServerProof is returned when the server's session proof does
	// not verify. The derived session key must be discarded.
	ErrBadServerProof = errors.New("osrp: server proof mismatch")
)
