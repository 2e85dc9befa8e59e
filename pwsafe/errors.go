package pwsafe

import "errors"

// Sentinel errors returned by the library. Callers should use errors.Is to
// match these values; wrapped I/O errors are propagated unchanged.
var (
	// Argument and state errors.
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrReadOnly         = errors.New("document is read-only")
	ErrAlreadyOwned     = errors.New("entry already belongs to a collection")
	ErrOnlyNilSupported = errors.New("only nil assignment is supported")

	// Container format errors.
	ErrUnrecognizedFormat = errors.New("unrecognized container format")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrBadFieldWidth      = errors.New("bad field width")

	// Crypto errors.
	ErrPasswordMismatch       = errors.New("passphrase mismatch")
	ErrAuthenticationMismatch = errors.New("authentication mismatch")
)
