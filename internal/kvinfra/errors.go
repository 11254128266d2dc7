package kvinfra

import "errors"

// Error kinds shared by every adapter. Callers branch with errors.Is: a
// missing key is a valid negative result, an unavailable store is a
// fail-open-or-fail-closed decision point, and a malformed pattern is a
// programmer error that must fail loudly.
var (
	ErrNotFound    = errors.New("kv: key not found")
	ErrUnavailable = errors.New("kv: store unavailable")
	ErrBadPattern  = errors.New("kv: malformed key pattern")
)
