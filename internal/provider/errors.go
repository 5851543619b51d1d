package provider

import "errors"

// Failure classes a source wraps its errors in. LyricsFetcher reports a
// missing lyric with Found=false, so there is no not-found error.
var (
	ErrOffline       = errors.New("provider: offline")
	ErrRateLimited   = errors.New("provider: rate limited")
	ErrTemporary     = errors.New("provider: temporary failure")
	ErrInvalidConfig = errors.New("provider: invalid config")
)

// IsRetryable reports whether a later attempt may succeed.
func IsRetryable(err error) bool {
	for _, target := range []error{ErrOffline, ErrRateLimited, ErrTemporary} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
