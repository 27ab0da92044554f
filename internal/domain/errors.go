package domain

import "errors"

var (
	// ErrProfileNotFound is returned when a profile ID is not configured
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoSession is returned when a session operation runs before any
	// profile has been selected
	ErrNoSession = errors.New("no active session")

	// ErrUnknownNudgeType is returned when scenario configuration carries a
	// nudge type outside the closed set
	ErrUnknownNudgeType = errors.New("unknown nudge type")

	// ErrNoCandidate is returned by the engine when no rule produces a nudge
	// for a scan. A valid terminal outcome, not a failure.
	ErrNoCandidate = errors.New("no nudge candidate")
)
