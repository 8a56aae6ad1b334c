package usage

import "errors"

var (
	// ErrLimitReached indicates the user exceeded their usage limit.
	ErrLimitReached = errors.New("limit reached")
	// ErrUnknownAgent indicates the agent is not part of the tier's quota table.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrUnknownTier indicates the tier id is not configured.
	ErrUnknownTier = errors.New("unknown tier")
	// ErrPeriodExpired indicates the period ended and the strict expiry policy is active.
	ErrPeriodExpired = errors.New("usage period expired")
	// ErrRecordNotFound indicates the store holds no record for the user.
	ErrRecordNotFound = errors.New("usage record not found")
)
