package services

import "errors"

// Sentinel errors shared across the engine; handlers map these to user-facing
// error kinds. Validation errors fire before any state is read, business-rule
// errors after read but before any write.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrCaseNotFound      = errors.New("case not found")
	ErrCaseEmpty         = errors.New("case has no valid outcomes")
	ErrInsufficientFunds = errors.New("insufficient gems")
	ErrBadClientSeed     = errors.New("malformed client seed")
	ErrAlreadyClaimed    = errors.New("streak already claimed today")
	ErrHoldingNotFound   = errors.New("inventory holding not found")
	ErrAlreadySold       = errors.New("holding already sold")
	ErrOpeningNotFound   = errors.New("opening not found")
	ErrGiveawayNotFound  = errors.New("giveaway not found")
	ErrGiveawayNotLive   = errors.New("giveaway is not live")
	ErrTierLocked        = errors.New("reward pool tier too low")
	ErrBadEntries        = errors.New("invalid entry count")
)
