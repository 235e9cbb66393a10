package game

import "errors"

var (
	// ErrCatalogUnavailable is returned when the round queue cannot be fetched.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrAssetLoadFailed marks a round whose image could not be fetched.
	ErrAssetLoadFailed = errors.New("asset load failed")
	ErrInvalidGuess    = errors.New("invalid guess")
	ErrInvalidRounds   = errors.New("invalid round count")
	// ErrStartSuperseded is returned when a reset or a later start was applied
	// while the round queue was being fetched.
	ErrStartSuperseded = errors.New("start superseded")
	ErrEngineStopped   = errors.New("engine stopped")
	ErrEngineRunning   = errors.New("engine already running")
	ErrHandleNotLive   = errors.New("handle not live")
	ErrRegistryClosed  = errors.New("handle registry closed")
)
