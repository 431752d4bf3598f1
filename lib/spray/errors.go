package spray

import "errors"

// These are the only constructor-time failures the spray layer can
// produce; once a Spray exists, DeleteMin never returns an error,
// matching the "narrow error surface" of the wider queue.
var (
	ErrInvalidSprayBase        = errors.New("spray: SprayBase must be >= 1")
	ErrInvalidSprayHeight      = errors.New("spray: SprayHeight must be >= 1")
	ErrInvalidMaxSprayAttempts = errors.New("spray: MaxAttempts must be >= 1")
)
