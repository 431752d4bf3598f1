package spray

// SprayParams configures the spray descent's shape. Build one with
// DefaultSprayParams and override fields, or construct one directly;
// either way it is validated at construction time by New, which
// rejects invalid values as a construction-time failure rather than
// silently clamping them.
type SprayParams struct {
	// SprayBase (M in the literature) multiplies log2(p) to produce D,
	// the per-level maximum jump length.
	SprayBase int32
	// SprayHeight (K_h) is added to floor(log2 p) to produce H, the
	// descent's starting level.
	SprayHeight int32
	// MaxAttempts bounds how many independent descents DeleteMin tries
	// before falling back (or giving up, if fallback is disabled).
	MaxAttempts int32
	// ExactFallbackEnabled, when true, degrades a depleted spray to an
	// exact level-0 scan from HEAD instead of reporting empty.
	ExactFallbackEnabled bool
}

// DefaultSprayParams mirrors the values the spray-list literature
// suggests: base 32, height offset 20, 8 attempts before fallback,
// fallback enabled.
func DefaultSprayParams() SprayParams {
	return SprayParams{
		SprayBase:            32,
		SprayHeight:          20,
		MaxAttempts:          8,
		ExactFallbackEnabled: true,
	}
}

// Validate reports whether every required-positive field of p actually
// is positive.
func (p SprayParams) Validate() error {
	if p.SprayBase < 1 {
		return ErrInvalidSprayBase
	}
	if p.SprayHeight < 1 {
		return ErrInvalidSprayHeight
	}
	if p.MaxAttempts < 1 {
		return ErrInvalidMaxSprayAttempts
	}
	return nil
}
