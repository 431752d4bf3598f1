package spray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSprayParamsValid(t *testing.T) {
	require.NoError(t, DefaultSprayParams().Validate())
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	base := DefaultSprayParams()

	bad := base
	bad.SprayBase = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidSprayBase)

	bad = base
	bad.SprayHeight = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidSprayHeight)

	bad = base
	bad.MaxAttempts = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidMaxSprayAttempts)
}
