package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDev(t *testing.T) {
	require.True(t, IsDev(""))
	require.True(t, IsDev(" DEV "))
	require.False(t, IsDev("1.2.3"))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("v1.4.0")
	require.NoError(t, err)
	require.Equal(t, "1.4.0", got)

	got, err = Normalize("0.1.20241223+62b9a1a85")
	require.NoError(t, err)
	require.Equal(t, "0.1.20241223+62b9a1a85", got)

	_, err = Normalize("not-a-version")
	require.Error(t, err)
}
