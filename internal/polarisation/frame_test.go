package polarisation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	f, err := Parse("linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, f)
	assert.Equal(t, 4, f.NPol())
	assert.Equal(t, []string{"XX", "XY", "YX", "YY"}, f.Names())

	_, err = Parse("elliptical")
	assert.ErrorContains(t, err, "unknown polarisation frame")
	assert.False(t, Frame("elliptical").Valid())
	assert.Equal(t, 0, Frame("elliptical").NPol())
}

func TestConvert_StokesToLinearAndBack(t *testing.T) {
	// I=1, Q=0.2, U=0.1, V=0.05
	stokes := []complex128{1, 0.2, 0.1, 0.05}

	lin, err := Convert(stokes, StokesIQUV, Linear)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, real(lin[0]), 1e-12)
	assert.InDelta(t, 0.1, real(lin[1]), 1e-12)
	assert.InDelta(t, 0.05, imag(lin[1]), 1e-12)
	assert.InDelta(t, -0.05, imag(lin[2]), 1e-12)
	assert.InDelta(t, 0.8, real(lin[3]), 1e-12)

	back, err := Convert(lin, Linear, StokesIQUV)
	require.NoError(t, err)
	for i := range stokes {
		assert.InDelta(t, real(stokes[i]), real(back[i]), 1e-12)
		assert.InDelta(t, 0, imag(back[i]), 1e-12)
	}
}

func TestConvert_CircularRoundTrip(t *testing.T) {
	stokes := []complex128{2, -0.3, 0.4, 0.1}
	circ, err := Convert(stokes, StokesIQUV, Circular)
	require.NoError(t, err)
	assert.InDelta(t, 2.1, real(circ[0]), 1e-12)
	assert.InDelta(t, 1.9, real(circ[3]), 1e-12)

	back, err := Convert(circ, Circular, StokesIQUV)
	require.NoError(t, err)
	for i := range stokes {
		assert.InDelta(t, real(stokes[i]), real(back[i]), 1e-12)
	}
}

func TestConvert_StokesIToLinearNPAndBack(t *testing.T) {
	lin, err := Convert([]complex128{3, 5}, StokesI, LinearNP)
	require.NoError(t, err)
	assert.Equal(t, []complex128{3, 3, 5, 5}, lin)

	back, err := Convert(lin, LinearNP, StokesI)
	require.NoError(t, err)
	assert.Equal(t, []complex128{3, 5}, back)
}

func TestConvert_LinearToStokesI(t *testing.T) {
	out, err := Convert([]complex128{1.2, 0.3, 0.3, 0.8}, Linear, StokesI)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, real(out[0]), 1e-12)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert([]complex128{1, 2, 3}, Linear, StokesI)
	assert.ErrorContains(t, err, "not a multiple")

	_, err = Convert([]complex128{1}, Frame("bogus"), StokesI)
	assert.Error(t, err)

	_, err = NewConverter(StokesI, Frame("bogus"))
	assert.Error(t, err)
}

func TestConverter_Identity(t *testing.T) {
	c, err := NewConverter(Linear, Linear)
	require.NoError(t, err)
	assert.True(t, c.Identity())
	dst := make([]complex128, 4)
	c.Apply(dst, []complex128{1, 2, 3, 4})
	assert.Equal(t, []complex128{1, 2, 3, 4}, dst)
}
