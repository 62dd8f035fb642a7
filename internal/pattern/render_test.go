package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	dmx, err := Render("ramp", 300, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(44), dmx[0])
	assert.Equal(t, byte(44), dmx[3])
	assert.Equal(t, byte(0), dmx[4])

	dmx, err = Render("chase", 5, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(255), dmx[1])
	assert.Equal(t, byte(0), dmx[0])

	off, err := Render("toggle", 0, 2)
	require.NoError(t, err)
	on, err := Render("toggle", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, byte(0), off[0])
	assert.Equal(t, byte(255), on[1])
	assert.Equal(t, byte(0), on[2])
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("strobe", 0, 1)
	assert.ErrorContains(t, err, "strobe")
	_, err = Render("ramp", 0, 0)
	assert.Error(t, err)
	_, err = Render("ramp", 0, 513)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"chase", "ramp", "toggle"}, Names())
}

func TestUniverseToAddress(t *testing.T) {
	a := universeToAddress(0x0103)
	assert.Equal(t, uint8(1), a.Net)
	assert.Equal(t, uint8(3), a.SubUni)
}
