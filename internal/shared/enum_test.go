package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

var colors = []color{"Red", "Dark Green"}

func TestParseEnum(t *testing.T) {
	c, err := ParseEnum(" dark green ", colors, "color")
	require.NoError(t, err)
	assert.Equal(t, color("Dark Green"), c)

	c, err = ParseEnum("", colors, "color")
	require.NoError(t, err)
	assert.Equal(t, color(""), c)

	_, err = ParseEnum("blue", colors, "color")
	assert.EqualError(t, err, `unknown color "blue"`)
}

func TestJoinEnum(t *testing.T) {
	assert.Equal(t, "Red, Dark Green", JoinEnum(colors))
}
