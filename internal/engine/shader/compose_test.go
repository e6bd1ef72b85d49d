package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderOrderedByUnit(t *testing.T) {
	h, err := Header([]Sampler{
		{Name: "oe_lightmap", Unit: 3},
		{Name: "oe_landcover", Unit: 1, Type: "usampler2D"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"#define HAS_OE_LANDCOVER 1\n"+
			"uniform usampler2D oe_landcover; // unit 1\n"+
			"#define HAS_OE_LIGHTMAP 1\n"+
			"uniform sampler2D oe_lightmap; // unit 3\n",
		h)
}

func TestHeaderConflicts(t *testing.T) {
	_, err := Header([]Sampler{{Name: "a", Unit: 1}, {Name: "b", Unit: 1}})
	assert.ErrorIs(t, err, ErrSamplerConflict)

	_, err = Header([]Sampler{{Name: "a", Unit: 1}, {Name: "a", Unit: 2}})
	assert.ErrorIs(t, err, ErrSamplerConflict)

	_, err = Header([]Sampler{{Name: "1bad", Unit: 1}})
	assert.Error(t, err)

	_, err = Header([]Sampler{{Name: "neg", Unit: -1}})
	assert.Error(t, err)
}

func TestComposeAfterVersion(t *testing.T) {
	out, err := Compose(TerrainFragment, []Sampler{{Name: "oe_normal_map", Unit: 2}})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "#version 410 core", lines[0])
	assert.Equal(t, "#define HAS_OE_NORMAL_MAP 1", lines[1])
	assert.Equal(t, "uniform sampler2D oe_normal_map; // unit 2", lines[2])
}

func TestComposeWithoutVersion(t *testing.T) {
	out, err := Compose("void main() {}\n", []Sampler{{Name: "s", Unit: 0}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#define HAS_S 1\n"))

	out, err = Compose("void main() {}\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\n", out)
}
