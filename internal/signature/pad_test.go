package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad_BlankReturnsNull(t *testing.T) {
	t.Parallel()

	p := NewPad()
	assert.Nil(t, p.CurrentImageOrNull())

	url, err := p.DataURL()
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestPad_StrokeProducesImage(t *testing.T) {
	t.Parallel()

	p := NewPad()
	p.Stroke([]Point{{X: 10, Y: 20}, {X: 120, Y: 60}, {X: 200, Y: 30}})

	img := p.CurrentImageOrNull()
	require.NotNil(t, img)

	url, err := p.DataURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)
}

func TestPad_ClearRestoresBlank(t *testing.T) {
	t.Parallel()

	p := NewPad()
	p.Stroke([]Point{{X: 10, Y: 20}, {X: 30, Y: 40}})
	require.NotNil(t, p.CurrentImageOrNull())

	p.Clear()
	assert.Nil(t, p.CurrentImageOrNull())
}

func TestPad_SinglePointDot(t *testing.T) {
	t.Parallel()

	p := NewPad()
	p.Stroke([]Point{{X: 50, Y: 50}})
	assert.NotNil(t, p.CurrentImageOrNull())
}

func TestPad_OutOfBoundsStrokeIsSafe(t *testing.T) {
	t.Parallel()

	p := NewPad()
	p.Stroke([]Point{{X: -50, Y: -50}, {X: 1000, Y: 1000}})
	// The segment crosses the surface, so some ink must land.
	assert.NotNil(t, p.CurrentImageOrNull())
}

func TestPad_DataURLRoundTrip(t *testing.T) {
	t.Parallel()

	p := NewPad()
	p.Stroke([]Point{{X: 10, Y: 20}, {X: 120, Y: 60}})
	url, err := p.DataURL()
	require.NoError(t, err)

	restored := NewPad()
	require.NoError(t, restored.LoadDataURL(url))
	assert.NotNil(t, restored.CurrentImageOrNull())

	// Empty input clears instead of failing.
	require.NoError(t, restored.LoadDataURL(""))
	assert.Nil(t, restored.CurrentImageOrNull())
}

func TestPad_LoadRejectsUnknownEncoding(t *testing.T) {
	t.Parallel()

	p := NewPad()
	assert.Error(t, p.LoadDataURL("data:image/jpeg;base64,AAAA"))
}
