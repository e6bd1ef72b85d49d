package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerFollowsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := NewTracker(ctx)

	assert.False(t, tr.IsCanceled())
	cancel()
	assert.True(t, tr.IsCanceled())
	assert.True(t, Canceled(tr))
}

func TestTrackerStagesAndStats(t *testing.T) {
	tr := NewTracker(context.Background())
	tr.SetStage("elevation")
	tr.SetStage("color")
	tr.RecordStat("layer.dem", 2*time.Millisecond)
	tr.RecordStat("layer.dem", 3*time.Millisecond)

	assert.Equal(t, []string{"elevation", "color"}, tr.Stages())
	assert.Equal(t, 5*time.Millisecond, tr.Stats()["layer.dem"])
}

func TestCountdown(t *testing.T) {
	c := NewCountdown(2)
	assert.False(t, c.IsCanceled())
	assert.False(t, c.IsCanceled())
	assert.True(t, c.IsCanceled())
	assert.Equal(t, 3, c.Polls())
}

func TestCanceledNil(t *testing.T) {
	assert.False(t, Canceled(nil))
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := WithContext(ctx, NewCountdown(100))
	assert.False(t, p.IsCanceled())
	cancel()
	assert.True(t, p.IsCanceled())

	assert.True(t, WithContext(ctx, nil).IsCanceled())
	assert.True(t, WithContext(context.Background(), NewCountdown(0)).IsCanceled())
}
