package api

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

func TestSweepScheduler_RunsOnStartAndStops(t *testing.T) {
	sw := &countingSweeper{}
	s := NewSweepScheduler(sw, zap.NewNop())
	s.Interval = time.Hour

	s.Start()
	s.Start() // second start is a no-op
	assert.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, int32(1), sw.calls.Load())
}

func TestSweepScheduler_Disabled(t *testing.T) {
	sw := &countingSweeper{}
	s := NewSweepScheduler(sw, zap.NewNop())
	s.Enabled = false

	s.Start()
	s.Stop()
	assert.Equal(t, int32(0), sw.calls.Load())
	assert.Equal(t, 1, s.RunNow())
}
