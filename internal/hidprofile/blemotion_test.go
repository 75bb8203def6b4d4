package hidprofile_test

import (
	"context"
	"testing"
	"time"

	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/stretchr/testify/require"
)

func TestAbsoluteMouseWalksInBoundedSteps(t *testing.T) {
	in, _, ip := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	err := m.MoveTo(context.Background(), 120, 0)
	require.NoError(t, err)

	reports := ip.sentReports()
	// 3 steps of 50,50,20 each followed by a release -> 6 reports.
	require.Equal(t, 6, len(reports))
	require.Equal(t, byte(50), reports[0][2])
	require.Equal(t, byte(50), reports[2][2])
	require.Equal(t, byte(20), reports[4][2])
}

func TestAbsoluteMouseMoveToIsIdempotentAtTarget(t *testing.T) {
	in, _, ip := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	require.NoError(t, m.MoveTo(context.Background(), 10, 10))
	before := len(ip.sentReports())

	require.NoError(t, m.MoveTo(context.Background(), 10, 10))
	require.Equal(t, before, len(ip.sentReports()))
}

func TestAbsoluteMouseClickAtMovesThenToggles(t *testing.T) {
	in, _, ip := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	err := m.ClickAt(context.Background(), 10, 0, 1)
	require.NoError(t, err)

	reports := ip.sentReports()
	lastTwo := reports[len(reports)-2:]
	require.Equal(t, byte(1), lastTwo[0][1])
	require.Equal(t, byte(0), lastTwo[1][1])
}

func TestAbsoluteMouseResetZeroesTrackedPosition(t *testing.T) {
	in, _, ip := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	require.NoError(t, m.MoveTo(context.Background(), 10, 0))
	m.Reset()

	require.NoError(t, m.MoveTo(context.Background(), 10, 0))
	reports := ip.sentReports()
	// without the reset this second move would be a no-op (already at x=10)
	require.Equal(t, 4, len(reports))
	require.Equal(t, byte(10), reports[2][2])
}

// SetSafety is how a configsvc reload of mouse_step_limit/mouse_move_delay_ms
// reaches an already-built AbsoluteMouse.
func TestSetSafetyAppliesToFutureMoves(t *testing.T) {
	in, _, ip := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	m.SetSafety(10, time.Millisecond)

	require.NoError(t, m.MoveTo(context.Background(), 25, 0))
	reports := ip.sentReports()
	// 3 steps of 10,10,5 each followed by a release -> 6 reports.
	require.Equal(t, 6, len(reports))
	require.Equal(t, byte(10), reports[0][2])
	require.Equal(t, byte(10), reports[2][2])
	require.Equal(t, byte(5), reports[4][2])
}

func TestSetSafetySaturatesStepLimit(t *testing.T) {
	in, _, _ := newTestInputEngine(t)
	m := hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)

	m.SetSafety(0, time.Millisecond)
	require.NoError(t, m.MoveTo(context.Background(), 1, 0))

	m.Reset()
	m.SetSafety(200, time.Millisecond)
	require.NoError(t, m.MoveTo(context.Background(), 127, 0))
}
