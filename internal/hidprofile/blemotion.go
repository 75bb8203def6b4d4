package hidprofile

import (
	"context"
	"sync"
	"time"

	"github.com/jadeai/bthid/pkg/hidreport"
)

// AbsoluteMouse is the BLE variant's pointer model (spec.md §4.F): unlike
// the classic relative MoveMouse, a caller here targets an absolute (x, y)
// and AbsoluteMouse walks the pointer there in bounded relative steps,
// tracking last_x/last_y itself since HID motion reports carry only deltas.
type AbsoluteMouse struct {
	mu sync.Mutex
	in *InputEngine

	stepLimit int
	stepDelay time.Duration

	lastX, lastY int
}

// NewAbsoluteMouse builds an AbsoluteMouse driven by in. stepLimit is
// saturated at 127 (the signed 8-bit range a single motion report can
// carry); stepDelay is the configured mouse_move_delay_ms.
func NewAbsoluteMouse(in *InputEngine, stepLimit int, stepDelay time.Duration) *AbsoluteMouse {
	if stepLimit > 127 {
		stepLimit = 127
	}
	if stepLimit < 1 {
		stepLimit = 1
	}
	return &AbsoluteMouse{in: in, stepLimit: stepLimit, stepDelay: stepDelay}
}

// SetSafety updates the step limit and per-step pacing used by future
// MoveTo/ClickAt calls, used by a configsvc reload of mouse_step_limit /
// mouse_move_delay_ms (spec.md §9 / SPEC_FULL.md §C live safety-parameter
// reload). stepLimit is saturated the same way NewAbsoluteMouse saturates it.
func (m *AbsoluteMouse) SetSafety(stepLimit int, stepDelay time.Duration) {
	if stepLimit > 127 {
		stepLimit = 127
	}
	if stepLimit < 1 {
		stepLimit = 1
	}
	m.mu.Lock()
	m.stepLimit = stepLimit
	m.stepDelay = stepDelay
	m.mu.Unlock()
}

func stepToward(remaining, limit int) int {
	if remaining > limit {
		return limit
	}
	if remaining < -limit {
		return -limit
	}
	return remaining
}

// MoveTo walks the tracked pointer position to (x, y), sending one motion
// report (followed by a release) per step of at most stepLimit, pacing
// stepDelay between steps, until both axes reach zero.
func (m *AbsoluteMouse) MoveTo(ctx context.Context, x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveToLocked(ctx, x, y)
}

func (m *AbsoluteMouse) moveToLocked(ctx context.Context, x, y int) error {
	dx := x - m.lastX
	dy := y - m.lastY

	for dx != 0 || dy != 0 {
		stepX := stepToward(dx, m.stepLimit)
		stepY := stepToward(dy, m.stepLimit)

		motion := hidreport.MouseReport{
			DX: hidreport.ClampAxis(stepX),
			DY: hidreport.ClampAxis(stepY),
		}
		if err := m.in.sendMouse(ctx, motion); err != nil {
			return err
		}
		if err := m.in.sendMouse(ctx, hidreport.ReleaseMouse()); err != nil {
			return err
		}

		m.lastX += stepX
		m.lastY += stepY
		dx -= stepX
		dy -= stepY

		if dx != 0 || dy != 0 {
			time.Sleep(m.stepDelay)
		}
	}
	return nil
}

// ClickAt moves the pointer to (x, y), then presses buttonMask and releases
// it with stepDelay between the two reports.
func (m *AbsoluteMouse) ClickAt(ctx context.Context, x, y int, buttonMask uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.moveToLocked(ctx, x, y); err != nil {
		return err
	}

	press := hidreport.MouseReport{Buttons: buttonMask}
	if err := m.in.sendMouse(ctx, press); err != nil {
		return err
	}
	time.Sleep(m.stepDelay)
	return m.in.sendMouse(ctx, hidreport.ReleaseMouse())
}

// Reset zeroes the tracked pointer position, used when the connection drops
// and a freshly attached host's cursor can no longer be assumed to match.
func (m *AbsoluteMouse) Reset() {
	m.mu.Lock()
	m.lastX, m.lastY = 0, 0
	m.mu.Unlock()
}
