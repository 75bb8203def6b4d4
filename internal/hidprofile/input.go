package hidprofile

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/jadeai/bthid/pkg/chartable"
	"github.com/jadeai/bthid/pkg/hidreport"
)

// InputEngine reduces high-level intents (type text, move pointer, click)
// into framed report transmissions through an Emitter, per spec.md §4.F.
// keyDelay and clickDelay are atomic.Duration rather than plain fields
// because SetDelays updates them from a configsvc reload callback running
// on a different goroutine than TypeText/Click's readers.
type InputEngine struct {
	log        *zap.Logger
	emitter    *Emitter
	state      *State
	keyDelay   atomic.Duration
	clickDelay atomic.Duration
}

// NewInputEngine builds an InputEngine. keyDelay is applied after every
// keyboard press and release; clickDelay is the gap between a click's press
// and release. Neither is fixed: both daemons pass the config's
// keypress_delay_ms and mouse_move_delay_ms (defaults 20ms and 5ms), and
// SetDelays replaces them on reload.
func NewInputEngine(log *zap.Logger, emitter *Emitter, state *State, keyDelay, clickDelay time.Duration) *InputEngine {
	e := &InputEngine{
		log:     log,
		emitter: emitter,
		state:   state,
	}
	e.keyDelay.Store(keyDelay)
	e.clickDelay.Store(clickDelay)
	return e
}

// SetDelays updates the keyboard and click timing applied by future
// TypeText/Click calls, used by a configsvc reload of keypress_delay_ms
// (spec.md §9 / SPEC_FULL.md §C live safety-parameter reload).
func (e *InputEngine) SetDelays(keyDelay, clickDelay time.Duration) {
	e.keyDelay.Store(keyDelay)
	e.clickDelay.Store(clickDelay)
}

func (e *InputEngine) mode() hidreport.Mode {
	return hidreport.Mode(e.state.CurrentProtocol())
}

func (e *InputEngine) sendKeyboard(ctx context.Context, r hidreport.KeyboardReport) error {
	return e.emitter.Send(ctx, r.Encode(e.mode()))
}

func (e *InputEngine) sendMouse(ctx context.Context, r hidreport.MouseReport) error {
	return e.emitter.Send(ctx, r.Encode(e.mode()))
}

// TypeText emits a press/release pair for every recognized character in s,
// waiting keyDelay after each of the two reports. Unmapped characters are
// warned-and-skipped (spec.md §7 UnsupportedCharacter); any transport
// failure aborts immediately.
func (e *InputEngine) TypeText(ctx context.Context, s string) error {
	for i := 0; i < len(s); i++ {
		info, ok := chartable.Lookup(s[i])
		if !ok {
			e.log.Warn("skipping unmappable character", zap.Uint8("byte", s[i]))
			continue
		}

		modifiers := uint8(0)
		if info.RequiresShift {
			modifiers = hidreport.ModLeftShift
		}
		press := hidreport.KeyboardReport{Modifiers: modifiers, Keys: [6]uint8{info.Usage}}
		if err := e.sendKeyboard(ctx, press); err != nil {
			return err
		}
		time.Sleep(e.keyDelay.Load())

		if err := e.sendKeyboard(ctx, hidreport.ReleaseKeyboard()); err != nil {
			return err
		}
		time.Sleep(e.keyDelay.Load())
	}
	return nil
}

// MoveMouse emits one relative motion report with each axis clamped to
// [-127,127], followed by a zero report releasing the motion. Pointer
// position is not tracked here -- see AbsoluteMouse for the BLE variant.
func (e *InputEngine) MoveMouse(ctx context.Context, dx, dy, wheel int) error {
	motion := hidreport.MouseReport{
		DX:    hidreport.ClampAxis(dx),
		DY:    hidreport.ClampAxis(dy),
		Wheel: hidreport.ClampAxis(wheel),
	}
	if err := e.sendMouse(ctx, motion); err != nil {
		return err
	}
	return e.sendMouse(ctx, hidreport.ReleaseMouse())
}

// Click emits one press report with buttonMask set, waits clickDelay, then
// emits a release report.
func (e *InputEngine) Click(ctx context.Context, buttonMask uint8) error {
	press := hidreport.MouseReport{Buttons: buttonMask}
	if err := e.sendMouse(ctx, press); err != nil {
		return err
	}
	time.Sleep(e.clickDelay.Load())
	return e.sendMouse(ctx, hidreport.ReleaseMouse())
}
