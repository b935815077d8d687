package desk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

const (
	// stopTolerance is the distance at which the loop halts and reports
	// success. Finer correction oscillates.
	stopTolerance = 10
	// brakeFloor is the minimum braking distance; below it the loop
	// halts the motor after every directional command.
	brakeFloor = 50
)

type sample struct {
	height protocol.Height
	at     time.Time
}

// MoveTo drives the desk to target and returns once it is within 1mm.
//
// Every iteration reads the height, re-derives the direction from it, and
// estimates speed from the previous sample. When the remaining distance is
// shorter than what the desk covers in half a second (5mm at least), the
// motor is halted right after the directional command so the desk creeps
// instead of coasting past the target. Motor writes are best-effort; only a
// failed read aborts.
//
// The loop has no time limit of its own. Cancel ctx to stop it: the desk is
// halted and ErrMoveInterrupted returned. sink may be nil.
func (d *Desk) MoveTo(ctx context.Context, target protocol.Height, sink ProgressSink) error {
	if !target.InRange() {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrPositionNotInRange, target, protocol.MinHeight, protocol.MaxHeight)
	}

	current, err := d.Height()
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	slog.Info("[DESK] moving", "from", current, "to", target)

	last := sample{height: current, at: d.clock.Now()}
	for {
		if err := ctx.Err(); err != nil {
			d.bestEffort(protocol.Halt)
			return fmt.Errorf("%w: %w", ErrMoveInterrupted, err)
		}

		h, err := d.Height()
		if err != nil {
			return err
		}
		now := sample{height: h, at: d.clock.Now()}

		remaining := distance(target, h)
		speed := speedBetween(last, now)

		if remaining <= stopTolerance {
			d.bestEffort(protocol.Halt)
			slog.Info("[DESK] reached target", "height", h, "target", target)
			return nil
		}

		if target > h {
			d.bestEffort(protocol.Raise)
		} else {
			d.bestEffort(protocol.Lower)
		}
		if remaining < max(speed/2, brakeFloor) {
			d.bestEffort(protocol.Halt)
		}

		slog.Debug("[DESK] move step", "height", h, "remaining", remaining, "speed", speed)
		if sink != nil {
			sink.Progress(int(distance(last.height, h)), fmt.Sprintf("%.1f cm", h.Centimeters()))
		}

		last = now
	}
}

// bestEffort sends cmd and drops any error; a single lost write must not
// abort a converging move.
func (d *Desk) bestEffort(cmd protocol.Command) {
	if err := d.send(cmd); err != nil {
		slog.Debug("[DESK] motor write dropped", "command", cmd, "error", err)
	}
}

func distance(a, b protocol.Height) int64 {
	if a > b {
		return int64(a - b)
	}
	return int64(b - a)
}

// speedBetween returns the speed between two samples in tenth-mm per second.
func speedBetween(prev, cur sample) int64 {
	elapsed := cur.at.Sub(prev.at)
	if elapsed <= 0 {
		return 0
	}
	return distance(prev.height, cur.height) * int64(time.Second) / int64(elapsed)
}
