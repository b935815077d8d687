// Package shell provides the interactive command line for a connected desk.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/chaz8081/deskctl/internal/config"
	"github.com/chaz8081/deskctl/internal/desk"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
	"github.com/chaz8081/deskctl/internal/progress"
)

// Controller is the subset of *desk.Desk the shell drives.
type Controller interface {
	Height() (protocol.Height, error)
	Raise() error
	Lower() error
	Halt() error
	MoveTo(ctx context.Context, target protocol.Height, sink desk.ProgressSink) error
}

var _ Controller = (*desk.Desk)(nil)

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// Shell is a readline prompt over a Controller.
type Shell struct {
	ctrl Controller
	cfg  *config.Config
	out  io.Writer
	rl   *readline.Instance
}

// New creates a shell reading from the terminal.
func New(ctrl Controller, cfg *config.Config) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "desk> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{ctrl: ctrl, cfg: cfg, out: rl.Stdout(), rl: rl}, nil
}

func completer(cfg *config.Config) *readline.PrefixCompleter {
	presets := make([]readline.PrefixCompleterInterface, 0, len(cfg.Presets))
	for _, name := range cfg.PresetNames() {
		presets = append(presets, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("height"),
		readline.PcItem("up"),
		readline.PcItem("down"),
		readline.PcItem("stop"),
		readline.PcItem("move"),
		readline.PcItem("preset", presets...),
		readline.PcItem("presets"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Stdout returns a writer that coordinates with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run reads commands until EOF, "exit" or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
		return nil
	case "height", "h":
		return s.cmdHeight()
	case "up", "u":
		return s.ctrl.Raise()
	case "down", "d":
		return s.ctrl.Lower()
	case "stop", "s":
		return s.ctrl.Halt()
	case "move", "m":
		return s.cmdMove(ctx, args)
	case "preset", "p":
		return s.cmdPreset(ctx, args)
	case "presets":
		s.cmdPresets()
		return nil
	case "exit", "quit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

func (s *Shell) cmdHeight() error {
	h, err := s.ctrl.Height()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Height: %.1f cm\n", h.Centimeters())
	return nil
}

func (s *Shell) cmdMove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: move <cm>")
	}
	cm, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[0], err)
	}
	return s.moveTo(ctx, protocol.FromCentimeters(cm))
}

func (s *Shell) cmdPreset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: preset <name>")
	}
	h, ok := s.cfg.Preset(args[0])
	if !ok {
		return fmt.Errorf("no preset named %q", args[0])
	}
	return s.moveTo(ctx, h)
}

func (s *Shell) cmdPresets() {
	for _, name := range s.cfg.PresetNames() {
		fmt.Fprintf(s.out, "  %-10s %.1f cm\n", name, s.cfg.Presets[name])
	}
}

func (s *Shell) moveTo(ctx context.Context, target protocol.Height) error {
	if s.cfg.Move.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Move.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := s.ctrl.MoveTo(ctx, target, progress.NewPrinter(s.out)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Reached %.1f cm in %s\n", target.Centimeters(), time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  height          show the current height")
	fmt.Fprintln(s.out, "  up | down       nudge the desk")
	fmt.Fprintln(s.out, "  stop            halt the motor")
	fmt.Fprintln(s.out, "  move <cm>       move to a height in centimetres")
	fmt.Fprintln(s.out, "  preset <name>   move to a saved height")
	fmt.Fprintln(s.out, "  presets         list saved heights")
	fmt.Fprintln(s.out, "  exit")
}
