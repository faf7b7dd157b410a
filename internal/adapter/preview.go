package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmcdole/splice/internal/domain"
)

// Previewer plays the source range of a span in an external player
type Previewer struct {
	command string   // configured player command, empty to auto-detect
	args    []string // additional arguments for the player
	flags   rangeFlags
	logger  *slog.Logger
}

// rangeFlags are a player's start and stop options, in seconds
type rangeFlags struct {
	start string // e.g. "--start="
	stop  string // e.g. "--end=", empty if the player can't stop early
}

// players that can start at an offset
var players = map[string]rangeFlags{
	"mpv":       {start: "--start=", stop: "--end="},
	"vlc":       {start: "--start-time=", stop: "--stop-time="},
	"celluloid": {start: "--mpv-start=", stop: "--mpv-end="},
	"haruna":    {start: "--mpv-start="},
	"ffplay":    {start: "-ss ", stop: "-t "},
}

// candidatePlayers is the detection order per platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "vlc", "ffplay"},
	"linux":   {"mpv", "celluloid", "haruna", "vlc", "ffplay"},
	"windows": {"vlc", "mpv", "ffplay"},
}

// ErrNoPlayer is returned when no player could be started
var ErrNoPlayer = errors.New("no preview player found")

// NewPreviewer creates a previewer. Range flags are looked up for known
// player commands.
func NewPreviewer(cfg PreviewConfig, logger *slog.Logger) *Previewer {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Previewer{command: cfg.Command, args: cfg.Args, logger: logger.With("component", "preview")}
	if cfg.Command != "" {
		p.flags = players[playerName(cfg.Command)]
		if cfg.StartFlag != "" {
			p.flags = rangeFlags{start: cfg.StartFlag}
		}
	}
	return p
}

// playerName reduces a command path to its registry name
func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// Preview starts the player on the span's used source range without waiting
// for it to exit.
func (p *Previewer) Preview(span domain.Span) error {
	if span.SourcePath == "" {
		return fmt.Errorf("preview %s: %w", span.Name, domain.ErrNotFound)
	}
	if p.command != "" {
		args := append(append([]string{}, p.args...), rangeArgs(p.flags, span)...)
		if p.flags.start == "" && span.BeginMs > 0 {
			p.logger.Warn("unknown player, configure preview.start_flag", "command", p.command)
		}
		return p.start(p.command, args, span.SourcePath)
	}

	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if err := p.start(name, rangeArgs(players[name], span), span.SourcePath); err == nil {
			return nil
		}
	}
	return ErrNoPlayer
}

func (p *Previewer) start(command string, args []string, path string) error {
	p.logger.Info("launching preview", "command", command, "args", args, "path", path)
	cmd := exec.Command(command, append(args, path)...)
	return cmd.Start()
}

// rangeArgs builds the offset arguments for a span. Stills have no range.
func rangeArgs(flags rangeFlags, span domain.Span) []string {
	if span.Still || flags.start == "" {
		return nil
	}
	var args []string
	args = appendFlag(args, flags.start, span.BeginMs)
	if flags.stop == "" {
		return args
	}
	stop := span.EndMs
	if flags.stop == "-t " {
		// ffplay takes a duration rather than an end time
		stop = span.EndMs - span.BeginMs
	}
	return appendFlag(args, flags.stop, stop)
}

// appendFlag handles flags that need a space ("-ss 12.5") and those that
// don't ("--start=12.5")
func appendFlag(args []string, flag string, ms int64) []string {
	secs := fmt.Sprintf("%.3f", float64(ms)/1000)
	if strings.HasSuffix(flag, " ") {
		return append(args, strings.TrimSuffix(flag, " "), secs)
	}
	return append(args, flag+secs)
}
