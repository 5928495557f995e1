// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/nova-tui/internal/util"
)

// ErrNoPlayer is returned when no audio command is available.
var ErrNoPlayer = errors.New("no audio player command found")

// =============================================================================
// WAV FILE PLAYER
// =============================================================================

// WAVPlayer "plays" a buffer by writing it to a WAV file. Playback ends once
// the file is on disk.
type WAVPlayer struct {
	Dir string

	mu   sync.Mutex
	last string
}

// NewWAVPlayer creates a player writing into dir.
func NewWAVPlayer(dir string) *WAVPlayer {
	return &WAVPlayer{Dir: dir}
}

// Start writes the file and signals done.
func (p *WAVPlayer) Start(_ context.Context, buf *Buffer, done func()) error {
	defer done()

	path, err := writeWAV(p.Dir, buf)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.last = path
	p.mu.Unlock()
	return nil
}

// LastPath returns the most recently written file.
func (p *WAVPlayer) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func writeWAV(dir string, buf *Buffer) (string, error) {
	name := fmt.Sprintf("speech-%s.wav", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := util.AtomicWriteFile(path, EncodeWAV(buf), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// =============================================================================
// COMMAND PLAYER
// =============================================================================

// CommandPlayer writes a WAV file and plays it with an external program
// such as aplay or afplay. Playback ends when the program exits.
type CommandPlayer struct {
	// Command is the program and its leading arguments; the file path is
	// appended.
	Command []string
	Dir     string
	// Keep leaves the WAV file in Dir after playback.
	Keep   bool
	Logger *slog.Logger
}

// NewCommandPlayer parses command (e.g. "aplay -q"). An empty command picks
// the first known player found on PATH.
func NewCommandPlayer(command, dir string, logger *slog.Logger) (*CommandPlayer, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		args = DetectPlayerCommand()
	}
	if len(args) == 0 {
		return nil, ErrNoPlayer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandPlayer{Command: args, Dir: dir, Logger: logger}, nil
}

// Start launches the player. done runs after the process exits.
func (p *CommandPlayer) Start(ctx context.Context, buf *Buffer, done func()) error {
	path, err := writeWAV(p.Dir, buf)
	if err != nil {
		return err
	}

	args := append(append([]string{}, p.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.Command[0], args...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("start %s: %w", p.Command[0], err)
	}

	go func() {
		defer done()
		if err := cmd.Wait(); err != nil {
			p.Logger.Warn("audio player exited with error", "command", p.Command[0], "error", err)
		}
		if !p.Keep {
			os.Remove(path)
		}
	}()
	return nil
}

// candidatePlayers lists known players per platform, in preference order.
func candidatePlayers(goos string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"afplay"}}
	case "windows":
		return [][]string{{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}}
	default:
		return [][]string{
			{"paplay"},
			{"aplay", "-q"},
			{"pw-play"},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		}
	}
}

// DetectPlayerCommand returns the first available player, or nil.
func DetectPlayerCommand() []string {
	for _, c := range candidatePlayers(runtime.GOOS) {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}
