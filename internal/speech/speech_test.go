// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/nova-tui/internal/remote"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSynth struct {
	mu       sync.Mutex
	requests []remote.SpeechRequest
	audio    []byte
	err      error
}

func (s *fakeSynth) Synthesize(_ context.Context, req remote.SpeechRequest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.audio, s.err
}

func (s *fakeSynth) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// manualPlayer holds playback open until the test calls finish.
type manualPlayer struct {
	mu      sync.Mutex
	started int
	done    func()
	err     error
}

func (p *manualPlayer) Start(_ context.Context, _ *Buffer, done func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.started++
	p.done = done
	return nil
}

func (p *manualPlayer) finish() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	done()
}

func (p *manualPlayer) starts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func pcm(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func newTestGate(synth remote.Synthesizer, player Player) *Gate {
	return NewGate(synth, player, WithGateLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// =============================================================================
// CLEAN TEXT
// =============================================================================

func TestCleanText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bold and code", "**bold** and `code`", "bold and code", false},
		{"headings and links", "## Title [link]_x_", "Title linkx", false},
		{"markup only falls back", "**", "**", false},
		{"markup only with spaces", "  ## ", "##", false},
		{"empty", "", "", true},
		{"whitespace", " \n\t ", "", true},
		{"plain", "  olá  ", "olá", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanText(tc.in)
			if tc.wantErr {
				var empty *EmptyInputError
				require.ErrorAs(t, err, &empty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// =============================================================================
// PCM
// =============================================================================

func TestDecodePCM16(t *testing.T) {
	buf, err := DecodePCM16(pcm(0, 16384, -32768, 32767), DefaultSampleRate, 1)
	require.NoError(t, err)
	require.Len(t, buf.Channels, 1)
	assert.Equal(t, 4, buf.Frames())
	assert.InDelta(t, 0.0, buf.Channels[0][0], 1e-6)
	assert.InDelta(t, 0.5, buf.Channels[0][1], 1e-6)
	assert.InDelta(t, -1.0, buf.Channels[0][2], 1e-6)
	assert.InDelta(t, 32767.0/32768.0, buf.Channels[0][3], 1e-6)

	_, err = DecodePCM16([]byte{1, 2, 3}, DefaultSampleRate, 1)
	assert.ErrorIs(t, err, ErrOddPCMLength)

	_, err = DecodePCM16(pcm(1), 0, 1)
	assert.Error(t, err)
}

func TestDecodePCM16_Stereo(t *testing.T) {
	buf, err := DecodePCM16(pcm(100, -100, 200, -200, 300), 48000, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Frames(), "trailing partial frame is dropped")
	assert.Greater(t, buf.Channels[0][1], float32(0))
	assert.Less(t, buf.Channels[1][1], float32(0))
}

func TestBuffer_Duration(t *testing.T) {
	buf, err := DecodePCM16(make([]byte, 2*DefaultSampleRate), DefaultSampleRate, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Second, buf.Duration())
}

func TestEncodeWAV(t *testing.T) {
	in := pcm(0, 1000, -1000, 32767)
	buf, err := DecodePCM16(in, DefaultSampleRate, 1)
	require.NoError(t, err)

	wav := EncodeWAV(buf)
	require.Len(t, wav, 44+len(in))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(DefaultSampleRate), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(len(in)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, in, wav[44:])
}

// =============================================================================
// GATE
// =============================================================================

func TestGate_PlayLifecycle(t *testing.T) {
	synth := &fakeSynth{audio: pcm(1, 2, 3, 4)}
	player := &manualPlayer{}
	g := newTestGate(synth, player)

	require.NoError(t, g.Play(context.Background(), "**Olá** `mundo`"))
	assert.True(t, g.Busy(), "busy until playback ends, not when synthesis completes")
	require.NotNil(t, g.Current())
	assert.Equal(t, 4, g.Current().Frames())

	require.Equal(t, 1, synth.calls())
	assert.Equal(t, remote.SpeechRequest{Text: "Olá mundo", Voice: DefaultVoice}, synth.requests[0])

	player.finish()
	assert.False(t, g.Busy())
	assert.Nil(t, g.Current())
	assert.NoError(t, g.Wait(context.Background()))
}

func TestGate_SingleFlight(t *testing.T) {
	synth := &fakeSynth{audio: pcm(1, 2)}
	player := &manualPlayer{}
	g := newTestGate(synth, player)

	require.NoError(t, g.Play(context.Background(), "first"))
	require.NoError(t, g.Play(context.Background(), "second"))
	require.NoError(t, g.Play(context.Background(), "third"))

	assert.Equal(t, 1, synth.calls())
	assert.Equal(t, 1, player.starts())

	player.finish()
	player.finish() // done is idempotent
	require.NoError(t, g.Play(context.Background(), "again"))
	assert.Equal(t, 2, synth.calls())
}

func TestGate_ConcurrentPlay(t *testing.T) {
	synth := &fakeSynth{audio: pcm(1)}
	player := &manualPlayer{}
	g := newTestGate(synth, player)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Play(context.Background(), "hello")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, synth.calls())
	assert.Equal(t, 1, player.starts())
}

func TestGate_EmptyInputBeforeNetwork(t *testing.T) {
	synth := &fakeSynth{audio: pcm(1)}
	g := newTestGate(synth, &manualPlayer{})

	err := g.Play(context.Background(), "")
	var empty *EmptyInputError
	require.ErrorAs(t, err, &empty)
	assert.Zero(t, synth.calls())
	assert.False(t, g.Busy())
}

func TestGate_FailuresClearBusy(t *testing.T) {
	tests := []struct {
		name   string
		synth  *fakeSynth
		player *manualPlayer
		check  func(t *testing.T, err error)
	}{
		{
			name:   "transport",
			synth:  &fakeSynth{err: remote.NewTransportError("tts down", nil)},
			player: &manualPlayer{},
			check:  func(t *testing.T, err error) { assert.True(t, remote.IsTransport(err)) },
		},
		{
			name:   "refusal",
			synth:  &fakeSynth{err: remote.NewRefusalError("no")},
			player: &manualPlayer{},
			check:  func(t *testing.T, err error) { assert.True(t, remote.IsRefusal(err)) },
		},
		{
			name:   "decode",
			synth:  &fakeSynth{audio: []byte{1}},
			player: &manualPlayer{},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrOddPCMLength) },
		},
		{
			name:   "player",
			synth:  &fakeSynth{audio: pcm(1)},
			player: &manualPlayer{err: errors.New("no device")},
			check:  func(t *testing.T, err error) { assert.ErrorContains(t, err, "no device") },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGate(tc.synth, tc.player)
			err := g.Play(context.Background(), "speak")
			require.Error(t, err)
			tc.check(t, err)
			assert.False(t, g.Busy())
			assert.Zero(t, tc.player.starts())
		})
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	g := newTestGate(&fakeSynth{audio: pcm(1)}, &manualPlayer{})
	require.NoError(t, g.Play(context.Background(), "hold"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}

func TestGate_WithVoice(t *testing.T) {
	synth := &fakeSynth{audio: pcm(1)}
	g := NewGate(synth, NewWAVPlayer(t.TempDir()), WithVoice("Puck"), WithSampleRate(16000))
	require.NoError(t, g.Play(context.Background(), "hi"))
	assert.Equal(t, "Puck", synth.requests[0].Voice)
	assert.False(t, g.Busy(), "file playback ends when the file is written")
}

// =============================================================================
// PLAYERS
// =============================================================================

func TestWAVPlayer(t *testing.T) {
	dir := t.TempDir()
	p := NewWAVPlayer(dir)
	buf, err := DecodePCM16(pcm(5, 6), DefaultSampleRate, 1)
	require.NoError(t, err)

	doneCalled := false
	require.NoError(t, p.Start(context.Background(), buf, func() { doneCalled = true }))
	assert.True(t, doneCalled)

	path := p.LastPath()
	assert.Equal(t, dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, EncodeWAV(buf), data)
}

func TestNewCommandPlayer(t *testing.T) {
	p, err := NewCommandPlayer("aplay -q", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"aplay", "-q"}, p.Command)
}

func TestCandidatePlayers(t *testing.T) {
	assert.Equal(t, [][]string{{"afplay"}}, candidatePlayers("darwin"))
	assert.NotEmpty(t, candidatePlayers("linux"))
}
