// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the remote generator and synthesizer on top of
// the Gemini API.
package gemini

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/jeranaias/nova-tui/internal/remote"
)

// Default settings.
const (
	DefaultTTSModel      = "gemini-2.5-flash-preview-tts"
	DefaultSpeechTimeout = 60 * time.Second
)

// modelsAPI is the subset of *genai.Models used here.
type modelsAPI interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds client settings.
type Config struct {
	// APIKey is called on first use; an empty result is a configuration error.
	APIKey func() string

	// TTSModel is the speech synthesis model.
	TTSModel string

	// SpeechTimeout bounds one synthesis call. Generation streams are not
	// bounded here.
	SpeechTimeout time.Duration

	// HTTPClient overrides the transport.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// DefaultConfig returns a Config that reads nothing; callers set APIKey.
func DefaultConfig() Config {
	return Config{
		APIKey:        func() string { return "" },
		TTSModel:      DefaultTTSModel,
		SpeechTimeout: DefaultSpeechTimeout,
		HTTPClient:    &http.Client{},
		Logger:        slog.Default(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the shared Gemini client. The underlying SDK client is built on
// the first call and reused afterwards; construction is retried until a
// credential is available.
type Client struct {
	config Config

	mu     sync.Mutex
	models modelsAPI
	dial   func(ctx context.Context, key string) (modelsAPI, error)
}

// New creates a client. No network or credential access happens here.
func New(config Config) *Client {
	def := DefaultConfig()
	if config.APIKey == nil {
		config.APIKey = def.APIKey
	}
	if config.TTSModel == "" {
		config.TTSModel = def.TTSModel
	}
	if config.SpeechTimeout <= 0 {
		config.SpeechTimeout = def.SpeechTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = def.HTTPClient
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}

	c := &Client{config: config}
	c.dial = c.dialSDK
	return c
}

func (c *Client) dialSDK(ctx context.Context, key string) (modelsAPI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.config.HTTPClient,
	})
	if err != nil {
		return nil, &remote.ClientError{Type: remote.ErrTypeConfiguration, Message: "failed to create Gemini client", Cause: err}
	}
	return client.Models, nil
}

// api returns the SDK handle, creating it on first use.
func (c *Client) api(ctx context.Context) (modelsAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil {
		return c.models, nil
	}
	key := strings.TrimSpace(c.config.APIKey())
	if key == "" {
		c.config.Logger.Error("API key not found in environment or config")
		return nil, remote.ErrMissingCredential
	}
	models, err := c.dial(ctx, key)
	if err != nil {
		return nil, err
	}
	c.models = models
	return models, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// GenerateStream opens a streamed generation call.
func (c *Client) GenerateStream(ctx context.Context, req remote.GenerateRequest) (remote.FragmentStream, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	var config *genai.GenerateContentConfig
	if req.ThinkingBudget != nil {
		config = &genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr(int32(*req.ThinkingBudget)),
			},
		}
	}

	seq := api.GenerateContentStream(ctx, req.Model, toContents(req), config)
	next, stop := iter.Pull2(seq)
	return &fragmentStream{next: next, stop: stop}, nil
}

// fragmentStream adapts a pulled SDK iterator to remote.FragmentStream.
type fragmentStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s *fragmentStream) Next() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", remote.NewTransportError("generation stream failed", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *fragmentStream) Close() error {
	s.stop()
	return nil
}

// toContents maps history to text-only contents and appends the current
// turn. Empty text is omitted since the API rejects empty parts.
func toContents(req remote.GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		if turn.Text == "" {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  turn.Role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}

	current := &genai.Content{Role: remote.RoleUser}
	for _, p := range req.Parts {
		switch {
		case p.IsInline():
			current.Parts = append(current.Parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
			})
		case p.Text != "":
			current.Parts = append(current.Parts, &genai.Part{Text: p.Text})
		}
	}
	return append(contents, current)
}

// responseText joins the visible text of the first candidate, skipping
// reasoning parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// =============================================================================
// SPEECH
// =============================================================================

// Synthesize requests audio for req.Text and returns raw PCM bytes.
func (c *Client) Synthesize(ctx context.Context, req remote.SpeechRequest) ([]byte, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.SpeechTimeout)
	defer cancel()

	contents := []*genai.Content{{
		Role:  remote.RoleUser,
		Parts: []*genai.Part{{Text: req.Text}},
	}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.Voice},
			},
		},
	}

	resp, err := api.GenerateContent(ctx, c.config.TTSModel, contents, config)
	if err != nil {
		return nil, remote.NewTransportError("speech request failed", err)
	}
	return audioFrom(resp)
}

// audioFrom extracts inline audio from the first part of the first candidate.
func audioFrom(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0] == nil {
		return nil, remote.ErrNoAudio
	}
	part := resp.Candidates[0].Content.Parts[0]
	if part.Text != "" {
		return nil, remote.NewRefusalError(part.Text)
	}
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil, remote.ErrNoAudio
	}
	return part.InlineData.Data, nil
}

var (
	_ remote.Generator   = (*Client)(nil)
	_ remote.Synthesizer = (*Client)(nil)
)
