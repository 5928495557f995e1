// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jeranaias/nova-tui/internal/remote"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig

	chunks    []*genai.GenerateContentResponse
	errAt     int // index at which the stream yields streamErr; -1 for none
	streamErr error

	resp    *genai.GenerateContentResponse
	respErr error
}

func (f *fakeModels) GenerateContentStream(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.model, f.contents, f.config = model, contents, config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for i, c := range f.chunks {
			if i == f.errAt {
				yield(nil, f.streamErr)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.respErr
}

func textChunk(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func newTestClient(t *testing.T, key string, models *fakeModels) (*Client, *int) {
	t.Helper()
	dials := 0
	c := New(Config{
		APIKey: func() string { return key },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	c.dial = func(context.Context, string) (modelsAPI, error) {
		dials++
		return models, nil
	}
	return c, &dials
}

func TestClient_MissingKeyIsConfigurationError(t *testing.T) {
	key := ""
	models := &fakeModels{errAt: -1}
	dials := 0
	c := New(Config{APIKey: func() string { return key }, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	c.dial = func(context.Context, string) (modelsAPI, error) {
		dials++
		return models, nil
	}

	_, err := c.GenerateStream(context.Background(), remote.GenerateRequest{Model: "m"})
	require.ErrorIs(t, err, remote.ErrMissingCredential)
	assert.True(t, remote.IsConfiguration(err))

	_, err = c.Synthesize(context.Background(), remote.SpeechRequest{Text: "hi"})
	assert.True(t, remote.IsConfiguration(err))
	assert.Zero(t, dials)

	// The key is read again on the next call and the client is built once.
	key = "secret"
	_, err = c.GenerateStream(context.Background(), remote.GenerateRequest{Model: "m"})
	require.NoError(t, err)
	_, err = c.GenerateStream(context.Background(), remote.GenerateRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 1, dials)
}

func TestGenerateStream_YieldsVisibleText(t *testing.T) {
	models := &fakeModels{
		errAt: -1,
		chunks: []*genai.GenerateContentResponse{
			textChunk(&genai.Part{Text: "planning...", Thought: true}),
			textChunk(&genai.Part{Text: "He"}),
			{}, // no candidates
			textChunk(&genai.Part{Text: "llo"}, &genai.Part{Text: "!"}),
		},
	}
	c, _ := newTestClient(t, "k", models)

	s, err := c.GenerateStream(context.Background(), remote.GenerateRequest{Model: "gemini-2.5-flash"})
	require.NoError(t, err)

	var got []string
	for {
		f, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, f)
	}
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"He", "llo!"}, got)
	assert.Equal(t, "gemini-2.5-flash", models.model)
	assert.Nil(t, models.config)
}

func TestGenerateStream_ErrorIsTransport(t *testing.T) {
	models := &fakeModels{
		chunks:    []*genai.GenerateContentResponse{textChunk(&genai.Part{Text: "Hello "}), nil},
		errAt:     1,
		streamErr: errors.New("connection reset"),
	}
	c, _ := newTestClient(t, "k", models)

	s, err := c.GenerateStream(context.Background(), remote.GenerateRequest{Model: "m"})
	require.NoError(t, err)
	text, err := remote.Collect(s)
	assert.Equal(t, "Hello ", text)
	assert.True(t, remote.IsTransport(err))
	assert.ErrorContains(t, err, "connection reset")
}

func TestGenerateStream_RequestMapping(t *testing.T) {
	models := &fakeModels{errAt: -1}
	c, _ := newTestClient(t, "k", models)

	budget := 1024
	req := remote.GenerateRequest{
		Model: "gemini-3-pro-preview",
		History: []remote.Turn{
			{Role: remote.RoleUser, Text: "first"},
			{Role: remote.RoleModel, Text: ""},
			{Role: remote.RoleModel, Text: "reply"},
		},
		Parts: []remote.Part{
			remote.InlinePart("image/png", []byte{1, 2}),
			remote.TextPart("what is this?"),
		},
		ThinkingBudget: &budget,
	}
	s, err := c.GenerateStream(context.Background(), req)
	require.NoError(t, err)
	_, _ = remote.Collect(s)

	require.Len(t, models.contents, 3)
	assert.Equal(t, "user", models.contents[0].Role)
	assert.Equal(t, "first", models.contents[0].Parts[0].Text)
	assert.Equal(t, "model", models.contents[1].Role)
	assert.Equal(t, "reply", models.contents[1].Parts[0].Text)

	current := models.contents[2]
	assert.Equal(t, "user", current.Role)
	require.Len(t, current.Parts, 2)
	require.NotNil(t, current.Parts[0].InlineData)
	assert.Equal(t, "image/png", current.Parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte{1, 2}, current.Parts[0].InlineData.Data)
	assert.Equal(t, "what is this?", current.Parts[1].Text)

	require.NotNil(t, models.config)
	require.NotNil(t, models.config.ThinkingConfig)
	assert.Equal(t, int32(1024), *models.config.ThinkingConfig.ThinkingBudget)
}

func TestToContents_ImageOnlyTurn(t *testing.T) {
	contents := toContents(remote.GenerateRequest{
		Parts: []remote.Part{remote.InlinePart("image/jpeg", []byte{9}), remote.TextPart("")},
	})
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 1)
	assert.NotNil(t, contents[0].Parts[0].InlineData)
}

func TestSynthesize(t *testing.T) {
	audio := []byte{0, 1, 2, 3}
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		respErr error
		want    []byte
		check   func(t *testing.T, err error)
	}{
		{
			name: "audio",
			resp: textChunk(&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: audio}}),
			want: audio,
		},
		{
			name:  "refusal",
			resp:  textChunk(&genai.Part{Text: "I can't say that"}),
			check: func(t *testing.T, err error) { assert.True(t, remote.IsRefusal(err)) },
		},
		{
			name:  "no candidates",
			resp:  &genai.GenerateContentResponse{},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, remote.ErrNoAudio) },
		},
		{
			name:  "empty inline data",
			resp:  textChunk(&genai.Part{InlineData: &genai.Blob{}}),
			check: func(t *testing.T, err error) { assert.True(t, remote.IsTransport(err)) },
		},
		{
			name:    "request error",
			respErr: errors.New("503"),
			check:   func(t *testing.T, err error) { assert.True(t, remote.IsTransport(err)) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			models := &fakeModels{errAt: -1, resp: tc.resp, respErr: tc.respErr}
			c, _ := newTestClient(t, "k", models)

			got, err := c.Synthesize(context.Background(), remote.SpeechRequest{Text: "olá", Voice: "Kore"})
			if tc.check != nil {
				require.Error(t, err)
				tc.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			assert.Equal(t, DefaultTTSModel, models.model)
			assert.Equal(t, []string{"AUDIO"}, models.config.ResponseModalities)
			assert.Equal(t, "Kore", models.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
			assert.Equal(t, "olá", models.contents[0].Parts[0].Text)
		})
	}
}
