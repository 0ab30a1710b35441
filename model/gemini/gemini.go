// Package gemini provides a model.Model backed by the Google Gemini API
// through the generative-ai-go client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"google.golang.org/api/option"
)

// DefaultModel is used when neither Options nor the request name a model.
const DefaultModel = "gemini-2.5-flash"

// Options configures the Gemini model adapter.
type Options struct {
	Model         string
	APIKey        string
	MaxTokens     int32
	ClientOptions []option.ClientOption
}

// Model wraps a genai.Client behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel dials a Gemini client. The returned model must be closed.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{Model: DefaultModel}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := append([]option.ClientOption{}, opts.ClientOptions...)
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Close releases the underlying client connection.
func (m *Model) Close() error { return m.client.Close() }

// maxOutputTokens prefers the request limit over the configured one.
func (m *Model) maxOutputTokens(req model.Request) int32 {
	if req.MaxTokens > 0 {
		return int32(req.MaxTokens)
	}
	return m.opts.MaxTokens
}

// Generate implements model.Model with a single non-streaming chat turn.
// The last message is sent; everything before it becomes chat history.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		name := req.Model
		if name == "" {
			name = m.opts.Model
		}

		gm := m.client.GenerativeModel(name)
		if n := m.maxOutputTokens(req); n > 0 {
			gm.SetMaxOutputTokens(n)
		}

		system, history := buildContents(req.Instructions, req.Messages)
		if len(history) == 0 {
			errCh <- errors.New("gemini: no messages to send")
			return
		}
		if system != nil {
			gm.SystemInstruction = system
		}

		cs := gm.StartChat()
		cs.History = history[:len(history)-1]

		resp, err := cs.SendMessage(ctx, history[len(history)-1].Parts...)
		if err != nil {
			errCh <- err
			return
		}
		if len(resp.Candidates) == 0 {
			errCh <- fmt.Errorf("no candidates returned")
			return
		}

		cand := resp.Candidates[0]
		out <- model.Response{
			Message:      core.NewAssistantMessage(candidateText(cand)),
			FinishReason: strings.ToLower(cand.FinishReason.String()),
		}
	}()

	return out, errCh
}

// buildContents splits canonical messages into a system instruction and a
// user/model history. Unknown roles are sent as user turns.
func buildContents(instructions string, msgs []core.Message) (*genai.Content, []*genai.Content) {
	var (
		systemParts []genai.Part
		history     []*genai.Content
	)

	if instructions != "" {
		systemParts = append(systemParts, genai.Text(instructions))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleSystem, core.RoleDeveloper:
			if msg.Content != "" {
				systemParts = append(systemParts, genai.Text(msg.Content))
			}
		case core.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}

	if len(systemParts) == 0 {
		return nil, history
	}

	return &genai.Content{Parts: systemParts}, history
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}
