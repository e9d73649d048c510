// Package assist answers free-form security questions with a Gemini model.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/utils"
)

// ErrEmptyPrompt is returned for a blank prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// MsgEmptyPrompt is shown for ErrEmptyPrompt.
const MsgEmptyPrompt = "Please enter a question."

const systemPrompt = "You are a security awareness assistant. Answer questions about phishing, " +
	"scams and safe online behaviour in plain language for non-experts."

// Generator is the part of the genai client the assistant uses.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Reply is a formatted model answer.
type Reply struct {
	Paragraphs []string `json:"paragraphs"`
}

// Text joins the paragraphs with blank lines.
func (r Reply) Text() string { return strings.Join(r.Paragraphs, "\n\n") }

type Assistant struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func New(gen Generator, model string, timeout time.Duration, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{gen: gen, model: model, timeout: timeout, logger: logger}
}

// NewFromConfig builds an Assistant backed by the Gemini API.
func NewFromConfig(ctx context.Context, cfg config.AssistantConfig, logger *zap.Logger) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return New(client.Models, cfg.Model, cfg.Timeout, logger), nil
}

// Ask sends prompt to the model and formats the answer.
func (a *Assistant) Ask(ctx context.Context, prompt string) (Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Reply{}, ErrEmptyPrompt
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.gen.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		a.logger.Error("generate content failed", zap.String("model", a.model), zap.Error(err))
		return Reply{}, utils.Remote("generate content", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		a.logger.Error("generate content returned no text", zap.String("model", a.model))
		return Reply{}, utils.Remote("generate content", errors.New("empty reply"))
	}
	return Format(text), nil
}

// Format strips ** bold markers and splits text into trimmed, non-empty
// paragraphs.
func Format(text string) Reply {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return Reply{Paragraphs: paras}
}
