// Package ai enriches records with a category, summary and tags from an
// OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"xknowledge/internal/domain"
)

const temperature = 0.3

// Config selects the endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer produces a domain.Analysis for a post text.
type Analyzer struct {
	client  chatClient
	model   string
	prompts *PromptConfig
}

// NewAnalyzer builds an analyzer. Without an API key every call returns
// domain.ErrAnalyzerDisabled.
func NewAnalyzer(cfg Config, prompts *PromptConfig) *Analyzer {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	a := &Analyzer{model: cfg.Model, prompts: prompts}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		a.client = openai.NewClientWithConfig(clientCfg)
	}
	return a
}

// Enabled reports whether an API key was configured.
func (a *Analyzer) Enabled() bool {
	return a.client != nil
}

// Analyze asks the model for a JSON analysis of text.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if a.client == nil {
		return nil, domain.ErrAnalyzerDisabled
	}

	var messages []openai.ChatCompletionMessage
	if system := a.prompts.System(); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: a.prompts.Prompt() + "\n\nPost:\n" + text,
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrAnalysisUnparseable)
	}

	return ParseAnalysis(resp.Choices[0].Message.Content)
}

var (
	fenceRe = regexp.MustCompile("```(?:json)?\\s*")
	thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// ParseAnalysis decodes a model reply. Code fences and reasoning blocks
// around the JSON object are ignored.
func ParseAnalysis(content string) (*domain.Analysis, error) {
	clean := thinkRe.ReplaceAllString(content, "")
	clean = fenceRe.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	if start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}"); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var raw struct {
		Category string   `json:"category"`
		Summary  string   `json:"summary"`
		Tags     []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisUnparseable, err)
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &domain.Analysis{
		Category: strings.TrimSpace(raw.Category),
		Summary:  strings.TrimSpace(raw.Summary),
		Tags:     tags,
	}, nil
}
