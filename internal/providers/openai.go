// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/retry"
)

const rankSystemPrompt = `You are a venue recommendation assistant. Given an occasion and a numbered list of venues, rank the venues from best to worst fit for the occasion. Respond with ONLY a JSON array of objects, one per venue, in ranked order: [{"index": <1-based venue number>, "reason": "<one short sentence>"}]. Include every venue exactly once.`

// OpenAIRanker implements Ranker using a chat completion. It asks the model
// to order the candidate list for the occasion and to justify each position.
type OpenAIRanker struct {
	client    *openai.Client
	model     string
	maxTokens int
	retryCfg  retry.Config
	cb        *gobreaker.CircuitBreaker[[]models.VenueCandidate]
	enabled   bool
}

type rankEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// NewOpenAIRanker creates an OpenAI ranking adapter from configuration.
func NewOpenAIRanker(cfg config.OpenAIConfig, timeout time.Duration, retryCfg retry.Config) *OpenAIRanker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIRanker{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: cfg.MaxTokens,
		retryCfg:  retryCfg,
		cb:        newBreaker[[]models.VenueCandidate]("openai"),
		enabled:   cfg.APIKey != "",
	}
}

// Name returns the provider name.
func (p *OpenAIRanker) Name() string {
	return "openai"
}

// IsAvailable returns true when an API key is configured.
func (p *OpenAIRanker) IsAvailable() bool {
	return p.enabled
}

// Rank returns the candidates reordered by fit for the occasion, with a
// one-line reason per venue. Callers keep the original order on error.
func (p *OpenAIRanker) Rank(ctx context.Context, occasion string, venues []models.VenueCandidate) ([]models.VenueCandidate, error) {
	if !p.IsAvailable() {
		return nil, ErrProviderUnavailable
	}
	if len(venues) < 2 {
		return venues, nil
	}

	start := time.Now()
	ranked, err := retry.Do(ctx, p.retryCfg, func() ([]models.VenueCandidate, error) {
		metrics.RetryAttempts.WithLabelValues(p.Name()).Inc()
		return p.cb.Execute(func() ([]models.VenueCandidate, error) {
			return p.rankOnce(ctx, occasion, venues)
		})
	})
	metrics.RecordProviderCall(p.Name(), "rank", time.Since(start))

	if err != nil {
		classifyProviderError(p.Name(), err)
		return nil, fmt.Errorf("openai rank: %w", err)
	}
	return ranked, nil
}

func (p *OpenAIRanker) rankOnce(ctx context.Context, occasion string, venues []models.VenueCandidate) ([]models.VenueCandidate, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rankSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildRankPrompt(occasion, venues)},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, retry.NewHTTPError(p.Name(), apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return applyRanking(venues, resp.Choices[0].Message.Content)
}

func buildRankPrompt(occasion string, venues []models.VenueCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Occasion: %s\n\nVenues:\n", occasion)
	for i, v := range venues {
		fmt.Fprintf(&b, "%d. %s", i+1, v.Name)
		if len(v.Categories) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(v.Categories, ", "))
		}
		if v.Rating > 0 {
			fmt.Fprintf(&b, ", rated %.1f from %d reviews", v.Rating, v.RatingCount)
		}
		if v.Address != "" {
			fmt.Fprintf(&b, ", %s", v.Address)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// applyRanking reorders venues per the model's JSON answer. A malformed or
// incomplete answer is an error; the caller falls back to the input order.
func applyRanking(venues []models.VenueCandidate, answer string) ([]models.VenueCandidate, error) {
	// Models sometimes wrap JSON in a code fence.
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	var entries []rankEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &entries); err != nil {
		return nil, fmt.Errorf("malformed ranking response: %w", err)
	}

	ranked := make([]models.VenueCandidate, 0, len(venues))
	seen := make(map[int]bool, len(venues))
	for _, e := range entries {
		idx := e.Index - 1
		if idx < 0 || idx >= len(venues) || seen[idx] {
			continue
		}
		seen[idx] = true
		v := venues[idx]
		v.RankReason = e.Reason
		ranked = append(ranked, v)
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranking response matched none of %d venues", len(venues))
	}

	// Venues the model skipped keep their relative order at the tail.
	for i, v := range venues {
		if !seen[i] {
			ranked = append(ranked, v)
		}
	}
	return ranked, nil
}
