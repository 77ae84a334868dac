package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
	"github.com/recallkit/recall/internal/logger"
)

// ClassifierConfig tunes the heuristic gate and the generative passes.
type ClassifierConfig struct {
	// ExcludedKeywords short-circuits classification for transient or
	// action-like content. Matching is case-insensitive substring.
	ExcludedKeywords []string

	// MinContentLength is the minimum text length worth classifying.
	MinContentLength int

	// MaxTokens bounds each generative call.
	MaxTokens int

	// Temperature for extraction; kept low to favour determinism.
	Temperature float64

	// StopWords end generation at section markers.
	StopWords []string

	// Timeout bounds each generative call. A timed-out call is a
	// classification failure and the document is dropped.
	Timeout time.Duration
}

// DefaultExcludedKeywords rejects tool invocations, browser and
// application actions, and session-relative phrasing before any
// generative call is spent on them.
var DefaultExcludedKeywords = []string{
	"tool call",
	"tool_call",
	"function call",
	"executing",
	"opened the browser",
	"opening browser",
	"clicked",
	"screenshot",
	"launched",
	"web page",
	"opened a",
	"successfully",
	"completed",
	"this session",
	"current session",
	"earlier today",
	"just now",
	"search results",
}

const (
	// minExtractionLength rejects generative output too short to be a fact.
	minExtractionLength = 20

	// noneMarker is the literal no-result response the prompts request.
	noneMarker = "NONE"
)

const personalPrompt = `Extract only lasting personal facts about the user from the text below: where they live, durable preferences, job, family, skills, long-term goals.
Ignore tool output, browser or application actions, and anything only relevant to the current session.
Respond with the extracted facts as plain sentences. If there is nothing lasting to extract, respond with exactly NONE.

Text:
%s

Facts:`

const worldFactPrompt = `Extract only durable factual or educational content from the text below: stable knowledge about the world worth remembering long-term.
Ignore news, current events, search results, tool output and session chatter.
Respond with the extracted facts as plain sentences. If there is nothing durable to extract, respond with exactly NONE.

Text:
%s

Facts:`

// Classifier decides per-document retention and category.
//
// Stage 1 is a cheap heuristic gate (keywords + length). Stages 2 and 3
// are generative extraction passes for personal and world facts. Volatile
// extraction is a defined but disabled third category.
//
// Any generative failure is absorbed: the classifier returns all-empty
// and the document is dropped, never retried. A dropped memory is
// preferable to a corrupted or hallucinated one.
type Classifier struct {
	llm  driven.LLMService
	gate *ModelGate
	cfg  ClassifierConfig
}

// NewClassifier creates a content classifier. Zero-value config fields
// fall back to defaults.
func NewClassifier(llm driven.LLMService, gate *ModelGate, cfg ClassifierConfig) *Classifier {
	if len(cfg.ExcludedKeywords) == 0 {
		cfg.ExcludedKeywords = DefaultExcludedKeywords
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 100
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if len(cfg.StopWords) == 0 {
		cfg.StopWords = []string{"\n\n\n", "###"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Classifier{llm: llm, gate: gate, cfg: cfg}
}

// Classify runs the heuristic gate and the extraction passes over text.
// It never returns an error: failures collapse to an empty classification.
func (c *Classifier) Classify(ctx context.Context, text string, _ domain.Context) domain.Classification {
	if c.rejected(text) {
		logger.Debug("Classifier gate rejected content (%d chars)", utf8.RuneCountInString(text))
		return domain.Classification{}
	}

	var result domain.Classification
	result.Personal = c.extract(ctx, personalPrompt, text)
	result.WorldFacts = c.extract(ctx, worldFactPrompt, text)
	// Volatile extraction is disabled; the category always comes back empty.

	logger.Debug("Classified content: %d personal, %d world facts",
		len(result.Personal), len(result.WorldFacts))
	return result
}

// rejected applies the stage-1 heuristic gate. Length is measured in
// characters, not bytes, so multibyte text is gated the same as ASCII.
func (c *Classifier) rejected(text string) bool {
	if utf8.RuneCountInString(text) < c.cfg.MinContentLength {
		return true
	}
	return c.containsExcluded(text)
}

// containsExcluded reports whether text matches the exclusion list.
func (c *Classifier) containsExcluded(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.cfg.ExcludedKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// extract issues one bounded generative call and validates the output.
// Any error, including timeout, yields nil.
func (c *Classifier) extract(ctx context.Context, promptTemplate, text string) []string {
	prompt := fmt.Sprintf(promptTemplate, text)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var out string
	err := c.gate.Do(callCtx, func() error {
		var genErr error
		out, genErr = c.llm.Generate(callCtx, prompt, driven.GenerateOptions{
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
			StopWords:   c.cfg.StopWords,
		})
		return genErr
	})
	if err != nil {
		logger.Warn("Extraction call failed, dropping content: %v", err)
		return nil
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, noneMarker) || len(out) < minExtractionLength {
		return nil
	}

	// The model can echo transient content back; re-check against the
	// exclusion list before accepting anything.
	if c.containsExcluded(out) {
		logger.Debug("Extraction output matched exclusion list, discarding")
		return nil
	}

	return []string{out}
}
