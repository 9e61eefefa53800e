// Package answerer answers questions from retrieved article chunks.
package answerer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/phuslu/log"

	"newsresearch/internal/domain"
)

// NoAnswer is shown when the model returns an empty answer.
const NoAnswer = "No answer found."

const promptTemplate = `Given the following extracted parts of news articles and a question, create a final answer with references ("SOURCES").
If you don't know the answer, just say that you don't know. Don't try to make up an answer.
ALWAYS return a "SOURCES" part in your answer, listing the Source values you used separated by commas.

QUESTION: %s
=========
%s=========
FINAL ANSWER:`

var (
	sourcesRe     = regexp.MustCompile(`(?i)SOURCES:\s*`)
	finalAnswerRe = regexp.MustCompile(`(?i)^\s*FINAL ANSWER:\s*`)
	sourceSplitRe = regexp.MustCompile(`[,\s]+`)
)

// Answerer retrieves the top-K chunks for a question and asks the completer
// for an answer citing them.
type Answerer struct {
	completer domain.Completer
	topK      int
	logger    *log.Logger
}

// New creates an Answerer. topK below 1 is raised to 1.
func New(completer domain.Completer, topK int, logger *log.Logger) *Answerer {
	return &Answerer{completer: completer, topK: max(1, topK), logger: logger}
}

// Answer runs retrieval and generation for question.
func (a *Answerer) Answer(ctx context.Context, searcher domain.Searcher, embedder domain.Embedder, question string) (domain.Answer, error) {
	start := time.Now()
	qv, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embed question: %w", err)
	}
	results, err := searcher.Search(qv, a.topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("search index: %w", err)
	}
	if len(results) == 0 {
		return domain.Answer{}, errors.New("index returned no passages")
	}

	raw, err := a.completer.Complete(ctx, BuildPrompt(question, results))
	if err != nil {
		return domain.Answer{}, &domain.AnswerError{Err: err}
	}
	answer := ParseAnswer(raw, results)

	a.logger.Info().
		Str("question", question).
		Int("passages", len(results)).
		Strs("sources", answer.Sources).
		Dur("duration", time.Since(start)).
		Msg("question answered")
	return answer, nil
}

// BuildPrompt stuffs all passages into a single prompt.
func BuildPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Content: %s\nSource: %s\n\n", strings.TrimSpace(r.Chunk.Text), r.Chunk.Source)
	}
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(question), b.String())
}

// ParseAnswer splits a model response into answer text and sources.
// Only sources of the retrieved passages are kept, deduplicated in order of mention.
func ParseAnswer(raw string, results []domain.SearchResult) domain.Answer {
	text, cited := raw, ""
	if loc := sourcesRe.FindStringIndex(raw); loc != nil {
		text, cited = raw[:loc[0]], raw[loc[1]:]
	}
	text = strings.TrimSpace(finalAnswerRe.ReplaceAllString(text, ""))
	if text == "" {
		text = NoAnswer
	}

	known := make(map[string]struct{}, len(results))
	for _, r := range results {
		known[r.Chunk.Source] = struct{}{}
	}
	seen := make(map[string]struct{})
	var sources []string
	for _, tok := range sourceSplitRe.Split(cited, -1) {
		tok = strings.Trim(tok, "-*•[]()<>\"'`")
		tok = strings.TrimRight(tok, ".;:")
		if _, ok := known[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		sources = append(sources, tok)
	}
	return domain.Answer{Text: text, Sources: sources}
}
