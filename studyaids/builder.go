package studyaids

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/groundit/ai"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/storage"
)

const (
	// maxExcerptRunes bounds how much document text goes into a prompt.
	maxExcerptRunes = 15000

	defaultCount  = 5
	parseAttempts = 3
)

const quizPromptTemplate = `Generate a quiz with %d questions based on text. Return JSON.
Format: [{ "question": "...", "options": ["A", "B"], "correct_answer": "A" }]
TEXT: %s`

const flashcardPromptTemplate = `Generate %d flashcards based on text. Return JSON.
Format: [{ "front": "...", "back": "..." }]
TEXT: %s`

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Flashcard is one front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Builder generates study aids from indexed documents.
type Builder struct {
	repository storage.VectorRepository
	generator  ai.Generator
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a study aid builder.
func NewBuilder(repository storage.VectorRepository, provider ai.Provider, opts ...Option) (*Builder, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	b := &Builder{
		repository: repository,
		generator:  provider.Generator(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Quiz generates count multiple-choice questions from the document.
// count <= 0 uses the default of 5.
func (b *Builder) Quiz(ctx context.Context, documentID string, count int) ([]QuizQuestion, error) {
	if count <= 0 {
		count = defaultCount
	}

	excerpt, err := b.excerpt(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var quiz []QuizQuestion
	prompt := fmt.Sprintf(quizPromptTemplate, count, excerpt)
	if err := b.generateJSON(ctx, prompt, &quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Flashcards generates count front/back cards from the document.
// count <= 0 uses the default of 5.
func (b *Builder) Flashcards(ctx context.Context, documentID string, count int) ([]Flashcard, error) {
	if count <= 0 {
		count = defaultCount
	}

	excerpt, err := b.excerpt(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var cards []Flashcard
	prompt := fmt.Sprintf(flashcardPromptTemplate, count, excerpt)
	if err := b.generateJSON(ctx, prompt, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// excerpt reassembles the document from its chunks and trims it to prompt
// size.
func (b *Builder) excerpt(ctx context.Context, documentID string) (string, error) {
	records, err := b.repository.Document(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: document %q", core.ErrNotFound, documentID)
	}

	text := reassemble(records)
	runes := []rune(text)
	if len(runes) > maxExcerptRunes {
		runes = runes[:maxExcerptRunes]
	}
	return string(runes), nil
}

// reassemble stitches ordered chunks back into the document text, dropping
// the overlapping region each chunk shares with its predecessor.
func reassemble(records []*core.ChunkRecord) string {
	var sb strings.Builder
	prevEnd := uint32(0)
	for _, record := range records {
		runes := []rune(record.Text)
		skip := 0
		if record.Start < prevEnd {
			skip = int(prevEnd - record.Start)
		}
		if skip < len(runes) {
			sb.WriteString(string(runes[skip:]))
		}
		if record.End > prevEnd {
			prevEnd = record.End
		}
	}
	return sb.String()
}

// generateJSON runs the prompt and parses the response into out,
// regenerating a bounded number of times when the model returns malformed
// JSON.
func (b *Builder) generateJSON(ctx context.Context, prompt string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= parseAttempts; attempt++ {
		response, err := b.generator.Complete(ctx, prompt)
		if err != nil {
			return err
		}

		payload := repairJSON(stripCodeFences(response))
		if err := json.Unmarshal([]byte(payload), out); err != nil {
			lastErr = err
			b.logger.Warn("error parsing study aid response", "component", "studyaids",
				"attempt", attempt, "err", err)
			continue
		}
		return nil
	}

	b.logger.Error("failed to parse study aid response after retries",
		"component", "studyaids", "err", lastErr)
	return fmt.Errorf("%w: %w", core.ErrGenerationUnavailable, lastErr)
}
