package interview

import (
	"context"
	"fmt"
	"strings"

	"interviewer/logger"
)

const referenceLimit = 3

var metadataPrefixes = []string{"action:", "directive:", "target:", "reason:", "strategy:", "rationale:"}

var labelPrefixes = []string{"next question:", "question:", "interviewer:", "q:"}

// GenerationStage turns a directive into the literal question text.
type GenerationStage struct {
	generator  Generator
	references ReferenceSource
	deps       Deps
}

func NewGenerationStage(deps Deps) *GenerationStage {
	return &GenerationStage{
		generator:  deps.Generator,
		references: deps.References,
		deps:       deps,
	}
}

// Generate returns a question that differs from in.PrevQuestion. A repeat is
// regenerated exactly once with a pivot hint; a second repeat is an error.
func (s *GenerationStage) Generate(ctx context.Context, in GenerationInput) (string, error) {
	if s.references != nil && len(in.References) == 0 {
		in.References = s.lookupReferences(ctx, in)
	}

	question, err := s.attempt(ctx, in)
	if err != nil {
		return "", err
	}

	if !sameQuestion(question, in.PrevQuestion) {
		return question, nil
	}

	logger.Warnf("Generated %s question repeats the previous one, regenerating once", in.Kind)
	in.PivotHint = pivotHint(in)

	question, err = s.attempt(ctx, in)
	if err != nil {
		return "", err
	}

	if sameQuestion(question, in.PrevQuestion) {
		return "", fmt.Errorf("%w: generator repeated the previous question after retry", ErrGenerationUnavailable)
	}
	return question, nil
}

func (s *GenerationStage) attempt(ctx context.Context, in GenerationInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()

	raw, err := s.generator.Generate(ctx, in)
	if err != nil {
		logger.Errorf("Failed to generate %s question: %v", in.Kind, err)
		return "", fmt.Errorf("%w: generate: %v", ErrGenerationUnavailable, err)
	}

	question := CleanQuestion(raw)
	if question == "" {
		return "", fmt.Errorf("%w: generator returned an empty question", ErrGenerationUnavailable)
	}
	return question, nil
}

func (s *GenerationStage) lookupReferences(ctx context.Context, in GenerationInput) []string {
	ctx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()

	topics := in.RecentTopics
	if in.Directive.Target != "" {
		topics = append([]string{in.Directive.Target}, topics...)
	}
	if len(topics) == 0 {
		return nil
	}

	refs, err := s.references.RelatedQuestions(ctx, in.Kind, topics, referenceLimit)
	if err != nil {
		// references only enrich the prompt
		logger.Warnf("Failed to fetch reference questions: %v", err)
		return nil
	}
	return refs
}

func pivotHint(in GenerationInput) string {
	var b strings.Builder
	b.WriteString("Your previous suggestion repeated the last question word for word. Ask about a clearly different aspect")
	if len(in.RecentTopics) > 0 {
		b.WriteString(" and avoid these topics: ")
		b.WriteString(strings.Join(in.RecentTopics, ", "))
	}
	b.WriteString(".")
	return b.String()
}

// CleanQuestion strips directive metadata, labels and wrapping quotes from
// capability output so only the question text remains.
func CleanQuestion(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if hasAnyPrefix(lower, metadataPrefixes) {
			continue
		}
		for _, label := range labelPrefixes {
			if strings.HasPrefix(lower, label) {
				line = strings.TrimSpace(line[len(label):])
				break
			}
		}
		kept = append(kept, line)
	}

	question := strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
	return strings.Trim(question, "\"'`“”")
}

func sameQuestion(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
