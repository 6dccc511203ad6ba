package questionbank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"interviewer/services/interview"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Question is one entry of a seed file.
type Question struct {
	ID         string `json:"id" yaml:"id"`
	Kind       string `json:"kind" yaml:"kind"`
	Topic      string `json:"topic" yaml:"topic"`
	Text       string `json:"text" yaml:"text"`
	Difficulty string `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

func (q Question) vectorID() string {
	return fmt.Sprintf("question_%s_%s", q.Kind, q.ID)
}

// embeddingText is what gets embedded; topics are queried against it.
func (q Question) embeddingText() string {
	return fmt.Sprintf("Topic: %s\n\nQuestion: %s", q.Topic, q.Text)
}

// LoadQuestions reads a JSON seed file, or YAML when the extension says so.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseQuestionsYAML(data)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes and validates a JSON seed file body.
func ParseQuestions(data []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}
	return validateQuestions(questions)
}

func ParseQuestionsYAML(data []byte) ([]Question, error) {
	var questions []Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}
	return validateQuestions(questions)
}

func validateQuestions(questions []Question) ([]Question, error) {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		kind, err := interview.ParseKind(q.Kind)
		if err != nil || kind == interview.KindFull {
			return nil, fmt.Errorf("question %d: invalid kind %q", i+1, q.Kind)
		}
		questions[i].Kind = string(kind)
		questions[i].Text = strings.TrimSpace(q.Text)

		if q.ID == "" || questions[i].Text == "" {
			return nil, fmt.Errorf("question %d: id and text are required", i+1)
		}
		if seen[questions[i].vectorID()] {
			return nil, fmt.Errorf("question %d: duplicate id %q", i+1, q.ID)
		}
		seen[questions[i].vectorID()] = true
	}

	return questions, nil
}

// BuildVectors embeds the questions in one call and attaches their metadata.
func BuildVectors(ctx context.Context, embedder embeddings.Embedder, questions []Question) ([]*pinecone.Vector, error) {
	if len(questions) == 0 {
		return nil, nil
	}

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.embeddingText()
	}

	values, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(values) != len(questions) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d questions", len(values), len(questions))
	}

	indexedAt := time.Now().Format(time.RFC3339)
	vectors := make([]*pinecone.Vector, 0, len(questions))
	for i, q := range questions {
		metadata, err := structpb.NewStruct(map[string]any{
			"kind":       q.Kind,
			"topic":      q.Topic,
			"text":       q.Text,
			"difficulty": q.Difficulty,
			"indexed_at": indexedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata struct for question %s: %w", q.ID, err)
		}

		vectors = append(vectors, &pinecone.Vector{
			Id:       q.vectorID(),
			Values:   &values[i],
			Metadata: metadata,
		})
	}

	return vectors, nil
}
