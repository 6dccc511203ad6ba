package questionbank

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"interviewer/services/interview"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeEmbedder struct {
	queries []string
	err     error
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeSearcher struct {
	requests []*pinecone.QueryByVectorValuesRequest
	texts    []string
	err      error
}

func (s *fakeSearcher) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	s.requests = append(s.requests, in)
	if s.err != nil {
		return nil, s.err
	}

	resp := &pinecone.QueryVectorsResponse{}
	for _, text := range s.texts {
		metadata, _ := structpb.NewStruct(map[string]any{"text": text})
		resp.Matches = append(resp.Matches, &pinecone.ScoredVector{Vector: &pinecone.Vector{Metadata: metadata}})
	}
	resp.Matches = append(resp.Matches, &pinecone.ScoredVector{Vector: &pinecone.Vector{}})
	return resp, nil
}

func TestRelatedQuestions(t *testing.T) {
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{texts: []string{"How do you size a connection pool?", "  ", "How do you size a connection pool?", "Explain write-ahead logging.", "What is MVCC?"}}
	bank := NewServiceWithIndex(searcher, embedder)

	questions, err := bank.RelatedQuestions(context.Background(), interview.KindTechnical, []string{"postgres", "", "postgres", "pooling"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"How do you size a connection pool?", "Explain write-ahead logging."}, questions)

	assert.Equal(t, []string{"postgres, pooling"}, embedder.queries)
	require.Len(t, searcher.requests, 1)
	req := searcher.requests[0]
	assert.True(t, req.IncludeMetadata)
	assert.Equal(t, "technical", req.MetadataFilter.AsMap()["kind"].(map[string]any)["$eq"])
}

func TestRelatedQuestionsNoTopics(t *testing.T) {
	searcher := &fakeSearcher{}
	bank := NewServiceWithIndex(searcher, &fakeEmbedder{})

	questions, err := bank.RelatedQuestions(context.Background(), interview.KindCoding, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.Empty(t, searcher.requests)
}

func TestRelatedQuestionsErrors(t *testing.T) {
	_, err := NewServiceWithIndex(&fakeSearcher{}, &fakeEmbedder{err: errors.New("quota")}).
		RelatedQuestions(context.Background(), interview.KindCoding, []string{"arrays"}, 3)
	assert.ErrorContains(t, err, "failed to embed topics")

	_, err = NewServiceWithIndex(&fakeSearcher{err: errors.New("unavailable")}, &fakeEmbedder{}).
		RelatedQuestions(context.Background(), interview.KindCoding, []string{"arrays"}, 3)
	assert.ErrorContains(t, err, "failed to query question bank")
}

func TestParseQuestions(t *testing.T) {
	questions, err := ParseQuestions([]byte(`[
		{"id": "1", "kind": "tech", "topic": "databases", "text": " What is an index? "},
		{"id": "1", "kind": "hr", "topic": "teamwork", "text": "Describe a conflict."}
	]`))
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "technical", questions[0].Kind)
	assert.Equal(t, "What is an index?", questions[0].Text)
	assert.Equal(t, "behavioral", questions[1].Kind)

	invalid := map[string]string{
		"not json":     `{`,
		"bad kind":     `[{"id": "1", "kind": "full", "text": "x"}]`,
		"missing text": `[{"id": "1", "kind": "coding", "text": " "}]`,
		"duplicate":    `[{"id": "1", "kind": "coding", "text": "a"}, {"id": "1", "kind": "code", "text": "b"}]`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestions([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadQuestionsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: "1"
  kind: hr
  topic: ownership
  text: Tell me about a project you owned end to end.
- id: "2"
  kind: coding
  topic: arrays
  text: Rotate an array by k positions.
  difficulty: easy
`), 0o644))

	questions, err := LoadQuestions(path)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "behavioral", questions[0].Kind)
	assert.Equal(t, "easy", questions[1].Difficulty)

	_, err = ParseQuestionsYAML([]byte("- id: 1\n  kind: full\n  text: x\n"))
	assert.Error(t, err)
}

func TestBuildVectors(t *testing.T) {
	questions := []Question{
		{ID: "7", Kind: "coding", Topic: "strings", Text: "Reverse the words in a sentence."},
	}

	vectors, err := BuildVectors(context.Background(), &fakeEmbedder{}, questions)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, "question_coding_7", vectors[0].Id)
	require.NotNil(t, vectors[0].Values)
	assert.Len(t, *vectors[0].Values, 2)

	metadata := vectors[0].Metadata.AsMap()
	assert.Equal(t, "coding", metadata["kind"])
	assert.Equal(t, "Reverse the words in a sentence.", metadata["text"])

	_, err = BuildVectors(context.Background(), &fakeEmbedder{err: errors.New("down")}, questions)
	assert.Error(t, err)
}
