package questionbank

import (
	"context"
	"fmt"
	"strings"

	"interviewer/logger"
	"interviewer/services/interview"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

// Namespace holds every question bank vector inside the index.
const Namespace = "interview-questions"

const queryTopK = 10

// Searcher is the part of a Pinecone index connection the bank queries.
type Searcher interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
}

// Service looks up example questions similar to the topics under discussion.
type Service struct {
	index    Searcher
	embedder embeddings.Embedder
}

func NewService(ctx context.Context, apiKey, openaiAPIKey, indexName string) (*Service, error) {
	logger.Info("Initializing question bank service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	idxDesc, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	embedder, err := NewEmbedder(openaiAPIKey)
	if err != nil {
		return nil, err
	}

	logger.Infof("Question bank service initialized with index %s", indexName)
	return NewServiceWithIndex(idxConn, embedder), nil
}

func NewServiceWithIndex(index Searcher, embedder embeddings.Embedder) *Service {
	return &Service{index: index, embedder: embedder}
}

// NewEmbedder returns the OpenAI embedder used both for indexing and queries.
func NewEmbedder(openaiAPIKey string) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithToken(openaiAPIKey),
		openai.WithEmbeddingModel("text-embedding-ada-002"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// RelatedQuestions returns up to limit distinct bank questions of the given
// kind, closest to the topics first.
func (s *Service) RelatedQuestions(ctx context.Context, kind interview.Kind, topics []string, limit int) ([]string, error) {
	topics = lo.Compact(lo.Uniq(topics))
	if len(topics) == 0 || limit <= 0 {
		return []string{}, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, strings.Join(topics, ", "))
	if err != nil {
		return nil, fmt.Errorf("failed to embed topics: %w", err)
	}

	filter, err := structpb.NewStruct(map[string]any{
		"kind": map[string]any{"$eq": string(kind)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata filter: %w", err)
	}

	result, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            queryTopK,
		MetadataFilter:  filter,
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query question bank: %w", err)
	}

	var questions []string
	for _, match := range result.Matches {
		if match == nil || match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		metadata := match.Vector.Metadata.AsMap()
		if text, ok := metadata["text"].(string); ok && strings.TrimSpace(text) != "" {
			questions = append(questions, strings.TrimSpace(text))
		}
	}

	questions = lo.Uniq(questions)
	if len(questions) > limit {
		questions = questions[:limit]
	}

	logger.Debugf("Question bank returned %d %s questions for topics %v", len(questions), kind, topics)
	return questions, nil
}
