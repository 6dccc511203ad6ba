package main

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"interviewer/config"
	"interviewer/logger"
	"interviewer/services/questionbank"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/spf13/cobra"
)

//go:embed questions.json
var defaultQuestions []byte

const upsertBatchSize = 50

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Fatalf("Question bank indexing failed: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:           "indexquestions",
		Short:         "Embed the interview question bank into Pinecone",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "question seed file, JSON or YAML (defaults to the built-in bank)")

	return cmd
}

func run(ctx context.Context, file string) error {
	logger.Info("Starting question bank indexing")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.PineconeAPIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	questions, err := loadQuestions(file)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	logger.Infof("Loaded %d questions", len(questions))

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.PineconeAPIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	if err := ensurePineconeIndex(ctx, pc, cfg.PineconeIndexName); err != nil {
		return fmt.Errorf("failed to ensure Pinecone index: %w", err)
	}

	embedder, err := questionbank.NewEmbedder(cfg.OpenAIAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	vectors, err := questionbank.BuildVectors(ctx, embedder, questions)
	if err != nil {
		return fmt.Errorf("failed to build vectors: %w", err)
	}

	if err := upsertVectors(ctx, pc, cfg.PineconeIndexName, vectors); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.Infof("Question bank indexing completed successfully: %d vectors in namespace %s", len(vectors), questionbank.Namespace)
	return nil
}

func loadQuestions(path string) ([]questionbank.Question, error) {
	if path == "" {
		return questionbank.ParseQuestions(defaultQuestions)
	}
	return questionbank.LoadQuestions(path)
}

func ensurePineconeIndex(ctx context.Context, pc *pinecone.Client, indexName string) error {
	indexes, err := pc.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == indexName {
			logger.Infof("Index %s already exists", indexName)
			return nil
		}
	}

	logger.Infof("Creating Pinecone index: %s", indexName)
	dimension := int32(1536) // text-embedding-ada-002
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "interviewer"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			logger.Infof("Index %s is ready", indexName)
			return nil
		}
		logger.Infof("Waiting for index %s to be ready...", indexName)
		time.Sleep(10 * time.Second)
	}
}

func upsertVectors(ctx context.Context, pc *pinecone.Client, indexName string, vectors []*pinecone.Vector) error {
	idxDesc, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: questionbank.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to create index connection: %w", err)
	}
	defer idxConn.Close()

	for i := 0; i < len(vectors); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(vectors))

		count, err := idxConn.UpsertVectors(ctx, vectors[i:end])
		if err != nil {
			return fmt.Errorf("failed to upsert vector batch: %w", err)
		}
		logger.Infof("Successfully upserted %d vectors (batch %d)", count, i/upsertBatchSize+1)
	}

	return nil
}
