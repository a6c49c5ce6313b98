package core

import "context"

// EmbeddingTask tells the embedding model how the vectors will be used.
type EmbeddingTask string

const (
	EmbeddingTaskDocument EmbeddingTask = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskQuery    EmbeddingTask = "RETRIEVAL_QUERY"
)

type (
	// TextGenerator produces a text completion for a prompt.
	TextGenerator interface {
		Generate(ctx context.Context, prompt string) (string, error)
	}

	// Embedder turns texts into embedding vectors; the result has one vector per text, in order.
	Embedder interface {
		Embed(ctx context.Context, texts []string, task EmbeddingTask) ([][]float32, error)
	}
)
