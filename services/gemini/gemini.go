// Package gemini implements the core AI interfaces on the Google Gen AI SDK.
package gemini

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/plataforma-apa/apa/core"
)

// embedBatchSize is the max number of texts per embedding request.
const embedBatchSize = 100

var ErrEmptyResponse = errors.New("gemini: empty response")

// models is the part of *genai.Models in use.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Client struct {
	models         models
	model          string
	embeddingModel string
	embeddingDims  int32
}

var (
	_ core.TextGenerator = (*Client)(nil)
	_ core.Embedder      = (*Client)(nil)
)

func NewClient(ctx context.Context, conf core.AIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	return newClient(client.Models, conf), nil
}

func newClient(m models, conf core.AIConfig) *Client {
	return &Client{
		models:         m,
		model:          conf.Model,
		embeddingModel: conf.EmbeddingModel,
		embeddingDims:  int32(conf.EmbeddingDims),
	}
}

func textContent(text string) *genai.Content {
	return &genai.Content{Role: "user", Parts: []*genai.Part{{Text: text}}}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{textContent(prompt)}, nil)
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) Embed(ctx context.Context, texts []string, task core.EmbeddingTask) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, textContent(t))
		}
		conf := &genai.EmbedContentConfig{TaskType: string(task)}
		if c.embeddingDims > 0 {
			conf.OutputDimensionality = &c.embeddingDims
		}

		res, err := c.models.EmbedContent(ctx, c.embeddingModel, contents, conf)
		if err != nil {
			return nil, errors.Wrapf(err, "embedding texts %d-%d", start, end)
		}
		if len(res.Embeddings) != len(contents) {
			return nil, errors.Errorf("gemini: got %d embeddings for %d texts", len(res.Embeddings), len(contents))
		}
		for _, e := range res.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}
	return vectors, nil
}
