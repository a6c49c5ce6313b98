package gemini

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/plataforma-apa/apa/core"
)

type fakeModels struct {
	text       string
	err        error
	embedCalls []int
	lastConfig *genai.EmbedContentConfig
	prompts    []string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}}}},
	}, nil
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.embedCalls = append(f.embedCalls, len(contents))
	f.lastConfig = config
	res := &genai.EmbedContentResponse{}
	for i := range contents {
		res.Embeddings = append(res.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(i), 1}})
	}
	return res, nil
}

var testConf = core.AIConfig{Model: "gemini-2.0-flash", EmbeddingModel: "text-embedding-004", EmbeddingDims: 768}

func TestClient_Generate(t *testing.T) {
	fake := &fakeModels{text: "  Hola  "}
	client := newClient(fake, testConf)

	out, err := client.Generate(context.Background(), "decí hola")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
	assert.Equal(t, []string{"decí hola"}, fake.prompts)
}

func TestClient_Generate_Empty(t *testing.T) {
	client := newClient(&fakeModels{}, testConf)

	_, err := client.Generate(context.Background(), "x")
	assert.Equal(t, ErrEmptyResponse, err)
}

func TestClient_Generate_Error(t *testing.T) {
	client := newClient(&fakeModels{err: errors.New("quota")}, testConf)

	_, err := client.Generate(context.Background(), "x")
	assert.EqualError(t, err, "generating content: quota")
}

func TestClient_Embed_Batches(t *testing.T) {
	fake := &fakeModels{}
	client := newClient(fake, testConf)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "t"
	}
	vectors, err := client.Embed(context.Background(), texts, core.EmbeddingTaskDocument)
	require.NoError(t, err)
	assert.Len(t, vectors, 250)
	assert.Equal(t, []int{100, 100, 50}, fake.embedCalls)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", fake.lastConfig.TaskType)
	require.NotNil(t, fake.lastConfig.OutputDimensionality)
	assert.Equal(t, int32(768), *fake.lastConfig.OutputDimensionality)
}

func TestClient_Embed_None(t *testing.T) {
	fake := &fakeModels{}
	client := newClient(fake, testConf)

	vectors, err := client.Embed(context.Background(), nil, core.EmbeddingTaskQuery)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, fake.embedCalls)
}
