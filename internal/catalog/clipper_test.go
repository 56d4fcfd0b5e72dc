package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/llm"
	"treecare/internal/shared"
	"treecare/internal/storage"
)

type mockTextGenerator struct {
	response    string
	shouldError bool
	prompt      string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	if m.shouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 40, Model: "mock"},
	}, nil
}

type mockUsage struct{ metas []shared.AgentMeta }

func (m *mockUsage) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	m.metas = append(m.metas, meta)
	return nil
}

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Sugar Maple</h1>
				<div class="ads">Buy stuff!</div>
				<p>Acer saccharum is famous for syrup.</p>
				<footer>Copyright 2026</footer>
			</body>
		</html>`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFetchAndCleanHTML(t *testing.T) {
	ts := pageServer(t)
	c := NewClipper(nil, nil, nil, nil)

	text, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.NotContains(t, text, "alert('bad')")
	assert.NotContains(t, text, "Buy stuff!")
	assert.NotContains(t, text, "Copyright 2026")
	assert.Contains(t, text, "Sugar Maple Acer saccharum is famous for syrup.")
}

func TestImportURL_Success(t *testing.T) {
	ctx := context.Background()
	ts := pageServer(t)
	cat := New(storage.NewMemoryStore(), nil)
	gen := &mockTextGenerator{response: `{
		"name": "Sugar Maple",
		"scientific_name": "Acer saccharum",
		"category": "deciduous",
		"environment": "Rural",
		"purpose": "Shade",
		"growth_rate": "Slow",
		"soil_type": ["Loamy"],
		"planting_months": [4, 10, 14],
		"care_tips": ["Tap in late winter"]
	}`}
	usage := &mockUsage{}

	tree, err := NewClipper(cat, gen, usage, nil).ImportURL(ctx, ts.URL)
	require.NoError(t, err)

	assert.NotEmpty(t, tree.ID)
	assert.Equal(t, Deciduous, tree.Category)
	assert.Equal(t, Rural, tree.Environment)
	assert.Equal(t, []int{4, 10}, tree.PlantingMonths, "out-of-range months are dropped")
	assert.Contains(t, gen.prompt, "Acer saccharum is famous for syrup.")

	stored, err := cat.Get(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sugar Maple", stored.Name)

	require.Len(t, usage.metas, 1)
	assert.Equal(t, "catalog_clipper", usage.metas[0].AgentName)
	assert.Equal(t, 100, usage.metas[0].Usage.PromptTokens)
}

func TestImportURL_Failures(t *testing.T) {
	ctx := context.Background()
	ts := pageServer(t)

	t.Run("AIError", func(t *testing.T) {
		cat := New(storage.NewMemoryStore(), nil)
		_, err := NewClipper(cat, &mockTextGenerator{shouldError: true}, nil, nil).ImportURL(ctx, ts.URL)
		assert.ErrorContains(t, err, "ai extraction failed")
	})

	t.Run("BadJSON", func(t *testing.T) {
		cat := New(storage.NewMemoryStore(), nil)
		_, err := NewClipper(cat, &mockTextGenerator{response: "not json"}, nil, nil).ImportURL(ctx, ts.URL)
		assert.ErrorContains(t, err, "failed to parse AI response")
	})

	t.Run("MissingName", func(t *testing.T) {
		cat := New(storage.NewMemoryStore(), nil)
		_, err := NewClipper(cat, &mockTextGenerator{response: `{"name": ""}`}, nil, nil).ImportURL(ctx, ts.URL)
		assert.ErrorContains(t, err, "failed to save tree")
	})

	t.Run("HTTPError", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer down.Close()
		_, err := NewClipper(nil, &mockTextGenerator{}, nil, nil).ImportURL(ctx, down.URL)
		assert.ErrorContains(t, err, "status 404")
	})
}
