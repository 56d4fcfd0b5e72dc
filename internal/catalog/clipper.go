package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"treecare/internal/llm"
	"treecare/internal/shared"
)

// maxPageChars bounds the page text sent to the model.
const maxPageChars = 12000

// UsageRecorder receives the token usage of each extraction.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Clipper imports trees from web pages.
type Clipper struct {
	catalog    *Catalog
	textGen    llm.TextGenerator
	usage      UsageRecorder
	httpClient *http.Client
	log        *zap.Logger
}

// ExtractedTree is the JSON shape the model is asked to fill.
type ExtractedTree struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientific_name"`
	Category       string   `json:"category"`
	Environment    string   `json:"environment"`
	Purpose        string   `json:"purpose"`
	GrowthRate     string   `json:"growth_rate"`
	MatureHeight   string   `json:"mature_height"`
	Spacing        string   `json:"spacing"`
	SoilType       []string `json:"soil_type"`
	SunRequirement string   `json:"sun_requirement"`
	WaterNeeds     string   `json:"water_needs"`
	PlantingMonths []int    `json:"planting_months"`
	Description    string   `json:"description"`
	CareTips       []string `json:"care_tips"`
}

// NewClipper creates a new Clipper. usage may be nil.
func NewClipper(catalog *Catalog, textGen llm.TextGenerator, usage UsageRecorder, log *zap.Logger) *Clipper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clipper{
		catalog:    catalog,
		textGen:    textGen,
		usage:      usage,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// ImportURL fetches url, extracts a tree with the model and adds it to the catalog.
func (c *Clipper) ImportURL(ctx context.Context, url string) (Tree, error) {
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return Tree{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are an arborist cataloguing trees. Extract the tree described in the following page text.
Return the result strictly as a JSON object with this structure:
{
  "name": "Common name",
  "scientific_name": "Genus species",
  "category": "one of: %s",
  "environment": "one of: %s",
  "purpose": "one of: Shade, Privacy, Windbreak, Wildlife, Food, Beauty, Erosion Control",
  "growth_rate": "Slow | Moderate | Fast",
  "mature_height": "e.g. 40-60 feet",
  "spacing": "e.g. 20-30 feet",
  "soil_type": ["Clay", "Sandy", "Loamy", "Rocky", "Acidic", "Alkaline"],
  "sun_requirement": "Full Sun | Partial Sun | Partial Shade | Full Shade",
  "water_needs": "Low | Moderate | High",
  "planting_months": [3, 4, 10],
  "description": "Two sentences.",
  "care_tips": ["tip 1", "tip 2"]
}

Page text:
%s
`, shared.JoinEnum(Categories), shared.JoinEnum(Environments), content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Tree{}, fmt.Errorf("ai extraction failed: %w", err)
	}
	c.recordUsage(ctx, resp.Usage, time.Since(start))

	var extracted ExtractedTree
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return Tree{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}

	tree, err := c.catalog.Add(ctx, extracted.toTree())
	if err != nil {
		return Tree{}, fmt.Errorf("failed to save tree: %w", err)
	}
	c.log.Info("tree imported", zap.String("url", url), zap.String("tree_id", tree.ID), zap.String("name", tree.Name))
	return tree, nil
}

func (c *Clipper) recordUsage(ctx context.Context, usage shared.TokenUsage, latency time.Duration) {
	if c.usage == nil {
		return
	}
	meta := shared.AgentMeta{AgentName: shared.AgentClipper, Usage: usage, Latency: latency}
	if err := c.usage.RecordMeta(ctx, meta); err != nil {
		c.log.Warn("failed to record llm usage", zap.Error(err))
	}
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, nil
}

func (e ExtractedTree) toTree() Tree {
	category, _ := ParseCategory(e.Category)
	env, _ := ParseEnvironment(e.Environment)

	t := Tree{
		Name:           strings.TrimSpace(e.Name),
		ScientificName: e.ScientificName,
		Category:       category,
		Environment:    env,
		Purpose:        Purpose(e.Purpose),
		GrowthRate:     GrowthRate(e.GrowthRate),
		MatureHeight:   e.MatureHeight,
		Spacing:        e.Spacing,
		SunRequirement: SunRequirement(e.SunRequirement),
		WaterNeeds:     WaterNeeds(e.WaterNeeds),
		Description:    e.Description,
		CareTips:       e.CareTips,
		SoilType:       []SoilType{},
		PlantingMonths: []int{},
	}
	for _, s := range e.SoilType {
		t.SoilType = append(t.SoilType, SoilType(s))
	}
	for _, m := range e.PlantingMonths {
		if m >= 1 && m <= 12 {
			t.PlantingMonths = append(t.PlantingMonths, m)
		}
	}
	return t
}
