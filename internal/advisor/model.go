// Package advisor runs tree-care chat sessions against a language model.
package advisor

import (
	"errors"
	"time"

	"treecare/internal/catalog"
	"treecare/internal/shared"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)

const newChatTitle = "New Chat"

type ChatCategory string

const (
	General         ChatCategory = "General"
	Planting        ChatCategory = "Planting"
	Care            ChatCategory = "Care"
	Troubleshooting ChatCategory = "Troubleshooting"
	Species         ChatCategory = "Species Selection"
	Diseases        ChatCategory = "Diseases & Pests"
	Pruning         ChatCategory = "Pruning"
	Seasonal        ChatCategory = "Seasonal Care"
)

var ChatCategories = []ChatCategory{General, Planting, Care, Troubleshooting, Species, Diseases, Pruning, Seasonal}

type AdviceCategory string

const (
	PlantingTips   AdviceCategory = "Planting Tips"
	CareTips       AdviceCategory = "Care Tips"
	ProblemSolving AdviceCategory = "Problem Solving"
	SpeciesInfo    AdviceCategory = "Species Information"
	SeasonalCare   AdviceCategory = "Seasonal Care"
	DiseaseControl AdviceCategory = "Disease Control"
	PruningAdvice  AdviceCategory = "Pruning Advice"
	SoilManagement AdviceCategory = "Soil Management"
)

var AdviceCategories = []AdviceCategory{
	PlantingTips, CareTips, ProblemSolving, SpeciesInfo,
	SeasonalCare, DiseaseControl, PruningAdvice, SoilManagement,
}

func ParseAdviceCategory(s string) (AdviceCategory, error) {
	return shared.ParseEnum(s, AdviceCategories, "advice category")
}

type Experience string

const (
	Beginner     Experience = "Beginner"
	Intermediate Experience = "Intermediate"
	Advanced     Experience = "Advanced"
	Expert       Experience = "Expert"
)

var Experiences = []Experience{Beginner, Intermediate, Advanced, Expert}

func ParseExperience(s string) (Experience, error) {
	return shared.ParseEnum(s, Experiences, "experience level")
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatSession struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Messages        []ChatMessage `json:"messages"`
	CreatedDate     time.Time     `json:"createdDate"`
	LastMessageDate time.Time     `json:"lastMessageDate"`
	IsFavorite      bool          `json:"isFavorite"`
	Category        ChatCategory  `json:"category"`
}

type Advice struct {
	ID            string         `json:"id"`
	Question      string         `json:"question"`
	Answer        string         `json:"answer"`
	Category      AdviceCategory `json:"category"`
	RelevantTrees []string       `json:"relevantTrees"`
	ActionItems   []string       `json:"actionItems"`
	Resources     []string       `json:"resources"`
	Timestamp     time.Time      `json:"timestamp"`
	Rating        *int           `json:"rating,omitempty"`
	IsSaved       bool           `json:"isSaved"`
}

// Context enriches a question. Every field is optional.
type Context struct {
	Tree       *catalog.Tree
	Location   string
	Experience Experience
}
