package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Describe renders a tree as plain text for chat and terminal output.
func Describe(t Tree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", t.Name, t.ScientificName)
	fmt.Fprintf(&sb, "%s · %s · %s\n", t.Category, t.Environment, t.Purpose)
	fmt.Fprintf(&sb, "Height: %s | Spacing: %s | Growth: %s\n", t.MatureHeight, t.Spacing, t.GrowthRate)
	fmt.Fprintf(&sb, "Sun: %s | Water: %s\n", t.SunRequirement, t.WaterNeeds)

	months := make([]string, 0, len(t.PlantingMonths))
	for _, m := range t.PlantingMonths {
		months = append(months, time.Month(m).String()[:3])
	}
	fmt.Fprintf(&sb, "Plant in: %s\n", strings.Join(months, ", "))

	if t.Description != "" {
		sb.WriteString("\n" + t.Description + "\n")
	}
	for _, tip := range t.CareTips {
		sb.WriteString("• " + tip + "\n")
	}
	return sb.String()
}
