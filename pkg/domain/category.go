package domain

import "fmt"

// Category classifies a node at authoring time.
type Category string

const (
	// CategoryStory is a regular narrative beat.
	CategoryStory Category = "story"
	// CategorySkillCheck asks the reader a question with one correct answer.
	CategorySkillCheck Category = "skill_check"
	// CategoryError is the failure screen of a skill check; it offers a retry.
	CategoryError Category = "error"
	// CategoryHub is a major branching point.
	CategoryHub Category = "hub"
	// CategoryPathEntry opens one of the specialization paths.
	CategoryPathEntry Category = "path_entry"
	// CategoryGoldenPath marks a checkpoint of the rarest outcome chain.
	CategoryGoldenPath Category = "golden_path"
	// CategoryBridge is generated filler that connects sections.
	CategoryBridge Category = "bridge"
	// CategoryEnding is a terminal outcome.
	CategoryEnding Category = "ending"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryEnding,
	CategorySkillCheck,
	CategoryGoldenPath,
	CategoryPathEntry,
	CategoryHub,
	CategoryError,
	CategoryBridge,
	CategoryStory,
}

// Valid reports whether c is one of the known categories.
// The empty category is valid: it means "not classified".
func (c Category) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
