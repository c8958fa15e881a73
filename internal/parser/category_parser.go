package parser

import (
	"fmt"
	"strings"

	"github.com/balkashynov/bitelog/internal/models"
)

// ParseCategory normalizes a user-entered category name.
// Accepts formats like:
// - "eating", "Eating", "e" -> Eating
// - "not-eating", "not_eating", "noteating", "n" -> NotEating
// - "none", "unlabeled", "" -> Unlabeled
func ParseCategory(input string) (models.Category, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)

	switch s {
	case "", "none", "unlabeled", "unlabelled", "session", "u":
		return models.CategoryUnlabeled, nil
	case "eating", "eat", "e":
		return models.CategoryEating, nil
	case "noteating", "noeating", "n":
		return models.CategoryNotEating, nil
	}
	return models.CategoryUnlabeled, fmt.Errorf("invalid category %q. Use: eating, not-eating or none", input)
}

// NextCategory cycles Unlabeled -> Eating -> NotEating -> Unlabeled.
func NextCategory(c models.Category) models.Category {
	switch c {
	case models.CategoryUnlabeled:
		return models.CategoryEating
	case models.CategoryEating:
		return models.CategoryNotEating
	default:
		return models.CategoryUnlabeled
	}
}
