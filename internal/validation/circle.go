package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var circleSlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,24}$`)

var reservedCircleSlugs = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"settings": {},
	"circles":  {},
	"c":        {},
	"users":    {},
	"posts":    {},
	"comments": {},
	"creators": {},
	"health":   {},
	"metrics":  {},
	"new":      {},
}

// ValidateCircleSlug validates circle slug format and reserved names.
func ValidateCircleSlug(slug string) error {
	if !circleSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-24 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedCircleSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}

// ValidateCircleName checks the display name of a circle.
func ValidateCircleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxCircleNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxCircleNameLength)
	}
	return nil
}
