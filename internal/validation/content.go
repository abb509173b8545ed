package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field limits shared by the data service and the client.
const (
	MaxCircleNameLength  = 120
	MaxPostTitleLength   = 300
	MaxPostContentLength = 50000
	MaxCommentLength     = 10000
	MaxTags              = 10
	MaxTagLength         = 32
)

// FieldError names the input field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidatePostTitle requires a non-blank title within the length limit.
func ValidatePostTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fieldErr("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxPostTitleLength {
		return fieldErr("title", "title must be at most %d characters", MaxPostTitleLength)
	}
	return nil
}

// ValidatePostContent allows empty content up to the length limit.
func ValidatePostContent(content string) error {
	if utf8.RuneCountInString(content) > MaxPostContentLength {
		return fieldErr("content", "content must be at most %d characters", MaxPostContentLength)
	}
	return nil
}

// ValidateCommentContent requires non-blank content within the length limit.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fieldErr("content", "comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fieldErr("content", "comment must be at most %d characters", MaxCommentLength)
	}
	return nil
}

// NormalizeTags lower-cases, trims and de-duplicates tags, keeping first-seen
// order. Blank tags are dropped.
func NormalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, fieldErr("tags", "tag %q is longer than %d characters", tag, MaxTagLength)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fieldErr("tags", "at most %d tags are allowed", MaxTags)
	}
	return out, nil
}
