package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePostTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"Valid", "Hello", false},
		{"Blank", "   ", true},
		{"Empty", "", true},
		{"Exactly Max", strings.Repeat("a", MaxPostTitleLength), false},
		{"Too Long", strings.Repeat("a", MaxPostTitleLength+1), true},
		{"Multibyte Counted As Runes", strings.Repeat("é", MaxPostTitleLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePostTitle(tt.title)
			if tt.wantErr {
				var fe *FieldError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, "title", fe.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostContent(""))
	assert.Error(t, ValidatePostContent(strings.Repeat("x", MaxPostContentLength+1)))

	assert.NoError(t, ValidateCommentContent("nice work"))
	assert.Error(t, ValidateCommentContent("\n\t "))
	assert.Error(t, ValidateCommentContent(strings.Repeat("x", MaxCommentLength+1)))
}

func TestValidateCircleName(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCircleName("Synth Makers"))
	assert.Error(t, ValidateCircleName(" "))
	assert.Error(t, ValidateCircleName(strings.Repeat("n", MaxCircleNameLength+1)))
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	got, err := NormalizeTags([]string{" Ink ", "ink", "", "Watercolor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ink", "watercolor"}, got)

	got, err = NormalizeTags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = NormalizeTags([]string{strings.Repeat("t", MaxTagLength+1)})
	assert.Error(t, err)

	many := make([]string, MaxTags+1)
	for i := range many {
		many[i] = strings.Repeat("t", i+1)
	}
	_, err = NormalizeTags(many)
	assert.Error(t, err)
}
