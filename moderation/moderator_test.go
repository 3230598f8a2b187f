package moderation

import (
	chaterrors "chatroom/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestModerator_Censor
// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		masked   bool
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			masked:   true,
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			masked:   true,
		},
		{
			name: "Leet speak and internal punctuation",
			// B (index 9) . 4 . d . g . € r (index 20) -> 10 characters
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
			masked:   true,
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
			masked:   true,
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			masked:   true,
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
			masked:   true,
		},
		{
			name:     "Nothing to censor",
			input:    "The room is quiet",
			expected: "The room is quiet",
			masked:   false,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			masked:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, masked := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.masked, masked, "expected=%s", tt.expected)
		})
	}
}

func TestModerator_Empty_Dictionary_Is_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator(nil, replacementChar)
	req.ErrorIs(err, chaterrors.ErrEmptyWords)
}

func TestModerator_Embedded_Dictionary_Loads(t *testing.T) {
	req := require.New(t)

	mod, err := NewEmbeddedModerator(replacementChar)
	req.NoError(err)

	// The embedded list is non-empty, clean text must pass untouched.
	content, masked := mod.Censor("a perfectly pleasant sentence")
	req.Equal("a perfectly pleasant sentence", content)
	req.False(masked)
}
