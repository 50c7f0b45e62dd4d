package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentity(t *testing.T) {
	for _, s := range []string{"Attack on Titan", "one", "Steins;Gate 0"} {
		assert.Equal(t, 1.0, Score(s, s), "identical title %q must score 1.0", s)
	}
}

func TestScoreBounds(t *testing.T) {
	pairs := [][2]string{
		{"Attack on Titan", "Shingeki no Kyojin"},
		{"Naruto", "Bleach"},
		{"", "anything"},
		{"x", "completely different words here"},
		{"Fullmetal Alchemist: Brotherhood", "Fullmetal Alchemist Brotherhood"},
	}
	for _, p := range pairs {
		got := Score(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestScoreTokenOrderInsensitive(t *testing.T) {
	// token-sort ratio should make reordered titles a perfect match
	assert.Equal(t, 1.0, Score("Titan on Attack", "Attack on Titan"))
}

func TestScorePunctuationAndCase(t *testing.T) {
	assert.Equal(t, 1.0, Score("Fullmetal Alchemist: Brotherhood!", "fullmetal alchemist brotherhood"))
}

func TestScoreZeroPadding(t *testing.T) {
	assert.Equal(t, 1.0, Score("My Hero Academia Season 04", "My Hero Academia Season 4"))
}

func TestScoreEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, Score("", ""))
	assert.Equal(t, 0.0, Score("Naruto", ""))
	assert.Equal(t, 0.0, Score("", "Naruto"))
}

func TestScoreDisjointIsLow(t *testing.T) {
	assert.Less(t, Score("Cowboy Bebop", "Violet Evergarden"), 0.5)
}
