package inference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Fever, COUGH", "fever, cough"},
		{"strips digits and punctuation", "fever (102F)!, cough.", "fever f, cough"},
		{"keeps whitespace", "runny\tnose,\nsore throat", "runny\tnose,\nsore throat"},
		{"drops full-width letters", "ｆｅｖｅｒ", ""},
		{"drops full-width comma", "fever，cough", "fevercough"},
		{"drops ligatures", "ﬁ, ﬀ", ", "},
		{"drops accented letters", "fièvre", "fivre"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	require.Equal(t, []string{"fever", "cough", "sore throat"}, Tokenize(" Fever , cough,, sore throat ,fever"))
	require.Empty(t, Tokenize(" , ,, "))
	require.Empty(t, Tokenize("123 !!!"))
	require.Empty(t, Tokenize("ｆｅｖｅｒ，ｃｏｕｇｈ"))
	require.Empty(t, Tokenize("ﬁ, ﬀ"))
}

func TestVectorize_ExactTokens(t *testing.T) {
	vocab := Vocabulary{"chills", "cough", "fatigue", "fever", "headache", "nausea"}

	vec := Vectorize("fever, cough, headache", vocab)

	require.Len(t, vec, len(vocab))
	require.Equal(t, FeatureVector{0, 1, 0, 1, 1, 0}, vec)
}

func TestVectorize_FullWidthInputMatchesNothing(t *testing.T) {
	vocab := Vocabulary{"cough", "fever"}

	require.Equal(t, FeatureVector{0, 0}, Vectorize("ｆｅｖｅｒ，ｃｏｕｇｈ", vocab))
}

func TestVectorize_UnknownTokensYieldZeroVector(t *testing.T) {
	vocab := Vocabulary{"cough", "fever"}

	vec := Vectorize("purple toes, glowing ears", vocab)

	require.Equal(t, FeatureVector{0, 0}, vec)
}

func TestVectorize_NoPartialMatches(t *testing.T) {
	vocab := Vocabulary{"fever", "high fever"}

	vec := Vectorize("very high fever", vocab)

	require.Equal(t, FeatureVector{0, 0}, vec)
}

func TestVectorize_LengthIsStable(t *testing.T) {
	vocab := Vocabulary{"a", "b", "c"}
	for _, in := range []string{"", "a", "a, b, c, d, e", "!!!"} {
		require.Len(t, Vectorize(in, vocab), 3, "input %q", in)
	}
}
