package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/topicbot/internal/catalogue"
)

func TestParseTests(t *testing.T) {
	input := strings.Join([]string{
		"# class|topic|label|url",
		"",
		"5|14|basic|https://forms.example.org/b",
		"5|014| Повышенная |forms.example.org/a",
		"5|14|https://forms.example.org/t",
		"6|1|t.me/quizbot",
		"x|1|https://example.org",
		"5|2|ftp://example.org/x",
		"5|3",
		"5|0|https://example.org/zero",
		"7|2|Своя метка|https://example.org/q|extra",
	}, "\r\n")

	got, err := ParseTests(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	want := map[string][]catalogue.TestLink{
		"5|14": {
			{Label: "🟢 Базовая сложность", URL: "https://forms.example.org/b"},
			{Label: "🔴 Повышенная сложность", URL: "https://forms.example.org/a"},
			{Label: "✅ Пройти тест", URL: "https://forms.example.org/t"},
		},
		"6|1": {{Label: "✅ Пройти тест", URL: "https://t.me/quizbot"}},
		"7|2": {{Label: "Своя метка", URL: "https://example.org/q"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tests mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSources(t *testing.T) {
	input := `5|7|Учебник|https://example.org/book
5|7|Видео|youtube.com/watch?v=1
5|7|https://example.org/short
5|x|Bad|https://example.org
`
	got, err := ParseSources(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, map[string][]catalogue.SourceLink{
		"5|7": {
			{Title: "Учебник", URL: "https://example.org/book"},
			{Title: "Видео", URL: "https://youtube.com/watch?v=1"},
		},
	}, got)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  https://a.example.org/x ", "https://a.example.org/x"},
		{"HTTP://a.example.org", "http://a.example.org"},
		{"HTTPS://forms.example.org/Форма", "https://forms.example.org/Форма"},
		{"t.me/channel", "https://t.me/channel"},
		{"telegram.me/channel", "https://telegram.me/channel"},
		{"example.org", "https://example.org"},
		{"docs.example.org/path?q=1", "https://docs.example.org/path?q=1"},
		{"localhost/x", "localhost/x"},
		{"mailto:someone@example.org", "mailto:someone@example.org"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeURL(tt.in), tt.in)
	}
}

func TestNormTestLabel(t *testing.T) {
	tests := map[string]string{
		"basic":       "🟢 Базовая сложность",
		"B":           "🟢 Базовая сложность",
		"Базовая":     "🟢 Базовая сложность",
		"hard":        "🔴 Повышенная сложность",
		"углубленная": "🔴 Повышенная сложность",
		"Quiz":        "✅ Пройти тест",
		"тест":        "✅ Пройти тест",
		"":            "✅ Пройти тест",
		" Итоговый ":  "Итоговый",
	}
	for in, want := range tests {
		assert.Equal(t, want, normTestLabel(in), in)
	}
}
