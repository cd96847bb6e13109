package observe

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

var corpus = []string{
	"",
	"   ",
	"short answer",
	"The quick brown fox jumps over the lazy dog. It was not amused! Was it? Nobody knows.",
	"line one\nline two\n\n\n\nline three after blanks\n",
	"Results for golang 🚀🔥\r\n\r\n  Title:\tGo 1.24 released  \n URL: https://go.dev/blog/go1.24\n",
	strings.Repeat("Subscribe to our newsletter for the latest updates and offers today.\n", 20),
	"Ｆｕｌｌｗｉｄｔｈ ｔｅｘｔ and ligatures ﬁne ﬂow​ here",
	strings.Repeat("word ", 500),
	strings.Repeat("x", 3000),
	"e\U0001F600\u0301 combining after emoji",
	"Para one sentence. Para one again.\n\nPara two is here. And more text follows in para two.\n\nPara three.",
	"\x00\x01binary\x7fjunk\xff\xfe and text",
	strings.Repeat("漢字のテキストです。", 80),
}

func generated(seed int64, n int) []string {
	rng := rand.New(rand.NewSource(seed))
	pieces := []string{
		"alpha", "beta", " ", "\n", "\n\n", ".", "!", "?", "\t", "🙂", "ﬁ", "é", "é",
		"Same boilerplate footer line with enough tokens to compare here",
	}
	out := make([]string, n)
	for i := range out {
		var sb strings.Builder
		for j := rng.Intn(400); j > 0; j-- {
			sb.WriteString(pieces[rng.Intn(len(pieces))])
		}
		out[i] = sb.String()
	}
	return out
}

func inputs() []string {
	return append(append([]string{}, corpus...), generated(7, 60)...)
}

var bounds = []int{-1, 0, 1, 5, 11, 12, 13, 20, 50, 100, 257, 1000, 5000}

func TestFilter_Bounded(t *testing.T) {
	for _, x := range inputs() {
		for _, n := range bounds {
			got := Filter(x, n)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), max(n, 0), "n=%d input=%q", n, x)
			assert.True(t, utf8.ValidString(got))
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	for _, x := range inputs() {
		for _, n := range bounds {
			once := Filter(x, n)
			assert.Equal(t, once, Filter(once, n), "n=%d input=%q", n, x)
		}
	}
}

func TestFilter_NonPositiveLength(t *testing.T) {
	assert.Equal(t, "", Filter("anything", 0))
	assert.Equal(t, "", Filter("anything", -5))
}

func TestFilter_Cleaning(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "untouched",
			raw:  "plain text",
			want: "plain text",
		},
		{
			name: "emoji stripped and spaces collapsed",
			raw:  "Go   1.24 🚀  is\tout 🎉",
			want: "Go 1.24 is out",
		},
		{
			name: "crlf and blank lines squeezed",
			raw:  "a\r\n\r\n\r\n\r\nb\r\n",
			want: "a\n\nb",
		},
		{
			name: "nfkc",
			raw:  "ﬁle ｆｕｌｌ",
			want: "file full",
		},
		{
			name: "zero width removed",
			raw:  "zero\u200bwidth",
			want: "zerowidth",
		},
		{
			name: "identical consecutive lines deduplicated",
			raw:  "Next page\nnext page\nNEXT PAGE\ncontent",
			want: "Next page\ncontent",
		},
		{
			name: "duplicates across a blank line",
			raw:  "Cookie notice\n\nCookie notice\n\nbody",
			want: "Cookie notice\n\nbody",
		},
		{
			name: "near duplicate boilerplate",
			raw: "Copyright 2024 Example Corp all rights reserved terms privacy contact\n" +
				"Copyright 2024 Example Corp all rights reserved terms privacy contact us\n" +
				"real content",
			want: "Copyright 2024 Example Corp all rights reserved terms privacy contact\nreal content",
		},
		{
			name: "short distinct lines kept",
			raw:  "- item 1\n- item 2\n- item 3",
			want: "- item 1\n- item 2\n- item 3",
		},
		{
			name: "non consecutive duplicates kept",
			raw:  "header\nbody\nheader",
			want: "header\nbody\nheader",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.raw, 1000))
		})
	}
}

func TestFilter_TruncatesAtBoundaries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		n    int
		want string
	}{
		{
			name: "paragraph preferred",
			raw:  "First paragraph here.\n\nSecond paragraph is long and goes past the limit.",
			n:    40,
			want: "First paragraph here." + TruncationMarker,
		},
		{
			name: "line preferred over sentence",
			raw:  "Title line of results\nBody. More body text that is long enough to cut.",
			n:    40,
			want: "Title line of results" + TruncationMarker,
		},
		{
			name: "sentence preferred over word",
			raw:  "One sentence ends here. Then another one keeps going well past the limit.",
			n:    45,
			want: "One sentence ends here." + TruncationMarker,
		},
		{
			name: "word boundary",
			raw:  "alpha beta gamma delta epsilon zeta eta theta",
			n:    30,
			want: "alpha beta gamma" + TruncationMarker,
		},
		{
			name: "hard cut without boundaries",
			raw:  strings.Repeat("a", 50),
			n:    20,
			want: strings.Repeat("a", 8) + TruncationMarker,
		},
		{
			name: "early boundary rejected",
			raw:  "ab\n" + strings.Repeat("c", 60),
			n:    30,
			want: "ab\n" + strings.Repeat("c", 15) + TruncationMarker,
		},
		{
			name: "budget smaller than marker",
			raw:  "abcdefghijklmnopqrstuvwxyz",
			n:    5,
			want: "abcde",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.raw, tt.n)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.n)
		})
	}
}

func TestFilterer(t *testing.T) {
	f := Filterer{MaxLength: 10}
	assert.Equal(t, Filter("some long output text", 10), f.Filter("some long output text"))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "one two three", TruncateWords("one  two\nthree", 5))
	assert.Equal(t, "one two ...", TruncateWords("one two three", 2))
	assert.Equal(t, "one two three", TruncateWords(" one two three ", 0))
}
