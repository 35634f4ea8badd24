package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s Splitter) []Candidate {
	var out []Candidate
	for s.Scan() {
		out = append(out, s.Candidate())
	}
	return out
}

func texts(cs []Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Text)
	}
	return out
}

func TestScanSplitter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "bracketed back-to-back objects",
			in:   `[{"a":1}{"b":2}]`,
			want: []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name: "newline separated without bracket",
			in:   "{\"a\":1}\n{\"b\":2}\n",
			want: []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name: "commas and whitespace between objects",
			in:   "[ {\"a\":1} ,\n\t{\"b\":2} ]\n",
			want: []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name: "braces inside strings",
			in:   `[{"name":"x}{","note":"say \"{\""}]`,
			want: []string{`{"name":"x}{","note":"say \"{\""}`},
		},
		{
			name: "nested objects",
			in:   `[{"a":{"b":{"c":1}}}{"d":2}]`,
			want: []string{`{"a":{"b":{"c":1}}}`, `{"d":2}`},
		},
		{
			name: "garbage between objects",
			in:   `[{"a":1} oops {"b":2}]`,
			want: []string{`{"a":1}`, `oops`, `{"b":2}`},
		},
		{
			name: "truncated record followed by a new line",
			in:   "[{\"name\":\"a\",\"elap\n{\"b\":2}]",
			want: []string{`{"name":"a","elap`, `{"b":2}`},
		},
		{
			name: "nested object on its own line",
			in:   "[{\"name\":\"a\",\"elapsed\":1,\"chain\":\"x\",\"meta\":\n{\"k\":1}}]",
			want: []string{"{\"name\":\"a\",\"elapsed\":1,\"chain\":\"x\",\"meta\":\n{\"k\":1}}"},
		},
		{
			name: "nested objects in an array on new lines",
			in:   "[{\"xs\":[\n{\"k\":1},\n{\"k\":2}]}]",
			want: []string{"{\"xs\":[\n{\"k\":1},\n{\"k\":2}]}"},
		},
		{
			name: "record cut off after a value",
			in:   "[{\"name\":\"a\",\"elapsed\":1\n{\"b\":2}]",
			want: []string{`{"name":"a","elapsed":1`, `{"b":2}`},
		},
		{
			name: "unterminated object at end",
			in:   `[{"a":1}{"b":`,
			want: []string{`{"a":1}`, `{"b":`},
		},
		{
			name: "empty stream",
			in:   "[]",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(NewScanSplitter(tt.in, 1))
			assert.Equal(t, tt.want, texts(got))
			for i, c := range got {
				assert.Equal(t, i, c.Index)
			}
		})
	}
}

func TestScanSplitterSkipsMultibyteLeadingRune(t *testing.T) {
	got := collect(NewScanSplitter(`«{"a":1}`, 1))
	assert.Equal(t, []string{`{"a":1}`}, texts(got))
}

func TestScanSplitterIsNotRestartable(t *testing.T) {
	s := NewScanSplitter(`[{"a":1}]`, 1)
	require.True(t, s.Scan())
	require.False(t, s.Scan())
	require.False(t, s.Scan())
}

func TestDelimitedSplitterNewlineDelimiter(t *testing.T) {
	in := "{\"name\":\"a\",\"elapsed\":10,\"chain\":\"x\"}\n{\"name\":\"a\",\"elapsed\":20,\"chain\":\"y\"}\n]"
	s := NewDelimitedSplitter(in, "}\n{", 1)

	require.True(t, s.Scan())
	assert.Equal(t, Candidate{Index: 0, Text: `{"name":"a","elapsed":10,"chain":"x"}`}, s.Candidate())
	assert.Equal(t, "\"name\":\"a\",\"elapsed\":10,\"chain\":\"x\"}\n{", s.Entry())

	require.True(t, s.Scan())
	assert.Equal(t, Candidate{Index: 1, Text: `{"name":"a","elapsed":20,"chain":"y"}`}, s.Candidate())

	assert.False(t, s.Scan())
}

func TestDelimitedSplitterTwoByteDelimiter(t *testing.T) {
	s := NewDelimitedSplitter(`{"a":1}{"b":2}]`, "}{", 1)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, texts(collect(s)))
}

func TestDelimitedSplitterShortPiece(t *testing.T) {
	s := NewDelimitedSplitter("[x", "}\n{", 1)
	assert.Equal(t, []string{`{}`}, texts(collect(s)))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", Snippet("abc", 5))
	assert.Equal(t, "ab...", Snippet("abcdef", 2))
	assert.Equal(t, "...", Snippet("abc", 0))
}
