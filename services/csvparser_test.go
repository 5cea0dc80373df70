package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVQuotedComma(t *testing.T) {
	records := ParseCSV("X,Y,Z\nA,\"B,C\",D\n")
	require.Len(t, records, 1)

	r := records[0]
	for header, want := range map[string]string{"X": "A", "Y": "B,C", "Z": "D"} {
		got, ok := r.Get(header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}
}

func TestParseCSVStripsBOMAndZeroWidth(t *testing.T) {
	records := ParseCSV("\uFEFF建案名稱,行政\u200B區\r\n測試\u200D建案,大安區\r\n")
	require.Len(t, records, 1)

	assert.Equal(t, []string{"建案名稱", "行政區"}, records[0].Headers())
	name, _ := records[0].Get("建案名稱")
	assert.Equal(t, "測試建案", name)
}

func TestParseCSVHeaderQuotesAndWhitespace(t *testing.T) {
	records := ParseCSV(" \"a\" , \"b\"\n1,2")
	require.Len(t, records, 1)
	assert.Equal(t, []string{"a", "b"}, records[0].Headers())
}

func TestParseCSVShortLinePadsMissing(t *testing.T) {
	records := ParseCSV("a,b,c\n1\n")
	require.Len(t, records, 1)

	b, ok := records[0].Get("b")
	assert.True(t, ok)
	assert.Equal(t, "", b)
	assert.Equal(t, 3, records[0].Len())
}

func TestParseCSVSkipsBlankLines(t *testing.T) {
	records := ParseCSV("a,b\n\n1,2\n   \n3,4\n")
	require.Len(t, records, 2)
	v, _ := records[1].Get("a")
	assert.Equal(t, "3", v)
}

func TestParseCSVTooFewLines(t *testing.T) {
	for _, in := range []string{"", "a,b,c", "\uFEFF"} {
		assert.Empty(t, ParseCSV(in), "%q", in)
	}
}

func TestParseCSVHeaderOnlyTrailingNewline(t *testing.T) {
	assert.Empty(t, ParseCSV("a,b\n"))
}

func TestParseCSVDuplicateHeaderFirstWins(t *testing.T) {
	records := ParseCSV("a,a\n1,2\n")
	require.Len(t, records, 1)

	v, _ := records[0].Get("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, records[0].Len())
}

func TestParseCSVQuotesConsumedByToggle(t *testing.T) {
	records := ParseCSV("x\n\"He said \"\"hi\"\"\"\n")
	require.Len(t, records, 1)
	v, _ := records[0].Get("x")
	assert.Equal(t, "He said hi", v)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"He said ""hi"""`, `He said "hi"`},
		{`"plain"`, "plain"},
		{`""`, ""},
		{`"`, ""},
		{`no quotes`, "no quotes"},
		{`"half`, `"half`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unquote(tt.in), "unquote(%q)", tt.in)
	}
}

func TestSplitLine(t *testing.T) {
	assert.Equal(t, []string{"A", "B,C", "D"}, splitLine(`A,"B,C",D`))
	assert.Equal(t, []string{"", "", ""}, splitLine(",,"))
	assert.Equal(t, []string{"only"}, splitLine("only"))
}
