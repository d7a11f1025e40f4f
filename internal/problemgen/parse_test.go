package problemgen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords_FencedArray(t *testing.T) {
	text := "Here you go:\n```json\n[{\"name\": \"Hàm số\"}, {\"name\": \"Logarit\"}]\n```"

	// The prose prefix is not stripped, so this one does not parse.
	assert.Empty(t, ParseRecords(text))

	recs := ParseRecords("```json\n[{\"name\": \"Hàm số\"}, {\"name\": \"Logarit\"}]\n```")
	require.Len(t, recs, 2)

	var first struct{ Name string }
	require.NoError(t, json.Unmarshal(recs[0], &first))
	assert.Equal(t, "Hàm số", first.Name)
}

func TestParseRecords_BareFence(t *testing.T) {
	recs := ParseRecords("```\n[{\"a\": 1}]\n```")
	assert.Len(t, recs, 1)
}

func TestParseRecords_RepairsLatexBackslashes(t *testing.T) {
	text := `[{"content": "Tính $\sqrt{x}$ khi $x \in \mathbb{R}$"}]`

	recs := ParseRecords(text)
	require.Len(t, recs, 1)

	var q struct{ Content string }
	require.NoError(t, json.Unmarshal(recs[0], &q))
	assert.Equal(t, `Tính $\sqrt{x}$ khi $x \in \mathbb{R}$`, q.Content)
}

func TestParseRecords_RepairKeepsValidEscapes(t *testing.T) {
	// "\\" is already a valid pair; "\a" is not.
	text := `[{"content": "$\\in$ \alpha \"q\" é"}]`

	recs := ParseRecords(text)
	require.Len(t, recs, 1)

	var q struct{ Content string }
	require.NoError(t, json.Unmarshal(recs[0], &q))
	assert.Equal(t, `$\in$ \alpha "q" é`, q.Content)
}

func TestParseRecords_Unparseable(t *testing.T) {
	for _, text := range []string{
		"",
		"not json at all",
		`[{"content": "unterminated`,
	} {
		recs := ParseRecords(text)
		assert.NotNil(t, recs, "input %q", text)
		assert.Empty(t, recs, "input %q", text)
	}
}

func TestParseRecords_NonArrayTopLevel(t *testing.T) {
	for _, text := range []string{`{"content": "x"}`, `null`, `42`} {
		recs := ParseRecords(text)
		assert.NotNil(t, recs, "input %q", text)
		assert.Empty(t, recs, "input %q", text)
	}
}

func TestRepairEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`\s`, `\\s`},
		{`\\s`, `\\s`},
		{`\n`, `\n`},
		{`é`, `é`},
		{`\uZZZZ`, `\\uZZZZ`},
		{`end\`, `end\\`},
		{`\frac`, `\frac`}, // \f is a valid escape and stays as is
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repairEscapes(tt.in), "input %q", tt.in)
	}
}
