package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_SkipsCommentsAndBlanks(t *testing.T) {
	script := `# warm up
:VERSION:

  :FLIGHT:START:|"a"|"b"
`
	var calls []string
	var out bytes.Buffer
	err := replay(strings.NewReader(script), &out, func(line string) string {
		calls = append(calls, line)
		return `["ok"]`
	})
	require.NoError(t, err)

	assert.Equal(t, []string{":VERSION:", `:FLIGHT:START:|"a"|"b"`}, calls)
	assert.Equal(t, "> :VERSION:\n[\"ok\"]\n> :FLIGHT:START:|\"a\"|\"b\"\n[\"ok\"]\n", out.String())
}

func TestReplay_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(""), &out, func(string) string {
		t.Fatal("call on empty script")
		return ""
	}))
	assert.Empty(t, out.String())
}

func TestRun_Usage(t *testing.T) {
	assert.Error(t, run(nil))
	assert.ErrorContains(t, run([]string{"fly"}), "unknown command")
	assert.ErrorContains(t, run([]string{"replay"}), "needs a script")
	assert.NoError(t, run([]string{"version"}))
}
