package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/ravencore/parser"
	"github.com/javanhut/ravencore/theme"
)

func TestRenderANSI(t *testing.T) {
	term := parser.NewTerminal(10, 4, 0)
	term.Process([]byte("\x1b[31mab\x1b[0m\r\nc"))

	th := theme.ByName("raven-blue")
	out := renderANSI(term.Grid(), th)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)

	red := th.Palette[1]
	bg := th.Background
	assert.True(t, strings.HasPrefix(lines[0], "\x1b[38;2;209;105;105;48;2;13;16;26ma"), lines[0])
	assert.Equal(t, uint8(209), red.R)
	assert.Equal(t, uint8(13), bg.R)
	assert.True(t, strings.HasSuffix(lines[0], "b\x1b[0m"))
	assert.True(t, strings.HasSuffix(lines[1], "c\x1b[0m"))
}

func TestRenderANSIEmptyScreen(t *testing.T) {
	term := parser.NewTerminal(10, 4, 0)
	assert.Empty(t, renderANSI(term.Grid(), theme.ByName("")))
}

func TestRenderANSIKeepsColoredBlanks(t *testing.T) {
	term := parser.NewTerminal(10, 2, 0)
	term.Process([]byte("\x1b[44m  \x1b[0m"))

	out := renderANSI(term.Grid(), theme.ByName("raven-blue"))
	assert.Equal(t, 2, strings.Count(out, "48;2;136;164;212m "))
}

func TestDumpCommandRequiresCmd(t *testing.T) {
	root := rootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetArgs([]string{"dump"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--cmd")
}

func TestRootListsSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "dump", "fonts"})
}

func TestDumpThemeFlagListsThemes(t *testing.T) {
	flag := dumpCmd(&globalFlags{}).Flags().Lookup("theme")
	require.NotNil(t, flag)
	for _, name := range theme.Names() {
		assert.Contains(t, flag.Usage, name)
	}
}
