package pathspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEmpty(t *testing.T) {
	assert.Nil(t, Compile(nil))
	assert.Nil(t, Compile([]string{"", "   ", "# comment only"}))

	var absent *Spec
	assert.False(t, absent.Match("anything", false))
	assert.Equal(t, "<none>", absent.String())
	assert.Nil(t, absent.Lines())
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		path  string
		isDir bool
		want  bool
	}{
		{"star ext", []string{"*.tmp"}, "x.tmp", false, true},
		{"star ext nested", []string{"*.tmp"}, "sub/deeper/x.tmp", false, true},
		{"star ext miss", []string{"*.tmp"}, "y.log", false, false},
		{"double star everything", []string{"**"}, "a.txt", false, true},
		{"double star dir", []string{"**"}, "sub", true, true},
		{"dir only on dir", []string{"build/"}, "build", true, true},
		{"dir only on file", []string{"build/"}, "build", false, false},
		{"anchored root", []string{"/build"}, "build", true, true},
		{"anchored nested", []string{"/build"}, "src/build", true, false},
		{"globstar middle", []string{"src/**/*.o"}, "src/a/b/c.o", false, true},
		{"globstar zero dirs", []string{"src/**/*.o"}, "src/c.o", false, true},
		{"globstar other root", []string{"src/**/*.o"}, "lib/c.o", false, false},
		{"negation last wins", []string{"*.log", "!keep.log"}, "keep.log", false, false},
		{"negation other file", []string{"*.log", "!keep.log"}, "drop.log", false, true},
		{"later overrides negation", []string{"!keep.log", "*.log"}, "keep.log", false, true},
		{"comment skipped", []string{"# *.log", "*.tmp"}, "a.log", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Compile(tt.lines)
			require.NotNil(t, spec)
			assert.Equal(t, tt.want, spec.Match(tt.path, tt.isDir))
		})
	}
}

func TestLinesAreCopied(t *testing.T) {
	spec := Compile([]string{"*.tmp", "", "# note", "node_modules/"})
	lines := spec.Lines()
	assert.Equal(t, []string{"*.tmp", "node_modules/"}, lines)

	lines[0] = "mutated"
	assert.Equal(t, "*.tmp, node_modules/", spec.String())
}

func TestSplit(t *testing.T) {
	assert.Nil(t, Split(""))
	assert.Nil(t, Split("."))
	assert.Equal(t, []string{"a", "b"}, Split("./a//b/"))
}
