package pathspec

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Spec is an immutable gitignore pattern list. Later lines win over earlier
// ones, so a trailing "!keep.log" re-includes what "*.log" matched.
type Spec struct {
	lines   []string
	matcher gitignore.Matcher
}

// Compile returns nil when lines hold no effective pattern. A nil *Spec is
// the absent spec and matches nothing.
func Compile(lines []string) *Spec {
	kept := make([]string, 0, len(lines))
	patterns := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return &Spec{lines: kept, matcher: gitignore.NewMatcher(patterns)}
}

// Match reports whether relPath, relative to the scan root, is selected.
func (spec *Spec) Match(relPath string, isDir bool) bool {
	if spec == nil {
		return false
	}
	parts := Split(relPath)
	if len(parts) == 0 {
		return false
	}
	return spec.matcher.Match(parts, isDir)
}

func (spec *Spec) Lines() []string {
	if spec == nil {
		return nil
	}
	return append([]string(nil), spec.lines...)
}

func (spec *Spec) String() string {
	if spec == nil {
		return "<none>"
	}
	return strings.Join(spec.lines, ", ")
}

// Split breaks a relative path into its slash separated components.
func Split(relPath string) []string {
	slashed := strings.Trim(filepath.ToSlash(relPath), "/")
	if slashed == "" || slashed == "." {
		return nil
	}
	parts := strings.Split(slashed, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			kept = append(kept, part)
		}
	}
	return kept
}
