package services

import (
	"context"
	"os"
	"path/filepath"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/pathspec"
)

// PathClassifier holds the two immutable pattern specs of one scan and is
// safe for concurrent use.
type PathClassifier struct {
	include *pathspec.Spec
	exclude *pathspec.Spec
}

func NewPathClassifier(include, exclude *pathspec.Spec) *PathClassifier {
	return &PathClassifier{include: include, exclude: exclude}
}

// Kind applies the precedence: untraversable entry, then exclude, then
// include. Without an include spec everything not excluded matches.
func (classifier *PathClassifier) Kind(relPath string, isDir, reparse bool) domain.MatchKind {
	if reparse {
		return domain.PermissionDenied
	}
	if classifier.exclude.Match(relPath, isDir) {
		return domain.Excluded
	}
	if classifier.include == nil {
		return domain.Matched
	}
	if classifier.include.Match(relPath, isDir) {
		return domain.Matched
	}
	return domain.NotMatched
}

// Classify stats absPath and sizes it when it matches. Any stat failure is a
// *domain.ScanError naming the entry that failed.
func (classifier *PathClassifier) Classify(ctx context.Context, absPath, relPath string) (domain.Classification, error) {
	info, err := os.Lstat(absPath)
	if err != nil {
		return domain.Classification{}, &domain.ScanError{Path: absPath, Err: err}
	}
	reparse := isReparsePoint(absPath, info)
	result := domain.Classification{
		Kind:         classifier.Kind(relPath, info.IsDir() && !reparse, reparse),
		RelativePath: relPath,
		AbsolutePath: absPath,
		IsDir:        info.IsDir(),
	}
	if result.Kind != domain.Matched {
		return result, nil
	}
	if !result.IsDir {
		result.SizeBytes = info.Size()
		return result, nil
	}
	size, err := dirSize(ctx, absPath)
	if err != nil {
		return domain.Classification{}, err
	}
	result.SizeBytes = size
	return result, nil
}

// dirSize sums regular file sizes below path. Links and other untraversable
// entries count as zero and are never followed. Patterns are not consulted:
// a matched directory is deleted whole, so excluded descendants count too.
func dirSize(ctx context.Context, path string) (int64, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, &domain.ScanError{Path: path, Err: err}
	}
	var total int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		child := filepath.Join(path, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return 0, &domain.ScanError{Path: child, Err: err}
		}
		if isReparsePoint(child, info) {
			continue
		}
		if info.IsDir() {
			size, err := dirSize(ctx, child)
			if err != nil {
				return 0, err
			}
			total += size
			continue
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total, nil
}
