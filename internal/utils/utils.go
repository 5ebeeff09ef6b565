// Package utils contains general helper functions shared by the pathmark tools.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// PathSegmentSeparator is the separator used in every reported relative path.
	PathSegmentSeparator = "/"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"

	errorRelativePathFormat = "computing path of %s relative to %s: %w"
	errorOutsideRootFormat  = "%s is outside %s"
)

// NameSet is a set of exact basenames.
type NameSet map[string]struct{}

// NewNameSet builds a NameSet from the provided names.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is a member of the set. A nil set contains nothing.
func (set NameSet) Contains(name string) bool {
	_, exists := set[name]
	return exists
}

// RelativeSlashPath returns fullPath relative to root using forward slashes regardless of host OS.
// It fails when fullPath does not lie inside root.
func RelativeSlashPath(fullPath, root string) (string, error) {
	cleanRoot := filepath.Clean(root)
	relativePath, relError := filepath.Rel(cleanRoot, filepath.Clean(fullPath))
	if relError != nil {
		return "", fmt.Errorf(errorRelativePathFormat, fullPath, root, relError)
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf(errorOutsideRootFormat, fullPath, root)
	}
	return filepath.ToSlash(relativePath), nil
}

// IsWithin reports whether candidatePath equals root or lies below it.
func IsWithin(candidatePath, root string) bool {
	_, relError := RelativeSlashPath(candidatePath, root)
	return relError == nil
}
