// Package tree renders a project directory as a box-drawing text tree.
package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/pathmark/internal/utils"
	"github.com/temirov/pathmark/internal/walker"
)

const (
	branchConnector       = "├── "
	lastBranchConnector   = "└── "
	continuationPrefix    = "│   "
	blankPrefix           = "    "
	directorySuffix       = "/"
	lineSeparator         = "\n"
	notFoundPlaceholder   = "[Error: Directory not found: %s]"
	permissionPlaceholder = "[Error: Permission denied: %s]"
	unreadablePlaceholder = "[Error: Cannot read directory: %s]"
)

var (
	// DefaultIgnoredNames lists basenames left out of the tree.
	DefaultIgnoredNames = []string{utils.GitDirectoryName, "__pycache__", ".vscode", ".DS_Store", utils.TreeOutputFileName}
	// DefaultKeptNames lists ignored basenames that are nevertheless shown.
	DefaultKeptNames = []string{utils.TreeOutputFileName}
)

// Node is a directory or file in a snapshot of the project tree.
type Node struct {
	Name        string
	Path        string
	IsDirectory bool
	Children    []*Node
	// ListingError is set when the directory could not be listed; Children is then empty.
	ListingError error
}

// Builder takes snapshots of a directory hierarchy.
type Builder struct {
	walker      *walker.Walker
	ignoreNames utils.NameSet
	keepNames   utils.NameSet
}

// NewBuilder returns a Builder reading from fileSystem.
func NewBuilder(fileSystem afero.Fs, ignoreNames utils.NameSet, keepNames utils.NameSet) *Builder {
	return &Builder{
		walker:      walker.New(fileSystem),
		ignoreNames: ignoreNames,
		keepNames:   keepNames,
	}
}

// Build returns the snapshot rooted at rootPath. Listing failures are recorded on the
// affected node instead of being returned.
func (builder *Builder) Build(rootPath string) *Node {
	cleanRoot := filepath.Clean(rootPath)
	rootNode := &Node{
		Name:        filepath.Base(cleanRoot),
		Path:        cleanRoot,
		IsDirectory: true,
	}
	builder.populate(rootNode)
	return rootNode
}

func (builder *Builder) populate(directoryNode *Node) {
	entries, listError := builder.walker.List(directoryNode.Path, builder.ignoreNames, builder.keepNames)
	if listError != nil {
		directoryNode.ListingError = listError
		return
	}
	for _, entry := range entries {
		childNode := &Node{
			Name:        entry.Name,
			Path:        entry.Path,
			IsDirectory: entry.IsDir,
		}
		if childNode.IsDirectory {
			builder.populate(childNode)
		}
		directoryNode.Children = append(directoryNode.Children, childNode)
	}
}

// Lines renders rootNode depth-first. The first line is the root name followed by "/".
func Lines(rootNode *Node) []string {
	if rootNode == nil {
		return nil
	}
	lines := []string{rootNode.Name + directorySuffix}
	return appendChildLines(lines, rootNode, "")
}

// Text joins Lines with newlines, without a trailing newline.
func Text(rootNode *Node) string {
	return strings.Join(Lines(rootNode), lineSeparator)
}

func appendChildLines(lines []string, directoryNode *Node, prefix string) []string {
	if directoryNode.ListingError != nil {
		return append(lines, prefix+lastBranchConnector+placeholder(directoryNode))
	}
	for childIndex, childNode := range directoryNode.Children {
		isLastChild := childIndex == len(directoryNode.Children)-1
		connector := branchConnector
		childPrefix := prefix + continuationPrefix
		if isLastChild {
			connector = lastBranchConnector
			childPrefix = prefix + blankPrefix
		}
		line := prefix + connector + childNode.Name
		if childNode.IsDirectory {
			line += directorySuffix
		}
		lines = append(lines, line)
		if childNode.IsDirectory {
			lines = appendChildLines(lines, childNode, childPrefix)
		}
	}
	return lines
}

func placeholder(directoryNode *Node) string {
	switch {
	case errors.Is(directoryNode.ListingError, walker.ErrNotFound):
		return fmt.Sprintf(notFoundPlaceholder, directoryNode.Path)
	case errors.Is(directoryNode.ListingError, walker.ErrPermission):
		return fmt.Sprintf(permissionPlaceholder, directoryNode.Path)
	default:
		return fmt.Sprintf(unreadablePlaceholder, directoryNode.Path)
	}
}
