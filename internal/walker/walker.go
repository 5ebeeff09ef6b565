// Package walker lists project trees for the annotator and the tree renderer.
//
// Exclusion is done by pruning: a directory whose basename is in the ignore-set is never
// opened, so nothing below it is visited.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/pathmark/internal/utils"
)

var (
	// ErrNotFound reports a root or directory that does not exist.
	ErrNotFound = errors.New("directory not found")
	// ErrPermission reports a directory that cannot be read.
	ErrPermission = errors.New("permission denied")
	// ErrNotDirectory reports a walk root that is a file.
	ErrNotDirectory = errors.New("not a directory")
)

const (
	errorListDirectoryFormat = "%w: %s: %w"
	errorRootFileFormat      = "%w: %s"
)

// Entry is a single child returned by List.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Walker enumerates files and directories on a filesystem.
type Walker struct {
	fileSystem afero.Fs
}

// New returns a Walker over fileSystem. A nil fileSystem means the host filesystem.
func New(fileSystem afero.Fs) *Walker {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Walker{fileSystem: fileSystem}
}

// Files returns a lazy top-down sequence of every non-directory path below root.
// Files of a directory are yielded before its subdirectories are entered. Directories
// named in ignoreDirectories are pruned before descent. A missing root yields one error
// wrapping ErrNotFound; an unreadable subdirectory yields an error and the walk goes on.
func (walker *Walker) Files(root string, ignoreDirectories utils.NameSet) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rootInformation, statError := walker.fileSystem.Stat(root)
		if statError != nil {
			yield("", classifyError(root, statError))
			return
		}
		if !rootInformation.IsDir() {
			yield("", fmt.Errorf(errorRootFileFormat, ErrNotDirectory, root))
			return
		}
		walker.walkDirectory(root, ignoreDirectories, yield)
	}
}

func (walker *Walker) walkDirectory(directoryPath string, ignoreDirectories utils.NameSet, yield func(string, error) bool) bool {
	fileInformations, readError := afero.ReadDir(walker.fileSystem, directoryPath)
	if readError != nil {
		return yield("", classifyError(directoryPath, readError))
	}

	var subdirectories []string
	for _, fileInformation := range fileInformations {
		childPath := filepath.Join(directoryPath, fileInformation.Name())
		if fileInformation.IsDir() {
			if ignoreDirectories.Contains(fileInformation.Name()) {
				continue
			}
			subdirectories = append(subdirectories, childPath)
			continue
		}
		if !yield(childPath, nil) {
			return false
		}
	}

	for _, subdirectory := range subdirectories {
		if !walker.walkDirectory(subdirectory, ignoreDirectories, yield) {
			return false
		}
	}
	return true
}

// List returns the immediate children of directoryPath sorted by name (byte-wise,
// case-sensitive). Names in ignore are dropped unless they are also in keep.
func (walker *Walker) List(directoryPath string, ignore utils.NameSet, keep utils.NameSet) ([]Entry, error) {
	fileInformations, readError := afero.ReadDir(walker.fileSystem, directoryPath)
	if readError != nil {
		return nil, classifyError(directoryPath, readError)
	}

	entries := make([]Entry, 0, len(fileInformations))
	for _, fileInformation := range fileInformations {
		entryName := fileInformation.Name()
		if ignore.Contains(entryName) && !keep.Contains(entryName) {
			continue
		}
		entries = append(entries, Entry{
			Name:  entryName,
			Path:  filepath.Join(directoryPath, entryName),
			IsDir: fileInformation.IsDir(),
		})
	}
	slices.SortFunc(entries, func(left, right Entry) int {
		return strings.Compare(left.Name, right.Name)
	})
	return entries, nil
}

// classifyError maps filesystem failures onto ErrNotFound and ErrPermission, keeping the cause.
func classifyError(path string, cause error) error {
	switch {
	case errors.Is(cause, fs.ErrNotExist):
		return fmt.Errorf(errorListDirectoryFormat, ErrNotFound, path, cause)
	case errors.Is(cause, fs.ErrPermission):
		return fmt.Errorf(errorListDirectoryFormat, ErrPermission, path, cause)
	default:
		return fmt.Errorf("reading directory %s: %w", path, cause)
	}
}
