package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/temirov/pathmark/internal/utils"
)

var (
	// ErrRootMissing reports a project root that does not exist.
	ErrRootMissing = errors.New("project root does not exist")
	// ErrRootNotDirectory reports a project root that is not a directory.
	ErrRootNotDirectory = errors.New("project root is not a directory")
	// ErrRootNameMismatch reports a project root whose basename is not the expected project name.
	ErrRootNameMismatch = errors.New("project root does not match expected name")
	// ErrToolOutsideRoot reports a tool installed outside the root derived from its location.
	ErrToolOutsideRoot = errors.New("tool is outside the project root")
)

// ToolDepth is the number of directory levels between the project root and the tool's directory.
const ToolDepth = 2

const (
	parentDirectory            = ".."
	errorRootStatFormat        = "%w: %s: %w"
	errorRootPathFormat        = "%w: %s"
	errorRootNameFormat        = "%w: calculated project root '%s' is not named '%s'"
	errorToolOutsideRootFormat = "%w: tool at '%s' is outside '%s'"
	errorExecutableFormat      = "locating executable: %w"
	errorAbsoluteRootFormat    = "resolving project root %s: %w"
)

// ProjectRoot is a resolved project root.
type ProjectRoot struct {
	Path string
	// ToolDirectory is the directory holding the running tool.
	ToolDirectory string
	// Derived is true when Path was computed from ToolDirectory rather than configured.
	Derived bool
}

// ExecutablePath returns the path of the running binary with symlinks resolved.
func ExecutablePath() (string, error) {
	executablePath, executableError := os.Executable()
	if executableError != nil {
		return "", fmt.Errorf(errorExecutableFormat, executableError)
	}
	resolvedPath, resolveError := filepath.EvalSymlinks(executablePath)
	if resolveError != nil {
		return "", fmt.Errorf(errorExecutableFormat, resolveError)
	}
	return resolvedPath, nil
}

// ResolveProjectRoot returns the configured root when set, otherwise the directory ToolDepth
// levels above the directory of executablePath.
func ResolveProjectRoot(configuration ToolConfiguration, executablePath string) (ProjectRoot, error) {
	toolDirectory := filepath.Dir(filepath.Clean(executablePath))
	if configuration.Root != "" {
		absoluteRoot, absoluteError := filepath.Abs(configuration.Root)
		if absoluteError != nil {
			return ProjectRoot{}, fmt.Errorf(errorAbsoluteRootFormat, configuration.Root, absoluteError)
		}
		return ProjectRoot{Path: filepath.Clean(absoluteRoot), ToolDirectory: toolDirectory}, nil
	}

	derivedPath := toolDirectory
	for level := 0; level < ToolDepth; level++ {
		derivedPath = filepath.Join(derivedPath, parentDirectory)
	}
	absoluteRoot, absoluteError := filepath.Abs(derivedPath)
	if absoluteError != nil {
		return ProjectRoot{}, fmt.Errorf(errorAbsoluteRootFormat, derivedPath, absoluteError)
	}
	return ProjectRoot{Path: absoluteRoot, ToolDirectory: toolDirectory, Derived: true}, nil
}

// ValidateProjectRoot checks that root exists, is a directory, carries expectedName (when
// not empty) and, for a derived root, still contains the tool.
func ValidateProjectRoot(fileSystem afero.Fs, root ProjectRoot, expectedName string) error {
	rootInformation, statError := fileSystem.Stat(root.Path)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return fmt.Errorf(errorRootStatFormat, ErrRootMissing, root.Path, statError)
		}
		return fmt.Errorf("stat project root %s: %w", root.Path, statError)
	}
	if !rootInformation.IsDir() {
		return fmt.Errorf(errorRootPathFormat, ErrRootNotDirectory, root.Path)
	}
	if expectedName != "" && filepath.Base(root.Path) != expectedName {
		return fmt.Errorf(errorRootNameFormat, ErrRootNameMismatch, root.Path, expectedName)
	}
	if root.Derived && !utils.IsWithin(root.ToolDirectory, root.Path) {
		return fmt.Errorf(errorToolOutsideRootFormat, ErrToolOutsideRoot, root.ToolDirectory, root.Path)
	}
	return nil
}
