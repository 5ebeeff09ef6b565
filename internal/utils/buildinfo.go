package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitExecutableName  = "git"
	currentDirectory   = "."
	gitDescribeCommand = "describe"
)

var (
	gitExactTagArguments = []string{gitDescribeCommand, "--tags", "--exact-match"}
	gitLongArguments     = []string{gitDescribeCommand, "--tags", "--long", "--dirty"}
)

// GetApplicationVersion reports the module version from build info, falling back to
// git describe when the binary was built from a checkout.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develBuildVersion {
		return buildInfo.Main.Version
	}

	repositoryDirectory, found := findRepositoryDirectory(currentDirectory)
	if !found {
		return unknownVersion
	}
	for _, arguments := range [][]string{gitExactTagArguments, gitLongArguments} {
		// #nosec G204
		describeCommand := exec.Command(gitExecutableName, arguments...)
		describeCommand.Dir = repositoryDirectory
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findRepositoryDirectory walks upward from startDirectory to the first directory holding .git.
func findRepositoryDirectory(startDirectory string) (string, bool) {
	currentPath, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", false
	}
	for {
		fileInformation, statError := os.Stat(filepath.Join(currentPath, GitDirectoryName))
		if statError == nil && fileInformation.IsDir() {
			return currentPath, true
		}
		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return "", false
		}
		currentPath = parentPath
	}
}
