package annotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	temporaryFileSuffixPattern = ".tmp.*"
	maximumLinkHops            = 40
)

var errTooManyLinks = errors.New("too many levels of symbolic links")

// writeFileAtomically replaces the file at linkPath with content by writing a sibling temporary file and
// renaming it over the destination. When linkPath is a symbolic link the link target is
// replaced and the link is kept. On failure the destination is left untouched.
func writeFileAtomically(fileSystem afero.Fs, linkPath string, content []byte, permissions os.FileMode) error {
	path, resolveError := resolveLinkTarget(fileSystem, linkPath)
	if resolveError != nil {
		return fmt.Errorf("resolving %s: %w", linkPath, resolveError)
	}
	temporaryFile, createError := afero.TempFile(fileSystem, filepath.Dir(path), filepath.Base(path)+temporaryFileSuffixPattern)
	if createError != nil {
		return fmt.Errorf("creating temporary file for %s: %w", path, createError)
	}
	temporaryPath := temporaryFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = fileSystem.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(content); writeError != nil {
		_ = temporaryFile.Close()
		return fmt.Errorf("writing temporary file for %s: %w", path, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf("closing temporary file for %s: %w", path, closeError)
	}
	if chmodError := fileSystem.Chmod(temporaryPath, permissions); chmodError != nil {
		return fmt.Errorf("setting permissions on temporary file for %s: %w", path, chmodError)
	}
	if renameError := fileSystem.Rename(temporaryPath, path); renameError != nil {
		return fmt.Errorf("replacing %s: %w", path, renameError)
	}
	renamed = true
	return nil
}

// resolveLinkTarget follows symbolic links at path until it names a non-link. Filesystems
// without link support return path unchanged.
func resolveLinkTarget(fileSystem afero.Fs, path string) (string, error) {
	lstater, canLstat := fileSystem.(afero.Lstater)
	linkReader, canReadLink := fileSystem.(afero.LinkReader)
	if !canLstat || !canReadLink {
		return path, nil
	}
	resolvedPath := path
	for hop := 0; hop < maximumLinkHops; hop++ {
		fileInformation, lstatCalled, lstatError := lstater.LstatIfPossible(resolvedPath)
		if lstatError != nil {
			return "", lstatError
		}
		if !lstatCalled || fileInformation.Mode()&os.ModeSymlink == 0 {
			return resolvedPath, nil
		}
		linkTarget, readLinkError := linkReader.ReadlinkIfPossible(resolvedPath)
		if readLinkError != nil {
			return "", readLinkError
		}
		if !filepath.IsAbs(linkTarget) {
			linkTarget = filepath.Join(filepath.Dir(resolvedPath), linkTarget)
		}
		resolvedPath = linkTarget
	}
	return "", fmt.Errorf("%w: %s", errTooManyLinks, path)
}
