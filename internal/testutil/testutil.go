// Package testutil builds filesystem fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"golang.org/x/tools/txtar"
)

const (
	directoryMarkerSuffix = "/"
	fixtureDirectoryMode  = 0o755
	fixtureFileMode       = 0o644
)

// WriteArchive materializes a txtar archive below root on fileSystem. A file whose name
// ends in "/" becomes an empty directory.
func WriteArchive(t *testing.T, fileSystem afero.Fs, root string, archive string) {
	t.Helper()
	parsedArchive := txtar.Parse([]byte(archive))
	if makeRootError := fileSystem.MkdirAll(root, fixtureDirectoryMode); makeRootError != nil {
		t.Fatalf("mkdir %s: %v", root, makeRootError)
	}
	for _, archiveFile := range parsedArchive.Files {
		targetPath := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(archiveFile.Name, directoryMarkerSuffix)))
		if strings.HasSuffix(archiveFile.Name, directoryMarkerSuffix) {
			if makeError := fileSystem.MkdirAll(targetPath, fixtureDirectoryMode); makeError != nil {
				t.Fatalf("mkdir %s: %v", targetPath, makeError)
			}
			continue
		}
		if makeError := fileSystem.MkdirAll(filepath.Dir(targetPath), fixtureDirectoryMode); makeError != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(targetPath), makeError)
		}
		if writeError := afero.WriteFile(fileSystem, targetPath, archiveFile.Data, fixtureFileMode); writeError != nil {
			t.Fatalf("write %s: %v", targetPath, writeError)
		}
	}
}

// ReadFile returns the content of path on fileSystem, failing the test on error.
func ReadFile(t *testing.T, fileSystem afero.Fs, path string) string {
	t.Helper()
	content, readError := afero.ReadFile(fileSystem, path)
	if readError != nil {
		t.Fatalf("read %s: %v", path, readError)
	}
	return string(content)
}

// FailingFs wraps a filesystem and refuses selected operations with os.ErrPermission.
type FailingFs struct {
	afero.Fs
	// DeniedReads lists paths that cannot be opened for reading.
	DeniedReads map[string]struct{}
	// DeniedWriteDirectories lists directories in which no file can be created or written.
	DeniedWriteDirectories map[string]struct{}
}

// NewFailingFs wraps base with no denials configured.
func NewFailingFs(base afero.Fs) *FailingFs {
	return &FailingFs{
		Fs:                     base,
		DeniedReads:            map[string]struct{}{},
		DeniedWriteDirectories: map[string]struct{}{},
	}
}

// DenyRead makes every open of path fail.
func (failingFs *FailingFs) DenyRead(path string) {
	failingFs.DeniedReads[filepath.Clean(path)] = struct{}{}
}

// DenyWritesIn makes file creation and writes inside directoryPath fail.
func (failingFs *FailingFs) DenyWritesIn(directoryPath string) {
	failingFs.DeniedWriteDirectories[filepath.Clean(directoryPath)] = struct{}{}
}

// Open refuses denied reads.
func (failingFs *FailingFs) Open(name string) (afero.File, error) {
	if _, denied := failingFs.DeniedReads[filepath.Clean(name)]; denied {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return failingFs.Fs.Open(name)
}

// OpenFile refuses denied reads and writes.
func (failingFs *FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if _, denied := failingFs.DeniedReads[filepath.Clean(name)]; denied {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		if _, denied := failingFs.DeniedWriteDirectories[filepath.Dir(filepath.Clean(name))]; denied {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
		}
	}
	return failingFs.Fs.OpenFile(name, flag, perm)
}

// Create refuses writes in denied directories.
func (failingFs *FailingFs) Create(name string) (afero.File, error) {
	return failingFs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fixtureFileMode)
}
