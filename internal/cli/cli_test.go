package cli_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/pathmark/internal/cli"
	"github.com/temirov/pathmark/internal/config"
	"github.com/temirov/pathmark/internal/testutil"
	"github.com/temirov/pathmark/internal/utils"
)

const (
	projectRoot    = "/work/python_project_template"
	toolDirectory  = projectRoot + "/_dev_tools/coding_tools"
	toolExecutable = toolDirectory + "/addpathcomment"
	toolSource     = toolDirectory + "/add_path_comment.py"

	projectArchive = `
-- _dev_tools/coding_tools/addpathcomment --
binary placeholder
-- _dev_tools/coding_tools/add_path_comment.py --
import os
-- app/main.py --
print("hello")
-- app/__init__.py --
-- .git/hooks/pre_commit.py --
print("hook")
`
)

type recordingCopier struct {
	copied []string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

func newEnvironment(t *testing.T, fileSystem afero.Fs, output *bytes.Buffer) cli.Environment {
	t.Helper()
	return cli.Environment{
		FileSystem:     fileSystem,
		Logger:         zaptest.NewLogger(t),
		Output:         output,
		Copier:         &recordingCopier{},
		ExecutablePath: func() (string, error) { return filepath.FromSlash(toolExecutable), nil },
	}
}

func newProject(t *testing.T) afero.Fs {
	t.Helper()
	fileSystem := afero.NewMemMapFs()
	testutil.WriteArchive(t, fileSystem, projectRoot, projectArchive)
	return fileSystem
}

func TestAnnotatorCommandAnnotatesDerivedRoot(t *testing.T) {
	fileSystem := newProject(t)
	var output bytes.Buffer
	environment := newEnvironment(t, fileSystem, &output)
	environment.SelfPath = toolSource

	command := cli.NewAnnotatorCommand(environment)
	command.SetArgs([]string{})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("Execute error: %v", executeError)
	}

	for _, relativePath := range []string{"app/main.py", "app/__init__.py", "_dev_tools/coding_tools/add_path_comment.py"} {
		content := testutil.ReadFile(t, fileSystem, filepath.Join(projectRoot, relativePath))
		if firstLine, _, _ := strings.Cut(content, "\n"); firstLine != `"""Path: `+relativePath+`."""` {
			t.Fatalf("%s: unexpected first line %q", relativePath, firstLine)
		}
	}
	if hook := testutil.ReadFile(t, fileSystem, filepath.Join(projectRoot, ".git/hooks/pre_commit.py")); hook != "print(\"hook\")\n" {
		t.Fatalf("ignored file was modified: %q", hook)
	}

	report := output.String()
	selfHeaderIndex := strings.Index(report, "Processing the script itself")
	if selfHeaderIndex < 0 || !strings.Contains(report[selfHeaderIndex:], "add_path_comment.py") {
		t.Fatalf("self file not processed last:\n%s", report)
	}
	if !strings.Contains(report, "Finished processing. Checked/modified 3 Python files.") {
		t.Fatalf("missing summary:\n%s", report)
	}
}

func TestAnnotatorCommandRejectsInvalidRoots(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		expected  error
	}{
		{name: "name_mismatch", arguments: []string{"--project-name", "other_project"}, expected: config.ErrRootNameMismatch},
		{name: "missing_root", arguments: []string{"--root", "/work/absent"}, expected: config.ErrRootMissing},
		{name: "file_root", arguments: []string{"--root", projectRoot + "/app/main.py", "--project-name", "main.py"}, expected: config.ErrRootNotDirectory},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var output bytes.Buffer
			command := cli.NewAnnotatorCommand(newEnvironment(t, newProject(t), &output))
			command.SetArgs(testCase.arguments)
			command.SetErr(&bytes.Buffer{})
			if executeError := command.Execute(); !errors.Is(executeError, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, executeError)
			}
			if output.Len() != 0 {
				t.Fatalf("unexpected report for rejected root:\n%s", output.String())
			}
		})
	}
}

func TestAnnotatorCommandReadsRootFromEnvironment(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	testutil.WriteArchive(t, fileSystem, "/srv/service", "-- main.py --\nprint()\n")
	t.Setenv("PATHMARK_ROOT", "/srv/service")
	t.Setenv("PATHMARK_PROJECT_NAME", "service")

	var output bytes.Buffer
	environment := newEnvironment(t, fileSystem, &output)
	environment.ExecutablePath = func() (string, error) { return "", errors.New("executable lookup must not run") }
	command := cli.NewAnnotatorCommand(environment)
	command.SetArgs([]string{})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("Execute error: %v", executeError)
	}
	if content := testutil.ReadFile(t, fileSystem, "/srv/service/main.py"); content != "\"\"\"Path: main.py.\"\"\"\nprint()\n" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCommandsPrintVersion(t *testing.T) {
	testCases := []struct {
		name    string
		command string
	}{
		{name: "annotator", command: "addpathcomment"},
		{name: "tree", command: "pathtree"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var output bytes.Buffer
			environment := newEnvironment(t, newProject(t), &output)
			command := cli.NewAnnotatorCommand(environment)
			if testCase.command == "pathtree" {
				command = cli.NewTreeCommand(environment)
			}
			command.SetArgs([]string{"--version"})
			if executeError := command.Execute(); executeError != nil {
				t.Fatalf("Execute error: %v", executeError)
			}
			if !strings.HasPrefix(output.String(), testCase.command+" version: ") {
				t.Fatalf("unexpected version output %q", output.String())
			}
		})
	}
}

func TestTreeCommandWritesPrintsAndCopies(t *testing.T) {
	fileSystem := newProject(t)
	var output bytes.Buffer
	environment := newEnvironment(t, fileSystem, &output)
	copier := &recordingCopier{}
	environment.Copier = copier

	command := cli.NewTreeCommand(environment)
	command.SetArgs([]string{"--stdout", "--clipboard"})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("Execute error: %v", executeError)
	}

	outputPath := filepath.Join(projectRoot, utils.TreeOutputFileName)
	written := testutil.ReadFile(t, fileSystem, outputPath)
	if !strings.HasPrefix(written, "python_project_template/\n") {
		t.Fatalf("unexpected tree:\n%s", written)
	}
	if strings.Contains(written, ".git") {
		t.Fatalf("ignored directory rendered:\n%s", written)
	}
	if len(copier.copied) != 1 || copier.copied[0] != written {
		t.Fatalf("clipboard did not receive the tree: %v", copier.copied)
	}
	if !strings.Contains(output.String(), written) || !strings.Contains(output.String(), "Successfully generated path tree to: "+outputPath) {
		t.Fatalf("unexpected report:\n%s", output.String())
	}
}

func TestTreeCommandHonorsOutputName(t *testing.T) {
	fileSystem := newProject(t)
	var output bytes.Buffer
	command := cli.NewTreeCommand(newEnvironment(t, fileSystem, &output))
	command.SetArgs([]string{"--output", "layout.txt"})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("Execute error: %v", executeError)
	}
	if exists, _ := afero.Exists(fileSystem, filepath.Join(projectRoot, "layout.txt")); !exists {
		t.Fatalf("custom output file was not written")
	}
	if exists, _ := afero.Exists(fileSystem, filepath.Join(projectRoot, utils.TreeOutputFileName)); exists {
		t.Fatalf("default output file written despite --output")
	}
}

func TestTreeCommandWriteFailureIsLoggedNotFatal(t *testing.T) {
	failingFs := testutil.NewFailingFs(newProject(t))
	failingFs.DenyWritesIn(projectRoot)
	observedCore, observedLogs := observer.New(zapcore.ErrorLevel)

	var output bytes.Buffer
	environment := newEnvironment(t, failingFs, &output)
	environment.Logger = zap.New(observedCore)
	command := cli.NewTreeCommand(environment)
	command.SetArgs([]string{})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("write failure must not fail the command: %v", executeError)
	}

	entries := observedLogs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	loggedError, isError := entries[0].ContextMap()[utils.LogFieldError].(string)
	if !isError || !strings.Contains(loggedError, os.ErrPermission.Error()) {
		t.Fatalf("log entry lacks the I/O reason: %v", entries[0].ContextMap())
	}
	if strings.Contains(output.String(), "Successfully generated") {
		t.Fatalf("success reported despite write failure:\n%s", output.String())
	}
}

func TestAnnotatorCommandSkipsGoSelfFile(t *testing.T) {
	fileSystem := newProject(t)
	goSourcePath := toolDirectory + "/main.go"
	goSource := "package main\n\nfunc main() {}\n"
	if writeError := afero.WriteFile(fileSystem, goSourcePath, []byte(goSource), 0o644); writeError != nil {
		t.Fatalf("write %s: %v", goSourcePath, writeError)
	}
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)

	var output bytes.Buffer
	environment := newEnvironment(t, fileSystem, &output)
	environment.Logger = zap.New(observedCore)
	environment.SelfPath = goSourcePath
	command := cli.NewAnnotatorCommand(environment)
	command.SetArgs([]string{})
	if executeError := command.Execute(); executeError != nil {
		t.Fatalf("Execute error: %v", executeError)
	}

	if content := testutil.ReadFile(t, fileSystem, goSourcePath); content != goSource {
		t.Fatalf("Go source was modified: %q", content)
	}
	if skipEntries := observedLogs.FilterField(zap.String(utils.LogFieldPath, goSourcePath)).All(); len(skipEntries) != 1 {
		t.Fatalf("expected one skip log for %s, got %d", goSourcePath, len(skipEntries))
	}
	if strings.Contains(output.String(), "Processing the script itself") {
		t.Fatalf("skipped self file must not open the self section:\n%s", output.String())
	}
	if !strings.Contains(command.Long, "self-annotation was skipped") {
		t.Fatalf("help text does not explain the self-annotation skip")
	}
}
