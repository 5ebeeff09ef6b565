package tree

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pathmark/internal/services/clipboard"
	"github.com/temirov/pathmark/internal/utils"
)

const (
	outputFilePermissions      = 0o644
	successMessageFormat       = "Successfully generated path tree to: %s\n"
	errorWriteOutputFormat     = "writing tree to %s: %w"
	clipboardFailureLogMessage = "failed to copy tree to clipboard"
	clipboardCopiedLogMessage  = "copied tree to clipboard"
)

// Options configures a Renderer.
type Options struct {
	Root       string
	OutputPath string
	// IgnoredNames and KeptNames are forwarded to the Builder.
	IgnoredNames utils.NameSet
	KeptNames    utils.NameSet
	// PrintTree also writes the tree text to the report writer.
	PrintTree bool
	// CopyToClipboard copies the tree text with the configured Copier.
	CopyToClipboard bool
}

// DefaultOptions returns the fixed ignore configuration writing to outputPath.
func DefaultOptions(root string, outputPath string) Options {
	return Options{
		Root:         root,
		OutputPath:   outputPath,
		IgnoredNames: utils.NewNameSet(DefaultIgnoredNames...),
		KeptNames:    utils.NewNameSet(DefaultKeptNames...),
	}
}

// Renderer builds the tree of a root and persists it.
type Renderer struct {
	fileSystem afero.Fs
	logger     *zap.Logger
	output     io.Writer
	copier     clipboard.Copier
	options    Options
}

// NewRenderer constructs a Renderer. copier may be nil when clipboard support is not wanted.
func NewRenderer(fileSystem afero.Fs, logger *zap.Logger, output io.Writer, copier clipboard.Copier, options Options) *Renderer {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if output == nil {
		output = io.Discard
	}
	return &Renderer{
		fileSystem: fileSystem,
		logger:     logger,
		output:     output,
		copier:     copier,
		options:    options,
	}
}

// Render snapshots the root, writes the text to the output file (overwriting it) and
// returns the text. The returned error is set only when the output file cannot be written.
func (renderer *Renderer) Render() (string, error) {
	builder := NewBuilder(renderer.fileSystem, renderer.options.IgnoredNames, renderer.options.KeptNames)
	treeText := Text(builder.Build(renderer.options.Root))

	if renderer.options.PrintTree {
		fmt.Fprintln(renderer.output, treeText)
	}
	if renderer.options.CopyToClipboard && renderer.copier != nil {
		if copyError := renderer.copier.Copy(treeText); copyError != nil {
			renderer.logger.Warn(clipboardFailureLogMessage, zap.Error(copyError))
		} else {
			renderer.logger.Debug(clipboardCopiedLogMessage)
		}
	}

	if writeError := afero.WriteFile(renderer.fileSystem, renderer.options.OutputPath, []byte(treeText), outputFilePermissions); writeError != nil {
		return treeText, fmt.Errorf(errorWriteOutputFormat, renderer.options.OutputPath, writeError)
	}
	fmt.Fprintf(renderer.output, successMessageFormat, renderer.options.OutputPath)
	return treeText, nil
}
