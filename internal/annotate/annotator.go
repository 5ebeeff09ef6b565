package annotate

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pathmark/internal/utils"
	"github.com/temirov/pathmark/internal/walker"
)

// ErrNotText reports a file whose content is not UTF-8 text.
var ErrNotText = errors.New("file is not valid UTF-8 text")

const (
	// DefaultExtension is the only file extension annotated by default.
	DefaultExtension = ".py"

	startingMessageFormat       = "Starting to process Python files in: %s\n"
	skippedMessageFormat        = "Skipped: %s (already has correct path comment)\n"
	addedToEmptyMessageFormat   = "Modified: Added path comment to empty file %s\n"
	updatedMessageFormat        = "Modified: Updated outdated path comment in %s\n"
	insertedBeforeMessageFormat = "Modified: Added path comment before existing docstring in %s\n"
	insertedMessageFormat       = "Modified: Added path comment to %s (no initial docstring)\n"
	selfHeaderMessage           = "\nProcessing the script itself to add/update its path comment:\n"
	noFilesMessage              = "No Python files found to process (or all were ignored/skipped).\n"
	finishedMessageFormat       = "Finished processing. Checked/modified %d Python files.\n"
	failedMessageFormat         = "Failed to process %d files.\n"
	failedDirectoriesFormat     = "Failed to scan %d directories.\n"
	fileFailureLogMessage       = "failed to process file"
	directoryFailureLogMessage  = "failed to scan directory"
	errorRootFormat             = "annotating %s: %w"
	errorRelativePathFormat     = "resolving path of %s: %w"
	errorReadFileFormat         = "reading %s: %w"
	errorNotTextFormat          = "%w: %s"
	errorStatFileFormat         = "stat %s: %w"
	errorWriteFileFormat        = "writing %s: %w"
	errorRootNotDirectoryFormat = "%w: %s"
	selfFileSkippedLogMessage   = "self annotation skipped"
	selfFileSkippedReasonField  = "reason"
	selfFileNotEligibleReason   = "not an eligible source file"
	selfFileMissingReason       = "no self file configured"
	selfFileOutsideRootReason   = "outside the project root"
)

var (
	// DefaultIgnoredDirectories lists directory basenames never entered.
	DefaultIgnoredDirectories = []string{utils.GitDirectoryName, ".vscode", "__pycache__", "data"}
	// DefaultIgnoredFiles lists file basenames never annotated.
	DefaultIgnoredFiles = []string{utils.TreeOutputFileName}
)

// Options configures an Annotator.
type Options struct {
	// Root is the absolute project root every marker path is relative to.
	Root string
	// IgnoredDirectories are pruned from the walk.
	IgnoredDirectories utils.NameSet
	// IgnoredFiles are never annotated.
	IgnoredFiles utils.NameSet
	// Extensions lists eligible file extensions including the dot.
	Extensions []string
	// SelfPath is annotated after every discovered file. Empty disables it.
	SelfPath string
}

// DefaultOptions returns the fixed ignore configuration for root.
func DefaultOptions(root string) Options {
	return Options{
		Root:               root,
		IgnoredDirectories: utils.NewNameSet(DefaultIgnoredDirectories...),
		IgnoredFiles:       utils.NewNameSet(DefaultIgnoredFiles...),
		Extensions:         []string{DefaultExtension},
	}
}

// Result is the outcome of annotating one file.
type Result struct {
	Path         string
	RelativePath string
	Outcome      Outcome
}

// Failure records a file or directory that could not be processed.
type Failure struct {
	Path string
	Err  error
	// IsDirectory marks a directory that could not be scanned; Path is then empty.
	IsDirectory bool
}

// Summary aggregates a Run.
type Summary struct {
	// Processed counts files handled without error, the self file included once.
	Processed int
	// Modified counts files whose content changed.
	Modified int
	Results  []Result
	Failures []Failure
}

// Annotator applies markers to the files of one project root.
type Annotator struct {
	fileSystem afero.Fs
	walker     *walker.Walker
	logger     *zap.Logger
	output     io.Writer
	options    Options
}

// NewAnnotator constructs an Annotator. Report lines are written to output; failures are logged.
func NewAnnotator(fileSystem afero.Fs, logger *zap.Logger, output io.Writer, options Options) *Annotator {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if output == nil {
		output = io.Discard
	}
	return &Annotator{
		fileSystem: fileSystem,
		walker:     walker.New(fileSystem),
		logger:     logger,
		output:     output,
		options:    options,
	}
}

// IsEligible reports whether filePath should carry a marker.
func (annotator *Annotator) IsEligible(filePath string) bool {
	baseName := filepath.Base(filePath)
	if annotator.options.IgnoredFiles.Contains(baseName) {
		return false
	}
	return slices.Contains(annotator.options.Extensions, filepath.Ext(baseName))
}

// ProcessFile ensures filePath begins with its expected marker and rewrites it only when needed.
func (annotator *Annotator) ProcessFile(filePath string) (Result, error) {
	relativePath, relativeError := utils.RelativeSlashPath(filePath, annotator.options.Root)
	if relativeError != nil {
		return Result{}, fmt.Errorf(errorRelativePathFormat, filePath, relativeError)
	}
	result := Result{Path: filePath, RelativePath: relativePath}

	fileInformation, statError := annotator.fileSystem.Stat(filePath)
	if statError != nil {
		return result, fmt.Errorf(errorStatFileFormat, filePath, statError)
	}
	content, readError := afero.ReadFile(annotator.fileSystem, filePath)
	if readError != nil {
		return result, fmt.Errorf(errorReadFileFormat, filePath, readError)
	}
	if !utils.IsText(content) {
		return result, fmt.Errorf(errorNotTextFormat, ErrNotText, filePath)
	}

	rewrittenContent, outcome := Rewrite(content, relativePath)
	result.Outcome = outcome
	if outcome.Changed() {
		if writeError := writeFileAtomically(annotator.fileSystem, filePath, rewrittenContent, fileInformation.Mode().Perm()); writeError != nil {
			return result, fmt.Errorf(errorWriteFileFormat, filePath, writeError)
		}
	}
	return result, nil
}

// Run annotates every eligible file below the root and then the self file.
// Only an unusable root is returned as an error; per-file and per-directory failures are
// logged, collected in the Summary and do not stop the run.
func (annotator *Annotator) Run() (Summary, error) {
	var summary Summary
	root := annotator.options.Root

	rootInformation, statError := annotator.fileSystem.Stat(root)
	if statError != nil {
		return summary, fmt.Errorf(errorRootFormat, root, statError)
	}
	if !rootInformation.IsDir() {
		return summary, fmt.Errorf(errorRootFormat, root, fmt.Errorf(errorRootNotDirectoryFormat, walker.ErrNotDirectory, root))
	}

	fmt.Fprintf(annotator.output, startingMessageFormat, root)
	visited := map[string]struct{}{}
	for filePath, walkError := range annotator.walker.Files(root, annotator.options.IgnoredDirectories) {
		if walkError != nil {
			annotator.logger.Error(directoryFailureLogMessage, zap.String(utils.LogFieldRoot, root), zap.Error(walkError))
			summary.Failures = append(summary.Failures, Failure{Err: walkError, IsDirectory: true})
			continue
		}
		if !annotator.IsEligible(filePath) {
			continue
		}
		annotator.processAndReport(filePath, &summary, visited)
	}

	annotator.processSelf(&summary, visited)
	annotator.reportSummary(summary)
	return summary, nil
}

func (annotator *Annotator) processSelf(summary *Summary, visited map[string]struct{}) {
	selfPath := annotator.options.SelfPath
	if selfPath == "" {
		annotator.logger.Debug(selfFileSkippedLogMessage, zap.String(selfFileSkippedReasonField, selfFileMissingReason))
		return
	}
	if !utils.IsWithin(selfPath, annotator.options.Root) {
		annotator.logger.Info(selfFileSkippedLogMessage, zap.String(utils.LogFieldPath, selfPath), zap.String(selfFileSkippedReasonField, selfFileOutsideRootReason))
		return
	}
	if !annotator.IsEligible(selfPath) {
		annotator.logger.Info(selfFileSkippedLogMessage, zap.String(utils.LogFieldPath, selfPath), zap.String(selfFileSkippedReasonField, selfFileNotEligibleReason))
		return
	}
	fmt.Fprint(annotator.output, selfHeaderMessage)
	annotator.processAndReport(selfPath, summary, visited)
}

func (annotator *Annotator) processAndReport(filePath string, summary *Summary, visited map[string]struct{}) {
	result, processError := annotator.ProcessFile(filePath)
	if processError != nil {
		annotator.logger.Error(fileFailureLogMessage, zap.String(utils.LogFieldPath, filePath), zap.Error(processError))
		summary.Failures = append(summary.Failures, Failure{Path: filePath, Err: processError})
		return
	}
	summary.Results = append(summary.Results, result)
	if _, seen := visited[filePath]; !seen {
		visited[filePath] = struct{}{}
		summary.Processed++
	}
	if result.Outcome.Changed() {
		summary.Modified++
	}
	annotator.reportResult(result)
}

func (annotator *Annotator) reportResult(result Result) {
	messageFormat := insertedMessageFormat
	switch result.Outcome {
	case OutcomeAlreadyCorrect:
		messageFormat = skippedMessageFormat
	case OutcomeAddedToEmpty:
		messageFormat = addedToEmptyMessageFormat
	case OutcomeUpdatedMarker:
		messageFormat = updatedMessageFormat
	case OutcomeInsertedBeforeBlock:
		messageFormat = insertedBeforeMessageFormat
	}
	fmt.Fprintf(annotator.output, messageFormat, result.RelativePath)
}

func (annotator *Annotator) reportSummary(summary Summary) {
	if summary.Processed == 0 {
		fmt.Fprint(annotator.output, noFilesMessage)
	} else {
		fmt.Fprintf(annotator.output, finishedMessageFormat, summary.Processed)
	}
	fileFailures, directoryFailures := 0, 0
	for _, failure := range summary.Failures {
		if failure.IsDirectory {
			directoryFailures++
		} else {
			fileFailures++
		}
	}
	if fileFailures > 0 {
		fmt.Fprintf(annotator.output, failedMessageFormat, fileFailures)
	}
	if directoryFailures > 0 {
		fmt.Fprintf(annotator.output, failedDirectoriesFormat, directoryFailures)
	}
}
