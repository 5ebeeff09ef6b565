// Package cli provides the command line interfaces of addpathcomment and pathtree.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pathmark/internal/annotate"
	"github.com/temirov/pathmark/internal/config"
	"github.com/temirov/pathmark/internal/services/clipboard"
	"github.com/temirov/pathmark/internal/tree"
	"github.com/temirov/pathmark/internal/utils"
)

const (
	rootFlagName           = "root"
	projectNameFlagName    = "project-name"
	outputFlagName         = "output"
	clipboardFlagName      = "clipboard"
	stdoutFlagName         = "stdout"
	configFlagName         = "config"
	versionFlagName        = "version"
	rootFlagDescription    = "project root (default: two levels above the executable)"
	projectNameDescription = "expected basename of the project root; empty disables the check"
	outputFlagDescription  = "tree output file, relative to the project root"
	clipboardDescription   = "copy the rendered tree to the system clipboard"
	stdoutFlagDescription  = "also print the rendered tree to standard output"
	configFlagDescription  = "configuration file (YAML, TOML or JSON)"
	versionFlagDescription = "display application version"
	versionTemplate        = "%s version: %s\n"

	annotatorUse              = "addpathcomment"
	annotatorShortDescription = "add path markers to Python files"
	annotatorLongDescription  = `addpathcomment walks the project root and makes sure the first line of every
Python file is the marker """Path: <relative path>.""".
Files that already carry the correct marker are left untouched; outdated markers are
replaced and missing markers are inserted. Rewrites are atomic.
The tool's own source file is annotated last only when it is a Python file inside the
root. A Go build's main.go never is, so the run logs that self-annotation was skipped.`
	annotatorUsageExample = `  # Annotate the project containing the installed tool
  addpathcomment

  # Annotate an explicit root with any basename
  addpathcomment --root ~/src/service --project-name ""`

	treeUse              = "pathtree"
	treeShortDescription = "write the project file tree"
	treeLongDescription  = `pathtree walks the project root and writes an ASCII tree of its directories
and files to file_path_tree.txt in the root, overwriting the previous tree.`
	treeUsageExample = `  # Write the tree and copy it to the clipboard
  pathtree --clipboard

  # Print the tree as well
  pathtree --stdout`

	treeWriteFailedMessage = "failed to write path tree"
	rootResolvedLogMessage = "resolved project root"
	rootDerivedLogField    = "derived"
)

// Environment carries the collaborators shared by both commands.
type Environment struct {
	FileSystem afero.Fs
	Logger     *zap.Logger
	Output     io.Writer
	Copier     clipboard.Copier
	// ExecutablePath locates the running binary; the default project root is derived from it.
	ExecutablePath func() (string, error)
	// SelfPath is the annotator's own source file, annotated last.
	SelfPath string
}

func (environment Environment) withDefaults() Environment {
	if environment.FileSystem == nil {
		environment.FileSystem = afero.NewOsFs()
	}
	if environment.Logger == nil {
		environment.Logger = zap.NewNop()
	}
	if environment.Output == nil {
		environment.Output = os.Stdout
	}
	if environment.Copier == nil {
		environment.Copier = clipboard.NewService()
	}
	if environment.ExecutablePath == nil {
		environment.ExecutablePath = config.ExecutablePath
	}
	return environment
}

// commonOptions holds the flags registered on both commands that are not read through viper.
type commonOptions struct {
	configFilePath string
	showVersion    bool
}

// addCommonFlags registers the root, project name, config and version flags.
func addCommonFlags(command *cobra.Command, options *commonOptions) {
	command.Flags().String(rootFlagName, utils.EmptyString, rootFlagDescription)
	command.Flags().String(projectNameFlagName, config.DefaultProjectName, projectNameDescription)
	command.Flags().StringVar(&options.configFilePath, configFlagName, utils.EmptyString, configFlagDescription)
	command.Flags().BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)
}

// ExecuteAnnotator runs addpathcomment with the process arguments.
func ExecuteAnnotator(logger *zap.Logger, selfPath string) error {
	command := NewAnnotatorCommand(Environment{Logger: logger, SelfPath: selfPath})
	return command.Execute()
}

// ExecuteTree runs pathtree with the process arguments.
func ExecuteTree(logger *zap.Logger) error {
	command := NewTreeCommand(Environment{Logger: logger})
	command.SetArgs(normalizeToggleArguments(command.Flags(), os.Args[1:]))
	return command.Execute()
}

// NewAnnotatorCommand builds the addpathcomment command.
func NewAnnotatorCommand(environment Environment) *cobra.Command {
	environment = environment.withDefaults()
	var options commonOptions

	annotatorCommand := &cobra.Command{
		Use:          annotatorUse,
		Short:        annotatorShortDescription,
		Long:         annotatorLongDescription,
		Example:      annotatorUsageExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, annotatorUse, utils.GetApplicationVersion())
				return nil
			}
			_, projectRoot, resolveError := resolveProjectRoot(command, environment, options)
			if resolveError != nil {
				return resolveError
			}

			annotatorOptions := annotate.DefaultOptions(projectRoot.Path)
			annotatorOptions.SelfPath = environment.SelfPath
			annotator := annotate.NewAnnotator(environment.FileSystem, environment.Logger, command.OutOrStdout(), annotatorOptions)
			_, runError := annotator.Run()
			return runError
		},
	}
	annotatorCommand.SetOut(environment.Output)
	addCommonFlags(annotatorCommand, &options)
	return annotatorCommand
}

// NewTreeCommand builds the pathtree command.
func NewTreeCommand(environment Environment) *cobra.Command {
	environment = environment.withDefaults()
	var options commonOptions
	var copyToClipboard bool
	var printTree bool

	treeCommand := &cobra.Command{
		Use:          treeUse,
		Short:        treeShortDescription,
		Long:         treeLongDescription,
		Example:      treeUsageExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, treeUse, utils.GetApplicationVersion())
				return nil
			}
			toolConfiguration, projectRoot, resolveError := resolveProjectRoot(command, environment, options)
			if resolveError != nil {
				return resolveError
			}

			outputPath := toolConfiguration.Output
			if !filepath.IsAbs(outputPath) {
				outputPath = filepath.Join(projectRoot.Path, outputPath)
			}
			rendererOptions := tree.DefaultOptions(projectRoot.Path, outputPath)
			rendererOptions.KeptNames[filepath.Base(outputPath)] = struct{}{}
			rendererOptions.CopyToClipboard = copyToClipboard
			rendererOptions.PrintTree = printTree
			renderer := tree.NewRenderer(environment.FileSystem, environment.Logger, command.OutOrStdout(), environment.Copier, rendererOptions)
			if _, renderError := renderer.Render(); renderError != nil {
				environment.Logger.Error(treeWriteFailedMessage, zap.String(utils.LogFieldPath, outputPath), zap.Error(renderError))
			}
			return nil
		},
	}
	treeCommand.SetOut(environment.Output)
	addCommonFlags(treeCommand, &options)
	treeCommand.Flags().String(outputFlagName, utils.TreeOutputFileName, outputFlagDescription)
	registerToggleFlag(treeCommand.Flags(), &copyToClipboard, clipboardFlagName, clipboardDescription)
	registerToggleFlag(treeCommand.Flags(), &printTree, stdoutFlagName, stdoutFlagDescription)
	return treeCommand
}

// resolveProjectRoot loads the configuration of command and returns the validated project root.
func resolveProjectRoot(command *cobra.Command, environment Environment, options commonOptions) (config.ToolConfiguration, config.ProjectRoot, error) {
	toolConfiguration, loadError := config.LoadToolConfiguration(config.LoadOptions{
		Flags:            command.Flags(),
		ExplicitFilePath: options.configFilePath,
	})
	if loadError != nil {
		return config.ToolConfiguration{}, config.ProjectRoot{}, loadError
	}

	var executablePath string
	if toolConfiguration.Root == utils.EmptyString {
		locatedPath, locateError := environment.ExecutablePath()
		if locateError != nil {
			return config.ToolConfiguration{}, config.ProjectRoot{}, locateError
		}
		executablePath = locatedPath
	}
	projectRoot, resolveError := config.ResolveProjectRoot(toolConfiguration, executablePath)
	if resolveError != nil {
		return config.ToolConfiguration{}, config.ProjectRoot{}, resolveError
	}
	if validationError := config.ValidateProjectRoot(environment.FileSystem, projectRoot, toolConfiguration.ProjectName); validationError != nil {
		return config.ToolConfiguration{}, config.ProjectRoot{}, validationError
	}
	environment.Logger.Debug(rootResolvedLogMessage, zap.String(utils.LogFieldRoot, projectRoot.Path), zap.Bool(rootDerivedLogField, projectRoot.Derived))
	return toolConfiguration, projectRoot, nil
}
