// Package config resolves the settings shared by the pathmark tools.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/temirov/pathmark/internal/utils"
)

const (
	// EnvironmentPrefix prefixes every environment variable read by the tools.
	EnvironmentPrefix = "PATHMARK"
	// DefaultProjectName is the basename the project root must carry unless overridden.
	DefaultProjectName = "python_project_template"

	// RootKey selects the project root. Empty means derive it from the executable location.
	RootKey = "root"
	// ProjectNameKey selects the expected basename of the project root.
	ProjectNameKey = "project_name"
	// OutputKey selects the tree output file name, relative to the project root.
	OutputKey = "output"

	environmentKeySeparator = "_"
	flagKeySeparator        = "-"
)

// ToolConfiguration holds the resolved settings of one invocation.
type ToolConfiguration struct {
	Root        string `mapstructure:"root"`
	ProjectName string `mapstructure:"project_name"`
	Output      string `mapstructure:"output"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Flags are bound by name: the flag for a key is the key with "_" replaced by "-".
	Flags *pflag.FlagSet
	// ExplicitFilePath names an optional YAML, TOML or JSON configuration file.
	ExplicitFilePath string
}

// LoadToolConfiguration merges defaults, the configuration file, PATHMARK_* environment
// variables and changed flags, in increasing order of precedence.
func LoadToolConfiguration(options LoadOptions) (ToolConfiguration, error) {
	reader := viper.New()
	reader.SetDefault(RootKey, utils.EmptyString)
	reader.SetDefault(ProjectNameKey, DefaultProjectName)
	reader.SetDefault(OutputKey, utils.TreeOutputFileName)
	reader.SetEnvPrefix(EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(flagKeySeparator, environmentKeySeparator))
	reader.AutomaticEnv()

	if options.Flags != nil {
		for _, key := range []string{RootKey, ProjectNameKey, OutputKey} {
			flag := options.Flags.Lookup(strings.ReplaceAll(key, environmentKeySeparator, flagKeySeparator))
			if flag == nil {
				continue
			}
			if bindError := reader.BindPFlag(key, flag); bindError != nil {
				return ToolConfiguration{}, fmt.Errorf("bind flag %s: %w", flag.Name, bindError)
			}
		}
	}

	if options.ExplicitFilePath != "" {
		fileInformation, statError := os.Stat(options.ExplicitFilePath)
		if statError != nil {
			return ToolConfiguration{}, fmt.Errorf("stat configuration %s: %w", options.ExplicitFilePath, statError)
		}
		if fileInformation.IsDir() {
			return ToolConfiguration{}, fmt.Errorf("configuration path %s is a directory", options.ExplicitFilePath)
		}
		reader.SetConfigFile(options.ExplicitFilePath)
		if readError := reader.ReadInConfig(); readError != nil {
			return ToolConfiguration{}, fmt.Errorf("read configuration from %s: %w", options.ExplicitFilePath, readError)
		}
	}

	var configuration ToolConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ToolConfiguration{}, fmt.Errorf("decode configuration: %w", decodeError)
	}
	configuration.Root = strings.TrimSpace(configuration.Root)
	configuration.ProjectName = strings.TrimSpace(configuration.ProjectName)
	configuration.Output = strings.TrimSpace(configuration.Output)
	if configuration.Output == "" {
		configuration.Output = utils.TreeOutputFileName
	}
	return configuration, nil
}
