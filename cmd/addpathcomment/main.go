package main

import (
	"fmt"
	"runtime"

	"github.com/temirov/pathmark/internal/cli"
	"github.com/temirov/pathmark/internal/utils"
)

// main is the entry point for the addpathcomment command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.ExecuteAnnotator(loggerInstance, sourceFilePath()); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}

// sourceFilePath returns the path this file was compiled from, or an empty string when the
// build trimmed it.
func sourceFilePath() string {
	_, sourcePath, _, known := runtime.Caller(0)
	if !known {
		return utils.EmptyString
	}
	return sourcePath
}
