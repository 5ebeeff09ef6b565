package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// LoggerInitializationFailedMessageFormat is used when the zap logger cannot be constructed.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal errors reported by the entry points.
const ApplicationExecutionFailedMessage = "Error"

// Log field names shared by the annotator and the tree renderer.
const (
	LogFieldPath  = "path"
	LogFieldRoot  = "root"
	LogFieldError = "error"
)

// TreeOutputFileName is the basename of the rendered tree written to the project root.
const TreeOutputFileName = "file_path_tree.txt"
