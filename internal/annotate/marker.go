// Package annotate keeps a "Path:" marker on the first line of project source files.
package annotate

import (
	"bytes"
	"strings"
	"unicode"
)

const (
	// MarkerDelimiter opens and closes every marker this package writes.
	MarkerDelimiter = `"""`
	// AlternateDelimiter is recognized as a block comment opener but never written.
	AlternateDelimiter = `'''`

	markerLabel      = "Path: "
	markerTerminator = "."
	lineTerminator   = "\n"
)

var blockCommentOpeners = []string{MarkerDelimiter, AlternateDelimiter}

// Outcome describes what annotating a file did.
type Outcome int

const (
	// OutcomeAddedToEmpty means the file was empty and now holds only the marker.
	OutcomeAddedToEmpty Outcome = iota + 1
	// OutcomeAlreadyCorrect means the first line already was the expected marker.
	OutcomeAlreadyCorrect
	// OutcomeUpdatedMarker means a stale marker on line one was replaced.
	OutcomeUpdatedMarker
	// OutcomeInsertedBeforeBlock means the marker was inserted above another block comment.
	OutcomeInsertedBeforeBlock
	// OutcomeInsertedWithoutComment means the marker was inserted above ordinary content.
	OutcomeInsertedWithoutComment
)

// String returns a short human description of the outcome.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeAddedToEmpty:
		return "added to empty file"
	case OutcomeAlreadyCorrect:
		return "already correct"
	case OutcomeUpdatedMarker:
		return "updated outdated marker"
	case OutcomeInsertedBeforeBlock:
		return "inserted before existing block comment"
	case OutcomeInsertedWithoutComment:
		return "inserted, no prior comment"
	default:
		return "unknown"
	}
}

// Changed reports whether the outcome implies new file content.
func (outcome Outcome) Changed() bool {
	return outcome != OutcomeAlreadyCorrect
}

// ExpectedMarker returns the marker line (without terminator) for a root-relative slash path.
func ExpectedMarker(relativePath string) string {
	return MarkerDelimiter + markerLabel + relativePath + markerTerminator + MarkerDelimiter
}

// IsMarker reports whether line has the marker shape in the written delimiter style.
// Lines using AlternateDelimiter are not markers.
func IsMarker(line string) bool {
	return strings.HasPrefix(line, MarkerDelimiter+markerLabel) &&
		strings.HasSuffix(line, markerTerminator+MarkerDelimiter)
}

// opensBlockComment reports whether line starts with any recognized triple-quote delimiter.
func opensBlockComment(line string) bool {
	for _, opener := range blockCommentOpeners {
		if strings.HasPrefix(line, opener) {
			return true
		}
	}
	return false
}

// Rewrite computes the content of a file after annotation. It performs no I/O.
// Only the first line may be inserted or replaced; every other byte is preserved.
func Rewrite(content []byte, relativePath string) ([]byte, Outcome) {
	expectedMarker := ExpectedMarker(relativePath)
	markerLine := expectedMarker + lineTerminator
	if len(content) == 0 {
		return []byte(markerLine), OutcomeAddedToEmpty
	}

	firstLine, remainder := splitFirstLine(content)
	comparableLine := strings.TrimRightFunc(string(firstLine), unicode.IsSpace)
	switch {
	case comparableLine == expectedMarker:
		return content, OutcomeAlreadyCorrect
	case IsMarker(comparableLine):
		return prepend(markerLine, remainder), OutcomeUpdatedMarker
	case opensBlockComment(comparableLine):
		return prepend(markerLine, content), OutcomeInsertedBeforeBlock
	default:
		return prepend(markerLine, content), OutcomeInsertedWithoutComment
	}
}

// splitFirstLine returns the first line including its terminator and everything after it.
func splitFirstLine(content []byte) ([]byte, []byte) {
	terminatorIndex := bytes.IndexByte(content, '\n')
	if terminatorIndex < 0 {
		return content, nil
	}
	return content[:terminatorIndex+1], content[terminatorIndex+1:]
}

func prepend(line string, content []byte) []byte {
	var buffer bytes.Buffer
	buffer.Grow(len(line) + len(content))
	buffer.WriteString(line)
	buffer.Write(content)
	return buffer.Bytes()
}
