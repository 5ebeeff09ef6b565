package annotate_test

import (
	"testing"

	"github.com/temirov/pathmark/internal/annotate"
)

const modulePath = "src/package/module.py"

func TestExpectedMarker(t *testing.T) {
	expected := `"""Path: src/package/module.py."""`
	if actual := annotate.ExpectedMarker(modulePath); actual != expected {
		t.Fatalf("expected %s, got %s", expected, actual)
	}
}

func TestIsMarker(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected bool
	}{
		{name: "current marker", line: `"""Path: src/package/module.py."""`, expected: true},
		{name: "stale marker", line: `"""Path: wrong/path.py."""`, expected: true},
		{name: "alternate delimiter", line: `'''Path: wrong/path.py.'''`, expected: false},
		{name: "missing period", line: `"""Path: wrong/path.py"""`, expected: false},
		{name: "docstring", line: `"""A module."""`, expected: false},
		{name: "code", line: `import os`, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := annotate.IsMarker(testCase.line); actual != testCase.expected {
				t.Fatalf("IsMarker(%q): expected %t, got %t", testCase.line, testCase.expected, actual)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	const marker = `"""Path: src/package/module.py."""` + "\n"
	testCases := []struct {
		name            string
		content         string
		expectedContent string
		expectedOutcome annotate.Outcome
	}{
		{
			name:            "empty file",
			content:         "",
			expectedContent: marker,
			expectedOutcome: annotate.OutcomeAddedToEmpty,
		},
		{
			name:            "already correct",
			content:         marker + "import os\n",
			expectedContent: marker + "import os\n",
			expectedOutcome: annotate.OutcomeAlreadyCorrect,
		},
		{
			name:            "already correct with trailing whitespace",
			content:         `"""Path: src/package/module.py."""` + " \t\r\nimport os\n",
			expectedContent: `"""Path: src/package/module.py."""` + " \t\r\nimport os\n",
			expectedOutcome: annotate.OutcomeAlreadyCorrect,
		},
		{
			name:            "already correct without newline",
			content:         `"""Path: src/package/module.py."""`,
			expectedContent: `"""Path: src/package/module.py."""`,
			expectedOutcome: annotate.OutcomeAlreadyCorrect,
		},
		{
			name:            "outdated marker",
			content:         `"""Path: wrong/path.py."""` + "\nimport os\n\nprint(os.sep)\n",
			expectedContent: marker + "import os\n\nprint(os.sep)\n",
			expectedOutcome: annotate.OutcomeUpdatedMarker,
		},
		{
			name:            "outdated marker as only line",
			content:         `"""Path: wrong/path.py."""`,
			expectedContent: marker,
			expectedOutcome: annotate.OutcomeUpdatedMarker,
		},
		{
			name:            "foreign docstring",
			content:         `"""A module."""` + "\nimport os\n",
			expectedContent: marker + `"""A module."""` + "\nimport os\n",
			expectedOutcome: annotate.OutcomeInsertedBeforeBlock,
		},
		{
			name:            "single quote docstring",
			content:         "'''\nMultiline.\n'''\n",
			expectedContent: marker + "'''\nMultiline.\n'''\n",
			expectedOutcome: annotate.OutcomeInsertedBeforeBlock,
		},
		{
			name:            "alternate delimiter marker is not cross matched",
			content:         `'''Path: src/package/module.py.'''` + "\n",
			expectedContent: marker + `'''Path: src/package/module.py.'''` + "\n",
			expectedOutcome: annotate.OutcomeInsertedBeforeBlock,
		},
		{
			name:            "no comment",
			content:         "import os\n",
			expectedContent: marker + "import os\n",
			expectedOutcome: annotate.OutcomeInsertedWithoutComment,
		},
		{
			name:            "blank first line",
			content:         "\n\nx = 1\n",
			expectedContent: marker + "\n\nx = 1\n",
			expectedOutcome: annotate.OutcomeInsertedWithoutComment,
		},
		{
			name:            "crlf content preserved",
			content:         "import os\r\nimport sys\r\n",
			expectedContent: marker + "import os\r\nimport sys\r\n",
			expectedOutcome: annotate.OutcomeInsertedWithoutComment,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actualContent, actualOutcome := annotate.Rewrite([]byte(testCase.content), modulePath)
			if actualOutcome != testCase.expectedOutcome {
				t.Fatalf("expected outcome %v, got %v", testCase.expectedOutcome, actualOutcome)
			}
			if string(actualContent) != testCase.expectedContent {
				t.Fatalf("unexpected content:\n got %q\nwant %q", actualContent, testCase.expectedContent)
			}
		})
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	inputs := []string{"", "import os\n", `"""A module."""` + "\n", `"""Path: old.py."""` + "\nx = 1\n"}
	for _, input := range inputs {
		firstPass, _ := annotate.Rewrite([]byte(input), modulePath)
		secondPass, outcome := annotate.Rewrite(firstPass, modulePath)
		if outcome != annotate.OutcomeAlreadyCorrect {
			t.Fatalf("second pass over %q reported %v", input, outcome)
		}
		if string(secondPass) != string(firstPass) {
			t.Fatalf("second pass changed content of %q", input)
		}
	}
}

func TestOutcomeChanged(t *testing.T) {
	for _, outcome := range []annotate.Outcome{
		annotate.OutcomeAddedToEmpty,
		annotate.OutcomeUpdatedMarker,
		annotate.OutcomeInsertedBeforeBlock,
		annotate.OutcomeInsertedWithoutComment,
	} {
		if !outcome.Changed() {
			t.Fatalf("%v must report a change", outcome)
		}
	}
	if annotate.OutcomeAlreadyCorrect.Changed() {
		t.Fatalf("already correct must not report a change")
	}
}
