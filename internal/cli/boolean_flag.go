package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName        = "bool"
	toggleFlagTrueLiteral     = "true"
	toggleFlagAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	toggleFlagInvalidValueFmt = "invalid boolean value %q for --%s; accepted values: %s"
)

var toggleFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// toggleFlagValue is a boolean flag that also accepts yes/no and on/off spellings.
type toggleFlagValue struct {
	target   *bool
	flagName string
}

func (value *toggleFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = toggleFlagTrueLiteral
	}
	parsed, known := toggleFlagLiterals[normalized]
	if !known {
		return fmt.Errorf(toggleFlagInvalidValueFmt, input, value.flagName, toggleFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeName
}

// registerToggleFlag adds a flag that is false by default and true when given without a value.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	*target = false
	flagSet.Var(&toggleFlagValue{target: target, flagName: name}, name, usage)
	flagSet.Lookup(name).NoOptDefVal = toggleFlagTrueLiteral
}

// normalizeToggleArguments joins "--name value" into "--name=value" for toggle flags of
// flagSet when value is a boolean literal. pflag would otherwise treat the value as a
// positional argument.
func normalizeToggleArguments(flagSet *pflag.FlagSet, arguments []string) []string {
	toggleNames := map[string]struct{}{}
	flagSet.VisitAll(func(flag *pflag.Flag) {
		if flag.Value.Type() == toggleFlagTypeName {
			toggleNames[flag.Name] = struct{}{}
		}
	})

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		flagName, isLongFlag := strings.CutPrefix(currentArgument, "--")
		if isLongFlag && !strings.Contains(flagName, "=") && index+1 < len(arguments) {
			if _, isToggle := toggleNames[flagName]; isToggle {
				nextArgument := arguments[index+1]
				if _, isLiteral := toggleFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; isLiteral {
					normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, nextArgument))
					index++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}
