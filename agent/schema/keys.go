package schema

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	KeyCalculation = "calculation"
	KeyFlag        = "flag"
	KeyNote        = "note"
	KeyTheme       = "theme"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	errEmptyValue   = errors.New("value is empty")
	errNotNumeric   = errors.New("value is not numeric")
	errNotBoolean   = errors.New("value is not a boolean")
	errNotSupported = errors.New("value is not supported")
	booleanSynonyms = map[string]string{
		"true": "true", "yes": "true", "y": "true", "on": "true", "1": "true",
		"false": "false", "no": "false", "n": "false", "off": "false", "0": "false",
	}
)

// Default is the registry the application ships with.
var Default = MustNewRegistry(
	Entry{
		Key:           KeyCalculation,
		Type:          TypeNumber,
		Description:   "Store calculation results or numeric values",
		BehaviorNotes: "Accept various number formats, validate they're numeric",
		Examples:      []string{"42", "3.14", "1000", "-5.7"},
		Default:       "0",
	},
	Entry{
		Key:             KeyFlag,
		Type:            TypeBoolean,
		Description:     "Store boolean flags",
		BehaviorNotes:   "Accept 'yes'/'no', 'on'/'off', '1'/'0' and convert to 'true'/'false'",
		Examples:        []string{"true", "false"},
		SupportedValues: []string{"true", "false"},
		Default:         "false",
	},
	Entry{
		Key:           KeyNote,
		Type:          TypeText,
		Description:   "Store text notes and messages",
		BehaviorNotes: "Accept any non-empty text, trim whitespace",
		Examples:      []string{"Meeting at 3pm", "Remember to check logs", "Project deadline Friday"},
		Default:       "",
	},
	Entry{
		Key:             KeyTheme,
		Type:            TypeEnum,
		Description:     "Store UI theme preference",
		BehaviorNotes:   "Case-insensitive, normalize to lowercase",
		Examples:        []string{ThemeLight, ThemeDark},
		SupportedValues: []string{ThemeLight, ThemeDark},
		Default:         ThemeLight,
	},
)

func normalizeNumber(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errEmptyValue
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errNotNumeric
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func normalizeBoolean(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", errEmptyValue
	}
	v, ok := booleanSynonyms[trimmed]
	if !ok {
		return "", errNotBoolean
	}
	return v, nil
}

func normalizeText(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errEmptyValue
	}
	return trimmed, nil
}

func normalizeEnum(allowed ...string) NormalizeFunc {
	return func(raw string) (string, error) {
		trimmed := strings.ToLower(strings.TrimSpace(raw))
		if trimmed == "" {
			return "", errEmptyValue
		}
		for _, v := range allowed {
			if trimmed == v {
				return v, nil
			}
		}
		return "", errNotSupported
	}
}
