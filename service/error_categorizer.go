package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/irscn/domain"
)

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	patterns []categoryPatterns
}

type categoryPatterns struct {
	category domain.ErrorCategory
	patterns []string
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() *ErrorCategorizerImpl {
	return &ErrorCategorizerImpl{
		patterns: initializeErrorPatterns(),
	}
}

// initializeErrorPatterns lists message fragments per category, checked in
// order
func initializeErrorPatterns() []categoryPatterns {
	return []categoryPatterns{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"timed out",
			"deadline",
			"context canceled",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"configuration",
			"unknown interceptor",
			"traversal direction",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"no manifests found",
			"file not found",
			"cannot access",
			"permission denied",
			"no such file",
		}},
		{domain.ErrorCategoryOutput, []string{
			"write",
			"output",
			"cannot create",
			"unsupported format",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"parse",
			"manifest",
			"statement",
			"graph",
			"interceptor",
			"processing",
		}},
	}
}

// codeCategories maps domain error codes to categories
var codeCategories = map[string]domain.ErrorCategory{
	domain.ErrCodeInvalidInput:      domain.ErrorCategoryInput,
	domain.ErrCodeFileNotFound:      domain.ErrorCategoryInput,
	domain.ErrCodeParseError:        domain.ErrorCategoryProcessing,
	domain.ErrCodeProcessingError:   domain.ErrorCategoryProcessing,
	domain.ErrCodeGraphError:        domain.ErrorCategoryProcessing,
	domain.ErrCodeInterceptorError:  domain.ErrorCategoryProcessing,
	domain.ErrCodeConfigError:       domain.ErrorCategoryConfig,
	domain.ErrCodeOutputError:       domain.ErrorCategoryOutput,
	domain.ErrCodeUnsupportedFormat: domain.ErrorCategoryOutput,
}

// Categorize determines the category of an error. Timeouts win over the
// error code, the code over message patterns.
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	category := domain.ErrorCategoryUnknown
	errMsg := strings.ToLower(err.Error())
	code, hasCode := codeCategories[domain.ErrorCode(err)]
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		containsAnyPattern(errMsg, ec.patternsFor(domain.ErrorCategoryTimeout)):
		category = domain.ErrorCategoryTimeout
	case hasCode:
		category = code
	default:
		for _, cp := range ec.patterns {
			if containsAnyPattern(errMsg, cp.patterns) {
				category = cp.category
				break
			}
		}
	}

	message := err.Error()
	if category != domain.ErrorCategoryUnknown {
		message = ec.getCategoryMessage(category)
	}
	return &domain.CategorizedError{
		Category: category,
		Message:  message,
		Original: err,
	}
}

func (ec *ErrorCategorizerImpl) patternsFor(category domain.ErrorCategory) []string {
	for _, cp := range ec.patterns {
		if cp.category == category {
			return cp.patterns
		}
	}
	return nil
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the paths exist and contain .yaml, .yml, .toml or .json manifests",
			"Check --include and --exclude patterns",
			"Ensure you have read permissions for the target files",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: irscn init to generate a valid config file",
			"Interceptor names are nop-eliminator, unreachable-code-eliminator and ssa",
		},
		domain.ErrorCategoryTimeout: {
			"Process fewer manifests at once",
			"Raise performance.timeout_seconds in the configuration",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions and output format validity",
			"Use --format text, json, yaml or msgpack",
			"Try writing to a different location",
		},
		domain.ErrorCategoryProcessing: {
			"Run irscn check on the manifest to see graph violations",
			"Run with --verbose for interceptor and frontend details",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

// getCategoryMessage returns a user-friendly message for an error category
func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to read input manifests",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryTimeout:    "Processing timed out",
		domain.ErrorCategoryOutput:     "Failed to generate or write output",
		domain.ErrorCategoryProcessing: "Error while building or transforming a body",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
