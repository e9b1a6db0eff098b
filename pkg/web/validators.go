package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// Gte returns a ParamValidator that accepts values greater than or equal to min.
func Gte(min int64) ParamValidator {
	return newComparisonValidator(min, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// Lte returns a ParamValidator that accepts values less than or equal to max.
func Lte(max int64) ParamValidator {
	return newComparisonValidator(max, func(argValue, closedValue int64) bool {
		return argValue <= closedValue
	})
}

// ParseQueryInt reads an optional integer query parameter.
// An absent parameter yields def; a present one must satisfy every validator.
// On failure it writes a 400 response and returns false.
func ParseQueryInt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int64, validators ...ParamValidator) (int64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	for _, validate := range validators {
		if !validate(intValue) {
			RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
			return 0, false
		}
	}
	return intValue, true
}
