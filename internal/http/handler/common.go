package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/service"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/plmware/forecast-api/internal/upstream"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errs[fieldName] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("Must not be below %s", toJSONFieldName(fe.Param()))
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (snake_case)
func toJSONFieldName(field string) string {
	if field == "" {
		return field
	}
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// respondServiceError maps service and upstream errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var ue *upstream.Error
	if errors.As(err, &ue) {
		// Pass the upstream status through for client errors; anything
		// else is a gateway failure from the caller's point of view
		status := http.StatusBadGateway
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			status = ue.StatusCode
		}
		respondWithError(w, status, ue.Message)
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized) || errors.Is(err, session.ErrExpiredToken):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPermissionDenied) || errors.Is(err, service.ErrEditingFrozen):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, service.ErrOPForecastExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidProjectNumber),
		errors.Is(err, service.ErrInvalidOPID),
		errors.Is(err, service.ErrProjectNumberRequired),
		errors.Is(err, service.ErrNoPositiveAmounts),
		errors.Is(err, service.ErrUnsupportedFile):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusBadGateway:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}

// queryInt reads an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryYear reads the fiscal year parameter, defaulting to the current one
func queryYear(r *http.Request) int {
	return queryInt(r, "year", domain.CurrentFiscalYear(time.Now()))
}

// querySelection builds a filter selection from query parameters. Only
// known dimensions are read; absent ones default to "all" inside the
// engine.
func querySelection(r *http.Request) domain.Selection {
	dims := []domain.Dimension{
		domain.DimYear, domain.DimForecastType, domain.DimRegion,
		domain.DimSourceCountry, domain.DimStatus, domain.DimVertical,
		domain.DimCurrency, domain.DimDisplayCurrency,
		domain.DimCustomerGroup, domain.DimCustomerName,
		domain.DimCluster, domain.DimManager,
	}

	sel := domain.Selection{}
	for _, dim := range dims {
		if v := r.URL.Query().Get(string(dim)); v != "" {
			sel[dim] = v
		}
	}
	return sel
}
