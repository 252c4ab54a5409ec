// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package validation provides struct validation using go-playground/validator v10.
// It provides a thread-safe singleton validator instance with custom validators
// for the raw records received from external sources.
//
// Features:
//   - Singleton validator instance (thread-safe, caches struct info)
//   - Custom validators for IMDb identifiers and TMDB calendar dates
//   - Error translation to short, loggable messages
//   - Uses WithRequiredStructEnabled option (v11+ compatibility)
//
// Example usage:
//
//	type Movie struct {
//	    ID          int    `validate:"gt=0"`
//	    IMDbID      string `validate:"omitempty,imdbid"`
//	    ReleaseDate string `validate:"omitempty,tmdbdate"`
//	}
//
//	if err := validation.ValidateStruct(&movie); err != nil {
//	    logging.Warn().Strs("fields", err.Fields()).Msg("Skipping invalid record")
//	}
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var imdbIDPattern = regexp.MustCompile(`^tt\d{7,}$`)

// ValidationError represents a single field validation error with structured information.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "10" for "lte=10").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() interface{} {
	return e.value
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// RecordValidationError represents all validation failures of one record.
type RecordValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RecordValidationError) Errors() []ValidationError {
	return ve.errors
}

// Fields returns the names of the fields that failed, in declaration order.
func (ve *RecordValidationError) Fields() []string {
	fields := make([]string, len(ve.errors))
	for i := range ve.errors {
		fields[i] = ve.errors[i].field
	}
	return fields
}

// Error implements the error interface, returning a combined error message.
func (ve *RecordValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(ve.errors))
	for i := range ve.errors {
		messages[i] = ve.errors[i].Error()
	}

	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance.
// The validator is initialized once with custom validators and options.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails on an empty tag or nil func
		_ = validate.RegisterValidation("imdbid", validateIMDbID)
		_ = validate.RegisterValidation("tmdbdate", validateTMDBDate)
	})

	return validate
}

// validateIMDbID accepts identifiers of the form tt0114709.
func validateIMDbID(fl validator.FieldLevel) bool {
	return imdbIDPattern.MatchString(fl.Field().String())
}

// validateTMDBDate accepts calendar dates in YYYY-MM-DD form.
func validateTMDBDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RecordValidationError if validation fails.
func ValidateStruct(s interface{}) *RecordValidationError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// Unexpected error type - wrap it
		return &RecordValidationError{
			errors: []ValidationError{
				{
					field:   "unknown",
					tag:     "unknown",
					message: err.Error(),
				},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &RecordValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"imdbid":   "%s must be an IMDb id like tt0114709",
	"tmdbdate": "%s must be a date in YYYY-MM-DD format",
	"url":      "%s must be a valid URL",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind().String() == "string"

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
