// Package service holds the data service's business rules: validation,
// ownership gating and error mapping over the repositories.
package service

import (
	"errors"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// asValidation converts a validation failure into the API error taxonomy.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return models.NewValidationError(fe.Error())
	}
	return models.NewValidationError(err.Error())
}

// notFound maps a missing row to a NOT_FOUND AppError and passes anything else through.
func notFound(err error, resource string, id any) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}
