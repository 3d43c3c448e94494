// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound    = errors.New("email template not found")
	ErrDuplicateTrackingID = errors.New("tracking id already exists")
	ErrInvalidCampaign     = errors.New("invalid campaign")
)

// ErrCampaignNotFound is returned when a campaign id has no row
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

func IsNotFound(err error) bool {
	var nf *ErrCampaignNotFound
	return errors.As(err, &nf)
}

// ValidationError names the form field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCampaign
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
