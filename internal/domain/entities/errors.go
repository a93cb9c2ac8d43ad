package entities

import (
	"errors"
	"fmt"

	"outfit-studio/internal/domain/valueobjects"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrNoImage              = errors.New("no image uploaded")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrCatalogExhausted     = errors.New("all styles have been generated")
	ErrStaleGeneration      = errors.New("generation superseded by a newer upload or reset")
	ErrOutfitNotFound       = errors.New("outfit not found")

	ErrNoCandidates   = errors.New("no candidates in response")
	ErrNoImageData    = errors.New("no image data in response")
	ErrContentBlocked = errors.New("content blocked by provider")
	ErrQuotaExceeded  = errors.New("quota exceeded")
)

// User-facing messages shown in the error banner.
const (
	MsgReadFailed   = "Failed to read the image file. Please try again."
	MsgNoImage      = "Please upload an image first."
	MsgBulkFailed   = "Sorry, we couldn't generate outfits. The AI might be busy. Please try again later."
	msgStyleFailedF = "Sorry, we couldn't generate the '%s' outfit. Please try again."
)

func StyleFailedMessage(style valueobjects.Style) string {
	return fmt.Sprintf(msgStyleFailedF, style)
}

// GenerationError is a failed generation for one style.
type GenerationError struct {
	Style        valueobjects.Style
	FinishReason string
	Err          error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("generate '%s' outfit: %v", e.Style, e.Err)
	if e.FinishReason != "" {
		msg += fmt.Sprintf(" (finish reason: %s)", e.FinishReason)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
