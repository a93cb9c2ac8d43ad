package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/repositories"
	"outfit-studio/internal/domain/valueobjects"
)

type OutfitDomainService struct {
	aiService repositories.OutfitAIService
	model     string
}

func NewOutfitDomainService(aiService repositories.OutfitAIService, model string) *OutfitDomainService {
	return &OutfitDomainService{
		aiService: aiService,
		model:     model,
	}
}

// GenerateOutfit makes exactly one request for style and validates the reply.
// Failures are returned as *entities.GenerationError.
func (s *OutfitDomainService) GenerateOutfit(
	ctx context.Context,
	image *valueobjects.ImageData,
	style valueobjects.Style,
) (*entities.Outfit, error) {
	request := entities.NewOutfitRequest(s.model, style, image)

	if err := s.validateRequest(request); err != nil {
		return nil, &entities.GenerationError{Style: style, Err: fmt.Errorf("request validation failed: %w", err)}
	}

	response, err := s.aiService.GenerateOutfit(ctx, request)
	if err != nil {
		if s.isQuotaError(err) && !errors.Is(err, entities.ErrQuotaExceeded) {
			err = fmt.Errorf("%w: %w", entities.ErrQuotaExceeded, err)
		}
		return nil, &entities.GenerationError{Style: style, Err: err}
	}

	part, err := response.FirstImage()
	if err != nil {
		slog.Warn("No usable image in response",
			"style", style,
			"finishReason", response.FinishReason(),
			"responseText", response.Text())
		return nil, &entities.GenerationError{
			Style:        style,
			FinishReason: response.FinishReason(),
			Err:          err,
		}
	}

	generated, err := valueobjects.RestoreImageData(part.Data, part.MimeType)
	if err != nil {
		return nil, &entities.GenerationError{Style: style, Err: fmt.Errorf("failed to create image data: %w", err)}
	}

	return entities.NewOutfit(style, generated)
}

func (s *OutfitDomainService) validateRequest(request *entities.OutfitRequest) error {
	if request.Image() == nil {
		return fmt.Errorf("image data is required")
	}

	if request.Style() == "" {
		return fmt.Errorf("style is required")
	}

	return nil
}

func (s *OutfitDomainService) isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "resourceexhausted") ||
		strings.Contains(errStr, "resource_exhausted")
}
