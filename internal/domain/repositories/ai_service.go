package repositories

import (
	"context"

	"outfit-studio/internal/domain/entities"
)

// 生成AIサービス（Gemini API / Vertex AI）
type OutfitAIService interface {
	GenerateOutfit(ctx context.Context, request *entities.OutfitRequest) (*entities.GenerationResponse, error)

	Close() error
}
