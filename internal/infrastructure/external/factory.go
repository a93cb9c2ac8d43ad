package external

import (
	"fmt"

	"outfit-studio/internal/domain/repositories"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// NewOutfitAIService selects the generator for backend.
func NewOutfitAIService(backend string, pool repositories.ClientPoolService) (repositories.OutfitAIService, error) {
	switch backend {
	case BackendGemini:
		return NewGeminiOutfitService(pool.GenAIPool()), nil
	case BackendVertex:
		return NewVertexOutfitService(pool.VertexAIPool()), nil
	default:
		return nil, fmt.Errorf("unknown AI backend %q", backend)
	}
}
