package external

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/repositories"
)

// GeminiOutfitService は Gemini API（APIキー認証）で画像を生成する
type GeminiOutfitService struct {
	pool repositories.GenAIClientPool
}

func NewGeminiOutfitService(pool repositories.GenAIClientPool) repositories.OutfitAIService {
	return &GeminiOutfitService{
		pool: pool,
	}
}

func (s *GeminiOutfitService) GenerateOutfit(ctx context.Context, request *entities.OutfitRequest) (*entities.GenerationResponse, error) {
	client, err := s.pool.GetGenAIClient(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("GenerateOutfit", "backend", "gemini", "model", request.Model(), "style", request.Style())

	image := request.Image()
	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				MIMEType: image.MimeType(),
				Data:     image.Data(),
			},
		},
		genai.NewPartFromText(request.Prompt()),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	// 画像モデルは複数候補やMediaResolutionの指定を受け付けない
	result, err := client.Models.GenerateContent(ctx, request.Model(), contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	response := convertGenAIResponse(result)

	slog.Info("Gemini API response",
		"style", request.Style(),
		"candidatesCount", len(response.Candidates),
		"finishReason", response.FinishReason(),
		"blockReason", response.BlockReason)

	return response, nil
}

// クライアントはプール側で解放する
func (s *GeminiOutfitService) Close() error {
	return nil
}

func convertGenAIResponse(result *genai.GenerateContentResponse) *entities.GenerationResponse {
	response := &entities.GenerationResponse{}
	if result == nil {
		return response
	}

	if result.PromptFeedback != nil {
		response.BlockReason = string(result.PromptFeedback.BlockReason)
	}

	for _, candidate := range result.Candidates {
		if candidate == nil {
			continue
		}

		converted := entities.Candidate{
			FinishReason: string(candidate.FinishReason),
		}

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}

				p := entities.Part{Text: part.Text}
				if part.InlineData != nil {
					p.MimeType = part.InlineData.MIMEType
					p.Data = part.InlineData.Data
				}
				converted.Parts = append(converted.Parts, p)
			}
		}

		response.Candidates = append(response.Candidates, converted)
	}

	return response
}
