package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/vertexai/genai"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/repositories"
)

// VertexOutfitService は Vertex AI（ADC認証）経由で画像を生成する
type VertexOutfitService struct {
	pool repositories.VertexAIClientPool
}

func NewVertexOutfitService(pool repositories.VertexAIClientPool) repositories.OutfitAIService {
	return &VertexOutfitService{
		pool: pool,
	}
}

func (s *VertexOutfitService) GenerateOutfit(ctx context.Context, request *entities.OutfitRequest) (*entities.GenerationResponse, error) {
	client, err := s.pool.GetVertexAIClient(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("GenerateOutfit", "backend", "vertex", "model", request.Model(), "style", request.Style())

	model := client.GenerativeModel(request.Model())
	model.SetCandidateCount(1)

	image := request.Image()
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: image.MimeType(), Data: image.Data()},
		genai.Text(request.Prompt()),
	)
	if err != nil {
		// ブロック時はSDKがエラーを返すのでレスポンスとして扱う
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return convertBlockedError(blocked), nil
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	response := convertVertexResponse(resp)

	slog.Info("Vertex AI response",
		"style", request.Style(),
		"candidatesCount", len(response.Candidates),
		"finishReason", response.FinishReason())

	return response, nil
}

func (s *VertexOutfitService) Close() error {
	return nil
}

func convertBlockedError(blocked *genai.BlockedError) *entities.GenerationResponse {
	response := &entities.GenerationResponse{}

	if blocked.PromptFeedback != nil {
		response.BlockReason = vertexBlockReason(blocked.PromptFeedback.BlockReason)
	}
	if blocked.Candidate != nil {
		response.Candidates = append(response.Candidates, convertVertexCandidate(blocked.Candidate))
	}
	if response.BlockReason == "" && len(response.Candidates) == 0 {
		response.BlockReason = "BLOCKED_REASON_UNSPECIFIED"
	}

	return response
}

func convertVertexResponse(resp *genai.GenerateContentResponse) *entities.GenerationResponse {
	response := &entities.GenerationResponse{}
	if resp == nil {
		return response
	}

	if resp.PromptFeedback != nil {
		response.BlockReason = vertexBlockReason(resp.PromptFeedback.BlockReason)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		response.Candidates = append(response.Candidates, convertVertexCandidate(candidate))
	}

	return response
}

func convertVertexCandidate(candidate *genai.Candidate) entities.Candidate {
	converted := entities.Candidate{
		FinishReason: vertexFinishReason(candidate.FinishReason),
	}

	if candidate.Content == nil {
		return converted
	}

	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			converted.Parts = append(converted.Parts, entities.Part{MimeType: p.MIMEType, Data: p.Data})
		case genai.Text:
			converted.Parts = append(converted.Parts, entities.Part{Text: string(p)})
		}
	}

	return converted
}

// Gemini APIと同じ表記にそろえる
func vertexFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonUnspecified:
		return ""
	case genai.FinishReasonStop:
		return "STOP"
	case genai.FinishReasonMaxTokens:
		return "MAX_TOKENS"
	case genai.FinishReasonSafety:
		return "SAFETY"
	case genai.FinishReasonRecitation:
		return "RECITATION"
	case genai.FinishReasonOther:
		return "OTHER"
	default:
		return fmt.Sprint(reason)
	}
}

func vertexBlockReason(reason genai.BlockedReason) string {
	switch reason {
	case genai.BlockedReasonUnspecified:
		return ""
	case genai.BlockedReasonSafety:
		return "SAFETY"
	case genai.BlockedReasonOther:
		return "OTHER"
	default:
		return fmt.Sprint(reason)
	}
}
