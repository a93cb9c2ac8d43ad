package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/valueobjects"
)

type mockAIService struct {
	response *entities.GenerationResponse
	err      error
	requests []*entities.OutfitRequest
}

func (m *mockAIService) GenerateOutfit(ctx context.Context, request *entities.OutfitRequest) (*entities.GenerationResponse, error) {
	m.requests = append(m.requests, request)
	return m.response, m.err
}

func (m *mockAIService) Close() error {
	return nil
}

func imageResponse(mimeType string, data []byte) *entities.GenerationResponse {
	return &entities.GenerationResponse{
		Candidates: []entities.Candidate{
			{FinishReason: "STOP", Parts: []entities.Part{{MimeType: mimeType, Data: data}}},
		},
	}
}

func TestOutfitDomainService_GenerateOutfit(t *testing.T) {
	uploaded := createTestImageData(t)

	t.Run("successful generation", func(t *testing.T) {
		mockAI := &mockAIService{response: imageResponse("image/png", []byte("outfit"))}

		service := NewOutfitDomainService(mockAI, "")
		outfit, err := service.GenerateOutfit(context.Background(), uploaded, valueobjects.Business)

		if err != nil {
			t.Fatalf("GenerateOutfit() error = %v", err)
		}
		if outfit.Style() != valueobjects.Business {
			t.Errorf("Style() = %v, want Business", outfit.Style())
		}
		if string(outfit.Image().Data()) != "outfit" {
			t.Errorf("unexpected image bytes %q", outfit.Image().Data())
		}
		if len(mockAI.requests) != 1 {
			t.Fatalf("expected exactly one request, got %d", len(mockAI.requests))
		}
		request := mockAI.requests[0]
		if request.Model() != entities.DefaultOutfitModel {
			t.Errorf("Model() = %s, want default model", request.Model())
		}
		if !strings.Contains(request.Prompt(), "'Business' outfit") {
			t.Errorf("prompt does not name the style: %s", request.Prompt())
		}
		if request.Image() != uploaded {
			t.Errorf("request should carry the uploaded image")
		}
	})

	t.Run("AI service error", func(t *testing.T) {
		mockAI := &mockAIService{err: errors.New("AI service failed")}

		service := NewOutfitDomainService(mockAI, "custom-model")
		outfit, err := service.GenerateOutfit(context.Background(), uploaded, valueobjects.Casual)

		if err == nil {
			t.Fatalf("Expected error, got nil")
		}
		if outfit != nil {
			t.Errorf("Expected nil outfit on error")
		}
		var genErr *entities.GenerationError
		if !errors.As(err, &genErr) || genErr.Style != valueobjects.Casual {
			t.Errorf("expected GenerationError for Casual, got %v", err)
		}
		if mockAI.requests[0].Model() != "custom-model" {
			t.Errorf("configured model not used")
		}
	})

	t.Run("quota error handling", func(t *testing.T) {
		mockAI := &mockAIService{err: errors.New("Error 429, Status: RESOURCE_EXHAUSTED")}

		service := NewOutfitDomainService(mockAI, "")
		_, err := service.GenerateOutfit(context.Background(), uploaded, valueobjects.Casual)

		if !errors.Is(err, entities.ErrQuotaExceeded) {
			t.Errorf("Expected quota error, got %v", err)
		}
	})

	t.Run("blocked response carries finish reason", func(t *testing.T) {
		mockAI := &mockAIService{response: &entities.GenerationResponse{
			Candidates: []entities.Candidate{{FinishReason: "IMAGE_SAFETY"}},
		}}

		service := NewOutfitDomainService(mockAI, "")
		_, err := service.GenerateOutfit(context.Background(), uploaded, valueobjects.NightOut)

		var genErr *entities.GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("expected GenerationError, got %v", err)
		}
		if genErr.FinishReason != "IMAGE_SAFETY" {
			t.Errorf("FinishReason = %q, want IMAGE_SAFETY", genErr.FinishReason)
		}
		if !errors.Is(err, entities.ErrContentBlocked) {
			t.Errorf("expected ErrContentBlocked, got %v", err)
		}
	})

	t.Run("no image generated", func(t *testing.T) {
		mockAI := &mockAIService{response: &entities.GenerationResponse{
			Candidates: []entities.Candidate{{FinishReason: "STOP", Parts: []entities.Part{{Text: "sorry"}}}},
		}}

		service := NewOutfitDomainService(mockAI, "")
		outfit, err := service.GenerateOutfit(context.Background(), uploaded, valueobjects.Casual)

		if !errors.Is(err, entities.ErrNoImageData) {
			t.Errorf("Expected ErrNoImageData, got %v", err)
		}
		if outfit != nil {
			t.Errorf("Expected nil outfit when no image generated")
		}
	})

	t.Run("missing image fails before calling the service", func(t *testing.T) {
		mockAI := &mockAIService{}

		service := NewOutfitDomainService(mockAI, "")
		_, err := service.GenerateOutfit(context.Background(), nil, valueobjects.Casual)

		if err == nil {
			t.Errorf("Expected validation error")
		}
		if len(mockAI.requests) != 0 {
			t.Errorf("service should not be called on invalid request")
		}
	})
}

func createTestImageData(t *testing.T) *valueobjects.ImageData {
	imageData, err := valueobjects.RestoreImageData([]byte("uploaded-item"), "image/jpeg")
	if err != nil {
		t.Fatalf("Failed to create test image data: %v", err)
	}
	return imageData
}
