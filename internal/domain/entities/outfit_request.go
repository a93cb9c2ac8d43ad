package entities

import (
	"fmt"

	"outfit-studio/internal/domain/valueobjects"
)

const DefaultOutfitModel = "gemini-2.5-flash-image"

// 画像生成リクエスト
type OutfitRequest struct {
	model  string
	style  valueobjects.Style
	prompt string
	image  *valueobjects.ImageData
}

func NewOutfitRequest(model string, style valueobjects.Style, image *valueobjects.ImageData) *OutfitRequest {
	if model == "" {
		model = DefaultOutfitModel
	}

	return &OutfitRequest{
		model:  model,
		style:  style,
		prompt: BuildOutfitPrompt(style),
		image:  image,
	}
}

func (r *OutfitRequest) Model() string {
	return r.model
}

func (r *OutfitRequest) Style() valueobjects.Style {
	return r.style
}

func (r *OutfitRequest) Prompt() string {
	return r.prompt
}

func (r *OutfitRequest) Image() *valueobjects.ImageData {
	return r.image
}

func BuildOutfitPrompt(style valueobjects.Style) string {
	return fmt.Sprintf(
		"Analyze the provided clothing item. Then, generate a complete '%s' outfit that includes the original item. "+
			"The generated image MUST be a clean, minimalist, photorealistic 'flat-lay' style presentation on a neutral off-white background. "+
			"The outfit must include perfectly matching complementary pieces like tops/bottoms, shoes, and one or two accessories. "+
			"The final image should only contain the clothing and accessory items for the flat-lay.",
		style,
	)
}
