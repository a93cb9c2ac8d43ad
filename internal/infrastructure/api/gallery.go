package api

import (
	"fmt"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/valueobjects"
	"outfit-studio/model"
)

const (
	EmptyMessageNoItem   = "Upload a photo to get started. Upload a clear photo of a single clothing item."
	EmptyMessageWithItem = "Your generated outfits will appear here."
)

func downloadURL(id entities.SessionID, index int) string {
	return fmt.Sprintf("/api/sessions/%s/outfits/%d/download", id, index)
}

func toOutfitModel(id entities.SessionID, index int, outfit *entities.Outfit) model.Outfit {
	return model.Outfit{
		Index:       index,
		Style:       outfit.Style().String(),
		Src:         outfit.Src(),
		FileName:    outfit.FileName(),
		DownloadURL: downloadURL(id, index),
	}
}

func toSessionModel(session *entities.Session) *model.Session {
	outfits := session.Outfits()
	result := &model.Session{
		ID:               string(session.ID()),
		HasImage:         session.HasImage(),
		FileName:         session.FileName(),
		Outfits:          make([]model.Outfit, 0, len(outfits)),
		ErrorMessage:     session.ErrorMessage(),
		IsLoading:        session.IsLoading(),
		IsGeneratingMore: session.IsGeneratingMore(),
		Generation:       session.Generation(),
		UpdatedAt:        session.UpdatedAt(),
	}

	if session.HasImage() {
		result.UploadedImage = session.Image().ToDataURI()
	}

	for i, outfit := range outfits {
		result.Outfits = append(result.Outfits, toOutfitModel(session.ID(), i, outfit))
	}

	return result
}

// BuildGallery derives what the page shows from the session state alone.
func BuildGallery(session *entities.Session) *model.Gallery {
	gallery := &model.Gallery{
		Cards:       []model.Card{},
		ErrorBanner: session.ErrorMessage(),
		CanGenerate: session.HasImage() && !session.IsLoading() && !session.IsGeneratingMore(),
	}

	// 一括生成中は既存カードを出さずスケルトンのみ
	if session.IsLoading() {
		for _, style := range valueobjects.InitialStyles() {
			gallery.Cards = append(gallery.Cards, model.Card{Kind: model.CardSkeleton, Style: style.String()})
		}
		return gallery
	}

	outfits := session.Outfits()
	for i, outfit := range outfits {
		m := toOutfitModel(session.ID(), i, outfit)
		gallery.Cards = append(gallery.Cards, model.Card{Kind: model.CardOutfit, Style: m.Style, Outfit: &m})
	}

	remaining := session.RemainingStyles()
	if session.IsGeneratingMore() && len(remaining) > 0 {
		gallery.Cards = append(gallery.Cards, model.Card{Kind: model.CardSkeleton, Style: remaining[0].String()})
	}

	gallery.ShowGenerateMore = len(outfits) > 0 && len(remaining) > 0

	if len(gallery.Cards) == 0 && gallery.ErrorBanner == "" {
		if session.HasImage() {
			gallery.EmptyMessage = EmptyMessageWithItem
		} else {
			gallery.EmptyMessage = EmptyMessageNoItem
		}
	}

	return gallery
}
