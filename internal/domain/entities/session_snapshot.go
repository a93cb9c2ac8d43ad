package entities

import (
	"fmt"
	"time"

	"outfit-studio/internal/domain/valueobjects"
)

// SessionSnapshot is the exported form of a Session, used for presentation
// and by session stores that serialize state.
type SessionSnapshot struct {
	ID             SessionID        `json:"id"`
	Image          *ImageSnapshot   `json:"image,omitempty"`
	FileName       string           `json:"fileName,omitempty"`
	Outfits        []OutfitSnapshot `json:"outfits,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	Loading        bool             `json:"loading"`
	GeneratingMore bool             `json:"generatingMore"`
	Generation     uint64           `json:"generation"`
	StartedAt      time.Time        `json:"startedAt,omitzero"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type ImageSnapshot struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type OutfitSnapshot struct {
	Style     valueobjects.Style `json:"style"`
	Image     ImageSnapshot      `json:"image"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (s *Session) Snapshot() SessionSnapshot {
	snapshot := SessionSnapshot{
		ID:             s.id,
		FileName:       s.fileName,
		ErrorMessage:   s.errorMessage,
		Loading:        s.loading,
		GeneratingMore: s.generatingMore,
		Generation:     s.generation,
		StartedAt:      s.startedAt,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}

	if s.image != nil {
		snapshot.Image = &ImageSnapshot{
			MimeType: s.image.MimeType(),
			Data:     s.image.Data(),
		}
	}

	for _, outfit := range s.outfits {
		snapshot.Outfits = append(snapshot.Outfits, OutfitSnapshot{
			Style: outfit.Style(),
			Image: ImageSnapshot{
				MimeType: outfit.Image().MimeType(),
				Data:     outfit.Image().Data(),
			},
			CreatedAt: outfit.CreatedAt(),
		})
	}

	return snapshot
}

func RestoreSession(snapshot SessionSnapshot) (*Session, error) {
	if snapshot.ID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	s := &Session{
		id:             snapshot.ID,
		fileName:       snapshot.FileName,
		errorMessage:   snapshot.ErrorMessage,
		loading:        snapshot.Loading,
		generatingMore: snapshot.GeneratingMore,
		generation:     snapshot.Generation,
		startedAt:      snapshot.StartedAt,
		createdAt:      snapshot.CreatedAt,
		updatedAt:      snapshot.UpdatedAt,
	}

	if snapshot.Image != nil {
		image, err := valueobjects.RestoreImageData(snapshot.Image.Data, snapshot.Image.MimeType)
		if err != nil {
			return nil, fmt.Errorf("failed to restore uploaded image: %w", err)
		}
		s.image = image
	}

	for i, o := range snapshot.Outfits {
		expected, ok := valueobjects.StyleAt(i)
		if !ok || expected != o.Style {
			return nil, fmt.Errorf("outfit %d has style %q, expected catalog order", i, o.Style)
		}

		image, err := valueobjects.RestoreImageData(o.Image.Data, o.Image.MimeType)
		if err != nil {
			return nil, fmt.Errorf("failed to restore outfit %d: %w", i, err)
		}

		s.outfits = append(s.outfits, &Outfit{
			style:     o.Style,
			image:     image,
			createdAt: o.CreatedAt,
		})
	}

	return s, nil
}
