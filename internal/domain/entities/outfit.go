package entities

import (
	"fmt"
	"time"

	"outfit-studio/internal/domain/valueobjects"
)

type Outfit struct {
	style     valueobjects.Style
	image     *valueobjects.ImageData
	createdAt time.Time
}

func NewOutfit(style valueobjects.Style, image *valueobjects.ImageData) (*Outfit, error) {
	if style == "" {
		return nil, fmt.Errorf("style is required")
	}

	if image == nil {
		return nil, fmt.Errorf("image is required")
	}

	return &Outfit{
		style:     style,
		image:     image,
		createdAt: time.Now(),
	}, nil
}

func (o *Outfit) Style() valueobjects.Style {
	return o.style
}

func (o *Outfit) Image() *valueobjects.ImageData {
	return o.image
}

func (o *Outfit) CreatedAt() time.Time {
	return o.createdAt
}

// Src is the displayable data URI of the generated image.
func (o *Outfit) Src() string {
	return o.image.ToDataURI()
}

func (o *Outfit) FileName() string {
	return fmt.Sprintf("outfit-%s.%s", o.style.Slug(), o.image.Extension())
}
