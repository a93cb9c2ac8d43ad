package entities

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"outfit-studio/internal/domain/valueobjects"
)

type SessionID string

// GenerationTicket is handed out when a generation starts and must be
// presented again to apply its result. A ticket whose generation no longer
// matches the session is stale.
type GenerationTicket struct {
	Generation uint64
	Styles     []valueobjects.Style
	Offset     int
	Image      *valueobjects.ImageData
}

// Session holds the state of one user's page: the uploaded item, the
// generated outfits and the loading/error flags.
type Session struct {
	id             SessionID
	image          *valueobjects.ImageData
	fileName       string
	outfits        []*Outfit
	errorMessage   string
	loading        bool
	generatingMore bool
	generation     uint64
	startedAt      time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

func NewSession() *Session {
	now := time.Now()
	return &Session{
		id:        SessionID(uuid.NewString()),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) Image() *valueobjects.ImageData {
	return s.image
}

func (s *Session) HasImage() bool {
	return s.image != nil
}

func (s *Session) FileName() string {
	return s.fileName
}

func (s *Session) Outfits() []*Outfit {
	return slices.Clone(s.outfits)
}

func (s *Session) Outfit(index int) (*Outfit, error) {
	if index < 0 || index >= len(s.outfits) {
		return nil, fmt.Errorf("%w: index %d", ErrOutfitNotFound, index)
	}
	return s.outfits[index], nil
}

func (s *Session) ErrorMessage() string {
	return s.errorMessage
}

func (s *Session) IsLoading() bool {
	return s.loading
}

func (s *Session) IsGeneratingMore() bool {
	return s.generatingMore
}

func (s *Session) Generation() uint64 {
	return s.generation
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) UpdatedAt() time.Time {
	return s.updatedAt
}

// GenerationStartedAt is when the running bulk or single generation began.
func (s *Session) GenerationStartedAt() time.Time {
	return s.startedAt
}

// RemainingStyles lists catalog styles not yet generated, in catalog order.
func (s *Session) RemainingStyles() []valueobjects.Style {
	catalog := valueobjects.Catalog()
	if len(s.outfits) >= len(catalog) {
		return nil
	}
	return catalog[len(s.outfits):]
}

// GenerationExpired reports whether a generation flag has been held for
// longer than maxAge. A zero maxAge never expires.
func (s *Session) GenerationExpired(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 || (!s.loading && !s.generatingMore) {
		return false
	}
	return now.Sub(s.startedAt) > maxAge
}

// ExpireGeneration fails a generation whose request never came back, the
// same way a model error would. Late results become stale.
func (s *Session) ExpireGeneration(maxAge time.Duration, now time.Time) bool {
	if !s.GenerationExpired(maxAge, now) {
		return false
	}

	if s.loading {
		s.outfits = nil
		s.errorMessage = MsgBulkFailed
		s.loading = false
	}

	if s.generatingMore {
		if remaining := s.RemainingStyles(); len(remaining) > 0 {
			s.errorMessage = StyleFailedMessage(remaining[0])
		}
		s.generatingMore = false
	}

	s.generation++
	s.touch()
	return true
}

// Upload replaces the current item. Outfits and errors belonging to the
// previous item are dropped and in-flight generations become stale.
func (s *Session) Upload(image *valueobjects.ImageData, fileName string) error {
	if image == nil {
		return fmt.Errorf("image is required")
	}

	s.clear()
	s.image = image
	s.fileName = fileName
	return nil
}

// FailUpload leaves the session without an item and reports the read error.
func (s *Session) FailUpload() {
	s.clear()
	s.errorMessage = MsgReadFailed
}

func (s *Session) Reset() {
	s.clear()
}

func (s *Session) BeginGenerate() (*GenerationTicket, error) {
	if s.image == nil {
		s.errorMessage = MsgNoImage
		s.touch()
		return nil, ErrNoImage
	}

	if s.loading || s.generatingMore {
		return nil, ErrGenerationInProgress
	}

	s.generation++
	s.loading = true
	s.errorMessage = ""
	s.outfits = nil
	s.touch()
	s.startedAt = s.updatedAt

	return &GenerationTicket{
		Generation: s.generation,
		Styles:     valueobjects.InitialStyles(),
		Offset:     0,
		Image:      s.image,
	}, nil
}

// CompleteGenerate applies a full batch. Partial batches are rejected.
func (s *Session) CompleteGenerate(ticket *GenerationTicket, outfits []*Outfit) error {
	if !s.loading || !s.isCurrent(ticket) {
		return ErrStaleGeneration
	}

	if len(outfits) != len(ticket.Styles) {
		return fmt.Errorf("expected %d outfits, got %d", len(ticket.Styles), len(outfits))
	}

	for i, outfit := range outfits {
		if outfit == nil || outfit.Style() != ticket.Styles[i] {
			return fmt.Errorf("outfit %d does not match style %s", i, ticket.Styles[i])
		}
	}

	s.outfits = slices.Clone(outfits)
	s.loading = false
	s.touch()
	return nil
}

func (s *Session) FailGenerate(ticket *GenerationTicket) error {
	if !s.loading || !s.isCurrent(ticket) {
		return ErrStaleGeneration
	}

	s.outfits = nil
	s.errorMessage = MsgBulkFailed
	s.loading = false
	s.touch()
	return nil
}

func (s *Session) BeginGenerateMore() (*GenerationTicket, error) {
	if s.image == nil {
		return nil, ErrNoImage
	}

	if s.loading || s.generatingMore {
		return nil, ErrGenerationInProgress
	}

	remaining := s.RemainingStyles()
	if len(remaining) == 0 {
		return nil, ErrCatalogExhausted
	}
	next := len(s.outfits)
	style := remaining[0]

	s.generatingMore = true
	s.errorMessage = ""
	s.touch()
	s.startedAt = s.updatedAt

	return &GenerationTicket{
		Generation: s.generation,
		Styles:     []valueobjects.Style{style},
		Offset:     next,
		Image:      s.image,
	}, nil
}

func (s *Session) CompleteGenerateMore(ticket *GenerationTicket, outfit *Outfit) error {
	if !s.generatingMore || !s.isCurrent(ticket) || len(s.outfits) != ticket.Offset {
		return ErrStaleGeneration
	}

	if outfit == nil || len(ticket.Styles) != 1 || outfit.Style() != ticket.Styles[0] {
		return fmt.Errorf("outfit does not match requested style")
	}

	s.outfits = append(s.outfits, outfit)
	s.generatingMore = false
	s.touch()
	return nil
}

func (s *Session) FailGenerateMore(ticket *GenerationTicket) error {
	if !s.generatingMore || !s.isCurrent(ticket) || len(s.outfits) != ticket.Offset {
		return ErrStaleGeneration
	}

	if len(ticket.Styles) == 1 {
		s.errorMessage = StyleFailedMessage(ticket.Styles[0])
	}
	s.generatingMore = false
	s.touch()
	return nil
}

// Clone returns a copy that can be handed out without sharing the outfit slice.
func (s *Session) Clone() *Session {
	c := *s
	c.outfits = slices.Clone(s.outfits)
	return &c
}

func (s *Session) isCurrent(ticket *GenerationTicket) bool {
	return ticket != nil && ticket.Generation == s.generation
}

func (s *Session) clear() {
	s.generation++
	s.image = nil
	s.fileName = ""
	s.outfits = nil
	s.errorMessage = ""
	s.loading = false
	s.generatingMore = false
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
