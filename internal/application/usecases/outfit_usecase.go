package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/repositories"
	"outfit-studio/internal/domain/services"
	"outfit-studio/internal/domain/valueobjects"
)

// generationGrace は生成タイムアウト後の最終書き込みにかかる猶予
const generationGrace = 30 * time.Second

type OutfitUseCase struct {
	sessionRepo   repositories.SessionRepository
	domainService *services.OutfitDomainService
	timeout       time.Duration
}

func NewOutfitUseCase(
	sessionRepo repositories.SessionRepository,
	domainService *services.OutfitDomainService,
	timeout time.Duration,
) *OutfitUseCase {
	return &OutfitUseCase{
		sessionRepo:   sessionRepo,
		domainService: domainService,
		timeout:       timeout,
	}
}

type UploadInput struct {
	Data     []byte
	MimeType string
	FileName string
}

func (uc *OutfitUseCase) CreateSession(ctx context.Context) (*entities.Session, error) {
	session := entities.NewSession()
	if err := uc.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session.Clone(), nil
}

// GetSession also fails a generation left running by a request that never
// finished, so the page stops showing skeletons.
func (uc *OutfitUseCase) GetSession(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	session, err := uc.sessionRepo.FindByID(ctx, id)
	if err != nil || !session.GenerationExpired(uc.staleAfter(), time.Now()) {
		return session, err
	}

	return uc.sessionRepo.Update(ctx, id, func(s *entities.Session) error {
		uc.expireGeneration(s)
		return nil
	})
}

// Upload replaces the session's item. When the bytes cannot be decoded the
// session is left without an item and the read error is surfaced.
func (uc *OutfitUseCase) Upload(ctx context.Context, id entities.SessionID, input UploadInput) (*entities.Session, error) {
	image, decodeErr := valueobjects.NewImageData(input.Data, input.MimeType)

	session, err := uc.sessionRepo.Update(ctx, id, func(s *entities.Session) error {
		if decodeErr != nil {
			s.FailUpload()
			return nil
		}
		return s.Upload(image, input.FileName)
	})
	if err != nil {
		return session, fmt.Errorf("failed to upload image: %w", err)
	}

	if decodeErr != nil {
		slog.Warn("Upload rejected", "session", id, "fileName", input.FileName, "error", decodeErr)
		return session, fmt.Errorf("invalid image: %w", decodeErr)
	}

	slog.Info("Upload accepted", "session", id, "fileName", input.FileName, "mimeType", image.MimeType(), "size", len(image.Data()))
	return session, nil
}

// GenerateOutfits requests the initial batch in parallel and applies it only
// when every style succeeded.
func (uc *OutfitUseCase) GenerateOutfits(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	var ticket *entities.GenerationTicket
	session, err := uc.sessionRepo.Update(ctx, id, func(s *entities.Session) error {
		uc.expireGeneration(s)

		var err error
		ticket, err = s.BeginGenerate()
		return err
	})
	if err != nil {
		return session, err
	}

	genCtx, cancel := uc.generationContext(ctx)
	defer cancel()

	start := time.Now()
	outfits, genErr := uc.generateBatch(genCtx, ticket)

	session, err = uc.sessionRepo.Update(context.WithoutCancel(ctx), id, func(s *entities.Session) error {
		if genErr != nil {
			return s.FailGenerate(ticket)
		}
		return s.CompleteGenerate(ticket, outfits)
	})
	if err != nil {
		if errors.Is(err, entities.ErrStaleGeneration) {
			slog.Info("Discarding stale outfit batch", "session", id, "generation", ticket.Generation)
		}
		return session, err
	}

	if genErr != nil {
		slog.Error("Outfit generation failed", "session", id, "error", genErr, "elapsed", time.Since(start))
		return session, fmt.Errorf("outfit generation failed: %w", genErr)
	}

	slog.Info("Outfits generated", "session", id, "count", len(outfits), "elapsed", time.Since(start))
	return session, nil
}

// GenerateMore requests the next catalog style not generated yet. It is a
// no-op once the catalog is exhausted.
func (uc *OutfitUseCase) GenerateMore(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	var ticket *entities.GenerationTicket
	session, err := uc.sessionRepo.Update(ctx, id, func(s *entities.Session) error {
		uc.expireGeneration(s)

		var err error
		ticket, err = s.BeginGenerateMore()
		return err
	})
	if errors.Is(err, entities.ErrCatalogExhausted) {
		return session, nil
	}
	if err != nil {
		return session, err
	}

	style := ticket.Styles[0]

	genCtx, cancel := uc.generationContext(ctx)
	defer cancel()

	outfit, genErr := uc.domainService.GenerateOutfit(genCtx, ticket.Image, style)

	session, err = uc.sessionRepo.Update(context.WithoutCancel(ctx), id, func(s *entities.Session) error {
		if genErr != nil {
			return s.FailGenerateMore(ticket)
		}
		return s.CompleteGenerateMore(ticket, outfit)
	})
	if err != nil {
		if errors.Is(err, entities.ErrStaleGeneration) {
			slog.Info("Discarding stale outfit", "session", id, "style", style)
		}
		return session, err
	}

	if genErr != nil {
		slog.Error("Outfit generation failed", "session", id, "style", style, "error", genErr)
		return session, fmt.Errorf("outfit generation failed: %w", genErr)
	}

	slog.Info("Outfit generated", "session", id, "style", style)
	return session, nil
}

func (uc *OutfitUseCase) Reset(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	return uc.sessionRepo.Update(ctx, id, func(s *entities.Session) error {
		s.Reset()
		return nil
	})
}

func (uc *OutfitUseCase) Outfit(ctx context.Context, id entities.SessionID, index int) (*entities.Outfit, error) {
	session, err := uc.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Outfit(index)
}

func (uc *OutfitUseCase) generateBatch(ctx context.Context, ticket *entities.GenerationTicket) ([]*entities.Outfit, error) {
	outfits := make([]*entities.Outfit, len(ticket.Styles))

	// 全スタイルの完了を待つ（1件でも失敗したらバッチ全体を失敗とする）
	var g errgroup.Group
	for i, style := range ticket.Styles {
		g.Go(func() error {
			outfit, err := uc.domainService.GenerateOutfit(ctx, ticket.Image, style)
			if err != nil {
				slog.Warn("Style failed", "style", style, "error", err)
				return err
			}
			outfits[i] = outfit
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outfits, nil
}

func (uc *OutfitUseCase) staleAfter() time.Duration {
	if uc.timeout <= 0 {
		return 0
	}
	return uc.timeout + generationGrace
}

func (uc *OutfitUseCase) expireGeneration(s *entities.Session) {
	startedAt := s.GenerationStartedAt()
	if s.ExpireGeneration(uc.staleAfter(), time.Now()) {
		slog.Warn("Expired abandoned generation", "session", s.ID(), "startedAt", startedAt)
	}
}

// generationContext detaches from the caller's cancellation; only the
// configured timeout bounds a generation.
func (uc *OutfitUseCase) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if uc.timeout > 0 {
		return context.WithTimeout(ctx, uc.timeout)
	}
	return context.WithCancel(ctx)
}
