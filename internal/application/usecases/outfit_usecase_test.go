package usecases

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfit-studio/internal/domain/entities"
	"outfit-studio/internal/domain/services"
	"outfit-studio/internal/domain/valueobjects"
	infrarepos "outfit-studio/internal/infrastructure/repositories"
)

// fakeAIService は style ごとに失敗・待機を切り替えられる
type fakeAIService struct {
	mu      sync.Mutex
	failing map[valueobjects.Style]bool
	block   chan struct{}
	calls   []valueobjects.Style
}

func (f *fakeAIService) GenerateOutfit(ctx context.Context, request *entities.OutfitRequest) (*entities.GenerationResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, request.Style())
	failing := f.failing[request.Style()]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	if failing {
		return nil, errors.New("model unavailable")
	}

	return &entities.GenerationResponse{
		Candidates: []entities.Candidate{{
			FinishReason: "STOP",
			Parts:        []entities.Part{{MimeType: "image/png", Data: []byte("outfit-" + request.Style().Slug())}},
		}},
	}, nil
}

func (f *fakeAIService) Close() error {
	return nil
}

func (f *fakeAIService) setFailing(style valueobjects.Style) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing == nil {
		f.failing = make(map[valueobjects.Style]bool)
	}
	f.failing[style] = true
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func newTestUseCase(t *testing.T, ai *fakeAIService) (*OutfitUseCase, entities.SessionID) {
	t.Helper()
	repo := infrarepos.NewMemorySessionRepository(0)
	uc := NewOutfitUseCase(repo, services.NewOutfitDomainService(ai, ""), time.Second)

	session, err := uc.CreateSession(context.Background())
	require.NoError(t, err)
	return uc, session.ID()
}

func upload(t *testing.T, uc *OutfitUseCase, id entities.SessionID) {
	t.Helper()
	_, err := uc.Upload(context.Background(), id, UploadInput{
		Data:     pngBytes(t),
		MimeType: "image/png",
		FileName: "jacket.png",
	})
	require.NoError(t, err)
}

func styles(outfits []*entities.Outfit) []valueobjects.Style {
	result := make([]valueobjects.Style, len(outfits))
	for i, o := range outfits {
		result[i] = o.Style()
	}
	return result
}

func TestOutfitUseCase_CatalogWalkthrough(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{}
	uc, id := newTestUseCase(t, ai)
	upload(t, uc, id)

	session, err := uc.GenerateOutfits(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.Style{valueobjects.Casual, valueobjects.Business, valueobjects.NightOut}, styles(session.Outfits()))
	assert.False(t, session.IsLoading())
	assert.Empty(t, session.ErrorMessage())

	session, err = uc.GenerateMore(ctx, id)
	require.NoError(t, err)
	require.Len(t, session.Outfits(), 4)
	assert.Equal(t, valueobjects.Streetwear, session.Outfits()[3].Style())

	ai.setFailing(valueobjects.Minimalist)
	session, err = uc.GenerateMore(ctx, id)
	require.Error(t, err)

	var genErr *entities.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, valueobjects.Minimalist, genErr.Style)

	assert.Len(t, session.Outfits(), 4)
	assert.Contains(t, session.ErrorMessage(), "Minimalist")
	assert.False(t, session.IsGeneratingMore())
}

func TestOutfitUseCase_GenerateMoreUntilExhausted(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{}
	uc, id := newTestUseCase(t, ai)
	upload(t, uc, id)

	_, err := uc.GenerateOutfits(ctx, id)
	require.NoError(t, err)

	for range valueobjects.CatalogSize() - valueobjects.InitialBatchSize {
		_, err := uc.GenerateMore(ctx, id)
		require.NoError(t, err)
	}

	calls := len(ai.calls)
	session, err := uc.GenerateMore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.Catalog(), styles(session.Outfits()))
	assert.Empty(t, session.RemainingStyles())
	assert.Equal(t, calls, len(ai.calls), "exhausted catalog must not call the model")
}

func TestOutfitUseCase_BulkFailureDiscardsBatch(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{}
	ai.setFailing(valueobjects.Business)
	uc, id := newTestUseCase(t, ai)
	upload(t, uc, id)

	session, err := uc.GenerateOutfits(ctx, id)
	require.Error(t, err)
	assert.Empty(t, session.Outfits())
	assert.Equal(t, entities.MsgBulkFailed, session.ErrorMessage())
	assert.False(t, session.IsLoading())
	assert.Len(t, ai.calls, valueobjects.InitialBatchSize)
}

func TestOutfitUseCase_GenerateWithoutImage(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{}
	uc, id := newTestUseCase(t, ai)

	session, err := uc.GenerateOutfits(ctx, id)
	assert.ErrorIs(t, err, entities.ErrNoImage)
	assert.Equal(t, entities.MsgNoImage, session.ErrorMessage())
	assert.Empty(t, ai.calls)
}

func TestOutfitUseCase_UploadInvalidImage(t *testing.T) {
	ctx := context.Background()
	uc, id := newTestUseCase(t, &fakeAIService{})
	upload(t, uc, id)

	session, err := uc.Upload(ctx, id, UploadInput{Data: []byte("not an image"), MimeType: "image/png", FileName: "broken.png"})
	require.ErrorIs(t, err, valueobjects.ErrUnsupportedImage)
	assert.False(t, session.HasImage())
	assert.Equal(t, entities.MsgReadFailed, session.ErrorMessage())
}

func TestOutfitUseCase_UploadReplacesOutfits(t *testing.T) {
	ctx := context.Background()
	uc, id := newTestUseCase(t, &fakeAIService{})
	upload(t, uc, id)

	_, err := uc.GenerateOutfits(ctx, id)
	require.NoError(t, err)

	upload(t, uc, id)
	session, err := uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, session.Outfits())
	assert.True(t, session.HasImage())
}

func TestOutfitUseCase_Reset(t *testing.T) {
	ctx := context.Background()
	uc, id := newTestUseCase(t, &fakeAIService{})
	upload(t, uc, id)

	_, err := uc.GenerateOutfits(ctx, id)
	require.NoError(t, err)

	session, err := uc.Reset(ctx, id)
	require.NoError(t, err)
	assert.False(t, session.HasImage())
	assert.Empty(t, session.Outfits())
	assert.Empty(t, session.ErrorMessage())
}

func TestOutfitUseCase_ResetDuringGenerationDiscardsResult(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{block: make(chan struct{})}
	uc, id := newTestUseCase(t, ai)
	upload(t, uc, id)

	done := make(chan error, 1)
	go func() {
		_, err := uc.GenerateOutfits(ctx, id)
		done <- err
	}()

	require.Eventually(t, func() bool {
		session, err := uc.GetSession(ctx, id)
		return err == nil && session.IsLoading()
	}, time.Second, time.Millisecond)

	_, err := uc.Reset(ctx, id)
	require.NoError(t, err)
	close(ai.block)

	assert.ErrorIs(t, <-done, entities.ErrStaleGeneration)

	session, err := uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, session.Outfits())
	assert.False(t, session.IsLoading())
}

func TestOutfitUseCase_Outfit(t *testing.T) {
	ctx := context.Background()
	uc, id := newTestUseCase(t, &fakeAIService{})
	upload(t, uc, id)

	_, err := uc.GenerateOutfits(ctx, id)
	require.NoError(t, err)

	outfit, err := uc.Outfit(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.Business, outfit.Style())
	assert.Equal(t, "outfit-business.png", outfit.FileName())

	_, err = uc.Outfit(ctx, id, 9)
	assert.ErrorIs(t, err, entities.ErrOutfitNotFound)

	_, err = uc.Outfit(ctx, "missing", 0)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)
}

func TestOutfitUseCase_AbandonedGenerationExpires(t *testing.T) {
	ctx := context.Background()
	repo := infrarepos.NewMemorySessionRepository(0)
	uc := NewOutfitUseCase(repo, services.NewOutfitDomainService(&fakeAIService{}, ""), time.Second)

	// 再起動などで完了が書き込まれなかったセッション
	item, err := valueobjects.NewImageData(pngBytes(t), "image/png")
	require.NoError(t, err)
	stuck := entities.NewSession()
	require.NoError(t, stuck.Upload(item, "jacket.png"))
	_, err = stuck.BeginGenerate()
	require.NoError(t, err)

	snapshot := stuck.Snapshot()
	snapshot.StartedAt = time.Now().Add(-time.Hour)
	restored, err := entities.RestoreSession(snapshot)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, restored))

	session, err := uc.GetSession(ctx, restored.ID())
	require.NoError(t, err)
	assert.False(t, session.IsLoading())
	assert.Equal(t, entities.MsgBulkFailed, session.ErrorMessage())

	session, err = uc.GenerateOutfits(ctx, restored.ID())
	require.NoError(t, err)
	assert.Len(t, session.Outfits(), valueobjects.InitialBatchSize)
	assert.Empty(t, session.ErrorMessage())
}

func TestOutfitUseCase_RecentGenerationStillInProgress(t *testing.T) {
	ctx := context.Background()
	ai := &fakeAIService{block: make(chan struct{})}
	uc, id := newTestUseCase(t, ai)
	upload(t, uc, id)

	done := make(chan error, 1)
	go func() {
		_, err := uc.GenerateOutfits(ctx, id)
		done <- err
	}()

	require.Eventually(t, func() bool {
		session, err := uc.GetSession(ctx, id)
		return err == nil && session.IsLoading()
	}, time.Second, 5*time.Millisecond)

	_, err := uc.GenerateMore(ctx, id)
	assert.ErrorIs(t, err, entities.ErrGenerationInProgress)

	close(ai.block)
	require.NoError(t, <-done)
}
