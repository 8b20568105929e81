// AngelaMos | 2026
// service_test.go

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/config"
	"github.com/carterperez-dev/sculptor/internal/core"
	"github.com/carterperez-dev/sculptor/internal/providers"
)

type fakeLedger struct {
	balance    int64
	deductErr  error
	deductions []int64
	reasons    []string
}

func (f *fakeLedger) Deduct(
	ctx context.Context,
	userID, amount int64,
	reason string,
) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	f.balance -= amount
	f.deductions = append(f.deductions, amount)
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	return f.balance, nil
}

type fakeExtractor struct {
	entities []string
	err      error
	calls    int
	lastText string
}

func (f *fakeExtractor) ExtractEntities(
	ctx context.Context,
	text string,
) ([]string, error) {
	f.calls++
	f.lastText = text
	return f.entities, f.err
}

type fakeImages struct {
	png        []byte
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeImages) GenerateImage(
	ctx context.Context,
	prompt string,
) ([]byte, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.png, f.err
}

type fakeMeshes struct {
	glb         []byte
	err         error
	calls       int
	lastQuality providers.MeshQuality
	lastSource  []byte
}

func (f *fakeMeshes) GenerateMesh(
	ctx context.Context,
	imagePNG []byte,
	quality providers.MeshQuality,
) ([]byte, error) {
	f.calls++
	f.lastQuality = quality
	f.lastSource = imagePNG
	return f.glb, f.err
}

type serviceFixture struct {
	svc       *Service
	ledger    *fakeLedger
	extractor *fakeExtractor
	images    *fakeImages
	meshes    *fakeMeshes
}

func newServiceFixture(t *testing.T, balance int64) *serviceFixture {
	t.Helper()

	ledger := &fakeLedger{balance: balance}
	extractor := &fakeExtractor{entities: []string{"Alice", "Bob"}}
	images := &fakeImages{png: []byte("png-bytes")}
	meshes := &fakeMeshes{glb: []byte("glb-bytes")}

	cfg := ServiceConfig{
		Credits: config.CreditsConfig{
			SignupBonus:   5,
			ImageCost:     1,
			ModelCost:     1,
			FastModelCost: 3,
		},
		Providers: config.ProvidersConfig{
			Entity: config.EntityProviderConfig{Timeout: 30 * time.Second},
			Image:  config.ImageProviderConfig{Timeout: 120 * time.Second},
			ThreeD: config.ThreeDProviderConfig{Timeout: 120 * time.Second},
		},
		ArtifactsDir: t.TempDir(),
	}

	svc, err := NewService(
		NewStateStore(),
		ledger,
		extractor,
		images,
		meshes,
		cfg,
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, err)

	return &serviceFixture{
		svc:       svc,
		ledger:    ledger,
		extractor: extractor,
		images:    images,
		meshes:    meshes,
	}
}

func (f *serviceFixture) primeImage(t *testing.T, userID int64) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, userID, "Alice met Bob.")
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, userID)
	require.NoError(t, err)
	_, err = f.svc.GenerateImage(ctx, userID, "")
	require.NoError(t, err)
}

func TestAnalyzeRequiresDocuments(t *testing.T) {
	f := newServiceFixture(t, 5)

	_, err := f.svc.Analyze(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Equal(t, 0, f.extractor.calls)
}

func TestAnalyzeJoinsDocumentsAndDefaultsSelection(t *testing.T) {
	f := newServiceFixture(t, 5)
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "first doc")
	require.NoError(t, err)
	_, err = f.svc.IngestDocument(ctx, 1, "second doc")
	require.NoError(t, err)

	resp, err := f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "first doc\n\nsecond doc", f.extractor.lastText)
	assert.Equal(t, []string{"Alice", "Bob"}, resp.Entities)
	assert.Equal(t, "Alice", resp.SelectedEntity)
	assert.Equal(t, 2, resp.Documents)
}

func TestAnalyzeFailureIsCollaboratorError(t *testing.T) {
	f := newServiceFixture(t, 5)
	f.extractor.err = errors.New("upstream 500")
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "doc")
	require.NoError(t, err)

	_, err = f.svc.Analyze(ctx, 1)

	assert.ErrorIs(t, err, core.ErrCollaborator)
	assert.Empty(t, f.ledger.deductions)
}

func TestReanalyzeClearsStaleArtifacts(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)

	resp, err := f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	assert.False(t, resp.HasImage)
	assert.False(t, resp.HasModel)

	_, err = f.svc.GetImage(1)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestSelectEntityUnknownRejected(t *testing.T) {
	f := newServiceFixture(t, 5)
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "doc")
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.SelectEntity(ctx, 1, "Mallory")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	// Membership is case-sensitive against the stored spelling.
	_, err = f.svc.SelectEntity(ctx, 1, "alice")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestSelectEntityChangeClearsArtifacts(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)

	resp, err := f.svc.SelectEntity(ctx, 1, "Bob")
	require.NoError(t, err)

	assert.Equal(t, "Bob", resp.SelectedEntity)
	assert.False(t, resp.HasImage)
}

func TestSelectSameEntityKeepsArtifacts(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)

	resp, err := f.svc.SelectEntity(ctx, 1, "Alice")
	require.NoError(t, err)

	assert.True(t, resp.HasImage)
}

func TestGenerateImageRequiresSelection(t *testing.T) {
	f := newServiceFixture(t, 5)

	_, err := f.svc.GenerateImage(context.Background(), 1, "")

	assert.ErrorIs(t, err, ErrNoEntitySelected)
	assert.Equal(t, 0, f.images.calls)
}

func TestGenerateImageInsufficientCredits(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "doc")
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.GenerateImage(ctx, 1, "")

	assert.ErrorIs(t, err, core.ErrInsufficientCredits)
	assert.Equal(t, 0, f.images.calls)
}

func TestGenerateImagePromptIncludesModifiers(t *testing.T) {
	f := newServiceFixture(t, 5)
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "doc")
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	resp, err := f.svc.GenerateImage(ctx, 1, "oil painting, dramatic light")
	require.NoError(t, err)

	assert.Equal(t, "Alice, oil painting, dramatic light", f.images.lastPrompt)
	assert.True(t, resp.HasImage)
	assert.Equal(t, int64(4), resp.Balance)
	assert.Equal(t, []int64{1}, f.ledger.deductions)
}

func TestGenerateImageProviderFailureLeavesBalance(t *testing.T) {
	f := newServiceFixture(t, 5)
	f.images.err = errors.New("upstream timeout")
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "doc")
	require.NoError(t, err)
	_, err = f.svc.Analyze(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.GenerateImage(ctx, 1, "")

	assert.ErrorIs(t, err, core.ErrCollaborator)
	assert.Empty(t, f.ledger.deductions)
	assert.Equal(t, int64(5), f.ledger.balance)
}

func TestGenerateModelRequiresImage(t *testing.T) {
	f := newServiceFixture(t, 5)

	_, err := f.svc.GenerateModel(
		context.Background(),
		1,
		providers.MeshQualityPointAware,
		nil,
	)

	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, 0, f.meshes.calls)
	assert.Empty(t, f.ledger.deductions)
}

func TestGenerateModelUsesPipelineImage(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)

	resp, err := f.svc.GenerateModel(ctx, 1, providers.MeshQualityPointAware, nil)
	require.NoError(t, err)

	assert.Equal(t, []byte("png-bytes"), f.meshes.lastSource)
	assert.True(t, resp.HasModel)
	assert.Equal(t, []int64{1, 1}, f.ledger.deductions)
}

func TestGenerateModelFastCostsThree(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)

	resp, err := f.svc.GenerateModel(ctx, 1, providers.MeshQualityFast, nil)
	require.NoError(t, err)

	assert.Equal(t, providers.MeshQualityFast, f.meshes.lastQuality)
	assert.Equal(t, int64(6), resp.Balance)
	assert.Equal(t, []int64{1, 3}, f.ledger.deductions)
}

func TestGenerateModelFastInsufficientAtTwo(t *testing.T) {
	f := newServiceFixture(t, 3)
	ctx := context.Background()

	f.primeImage(t, 1) // balance now 2

	_, err := f.svc.GenerateModel(ctx, 1, providers.MeshQualityFast, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientCredits)
	assert.Equal(t, 0, f.meshes.calls)

	// Point-aware still fits the remaining balance.
	resp, err := f.svc.GenerateModel(ctx, 1, providers.MeshQualityPointAware, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Balance)
}

func TestGenerateModelProviderFailureLeavesBalance(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	f.primeImage(t, 1)
	f.meshes.err = errors.New("conversion failed")

	_, err := f.svc.GenerateModel(ctx, 1, providers.MeshQualityPointAware, nil)

	assert.ErrorIs(t, err, core.ErrCollaborator)
	assert.Equal(t, []int64{1}, f.ledger.deductions)
	assert.Equal(t, int64(4), f.ledger.balance)
}

func TestGenerateModelCustomSourceSkipsPipelineImage(t *testing.T) {
	f := newServiceFixture(t, 5)
	ctx := context.Background()

	custom := []byte("custom-png")
	resp, err := f.svc.GenerateModel(
		ctx,
		1,
		providers.MeshQualityPointAware,
		custom,
	)
	require.NoError(t, err)

	assert.Equal(t, custom, f.meshes.lastSource)
	assert.True(t, resp.HasModel)
	assert.False(t, resp.HasImage)
}

func TestStateIsolatedPerUser(t *testing.T) {
	f := newServiceFixture(t, 5)
	ctx := context.Background()

	_, err := f.svc.IngestDocument(ctx, 1, "user one doc")
	require.NoError(t, err)

	resp, err := f.svc.GetState(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Documents)
}

func TestGetModelBeforeGeneration(t *testing.T) {
	f := newServiceFixture(t, 5)

	_, err := f.svc.GetModel(1)

	assert.ErrorIs(t, err, ErrNoModel)
}
