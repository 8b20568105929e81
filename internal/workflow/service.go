// AngelaMos | 2026
// service.go

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/carterperez-dev/sculptor/internal/config"
	"github.com/carterperez-dev/sculptor/internal/core"
	"github.com/carterperez-dev/sculptor/internal/credits"
	"github.com/carterperez-dev/sculptor/internal/providers"
)

var (
	ErrNoDocuments = core.NewAppError(
		core.ErrInvalidInput,
		"Please upload at least one document",
		http.StatusBadRequest,
		"NO_DOCUMENTS",
	)
	ErrNoEntitySelected = core.NewAppError(
		core.ErrInvalidInput,
		"Please select an entity first",
		http.StatusBadRequest,
		"NO_ENTITY_SELECTED",
	)
	ErrUnknownEntity = core.NewAppError(
		core.ErrInvalidInput,
		"entity is not in the extracted list",
		http.StatusBadRequest,
		"UNKNOWN_ENTITY",
	)
	ErrNoImage = core.NewAppError(
		core.ErrInvalidInput,
		"Please generate an image first",
		http.StatusBadRequest,
		"NO_IMAGE",
	)
	ErrNoModel = core.NewAppError(
		core.ErrNotFound,
		"no 3D model has been generated",
		http.StatusNotFound,
		"NO_MODEL",
	)
)

// CreditLedger is the slice of the credit system the pipeline needs:
// conditional debits and fresh balance reads.
type CreditLedger interface {
	Deduct(ctx context.Context, userID, amount int64, reason string) error
	Balance(ctx context.Context, userID int64) (int64, error)
}

type ServiceConfig struct {
	Credits      config.CreditsConfig
	Providers    config.ProvidersConfig
	ArtifactsDir string
}

// Service drives the document-to-3D pipeline. Generation debits follow
// a strict order: the provider call happens first, the debit second, the
// artifact store third. A provider failure therefore never costs
// credits, at the accepted price of the rare free artifact when the
// debit itself fails after a successful render.
type Service struct {
	store     *StateStore
	ledger    CreditLedger
	extractor providers.EntityExtractor
	images    providers.ImageGenerator
	meshes    providers.MeshGenerator
	cfg       ServiceConfig
	logger    *slog.Logger
}

func NewService(
	store *StateStore,
	ledger CreditLedger,
	extractor providers.EntityExtractor,
	images providers.ImageGenerator,
	meshes providers.MeshGenerator,
	cfg ServiceConfig,
	logger *slog.Logger,
) (*Service, error) {
	if err := os.MkdirAll(cfg.ArtifactsDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	return &Service{
		store:     store,
		ledger:    ledger,
		extractor: extractor,
		images:    images,
		meshes:    meshes,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// IngestDocument appends a document to the user's working set. It never
// touches providers or the ledger.
func (s *Service) IngestDocument(
	ctx context.Context,
	userID int64,
	text string,
) (*StateResponse, error) {
	s.store.Get(userID).AppendDocument(text)
	return s.stateResponse(ctx, userID)
}

// Analyze runs entity extraction over every uploaded document joined
// into one corpus. Extraction is free; the result replaces any previous
// entity list and invalidates downstream artifacts.
func (s *Service) Analyze(
	ctx context.Context,
	userID int64,
) (*StateResponse, error) {
	state := s.store.Get(userID)

	corpus, docCount := state.JoinedDocuments()
	if docCount == 0 {
		return nil, ErrNoDocuments
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Providers.Entity.Timeout)
	defer cancel()

	entities, err := s.extractor.ExtractEntities(callCtx, corpus)
	if err != nil {
		s.logger.Error("entity extraction failed",
			"user_id", userID,
			"error", err,
		)
		return nil, core.CollaboratorFailureError("entity extraction failed")
	}

	state.SetEntities(entities)

	s.logger.Info("documents analyzed",
		"user_id", userID,
		"documents", docCount,
		"entities", len(entities),
	)

	return s.stateResponse(ctx, userID)
}

func (s *Service) SelectEntity(
	ctx context.Context,
	userID int64,
	entity string,
) (*StateResponse, error) {
	if !s.store.Get(userID).SelectEntity(entity) {
		return nil, ErrUnknownEntity
	}
	return s.stateResponse(ctx, userID)
}

// GenerateImage renders the selected entity. The balance precondition
// reads the store fresh; the session's cached balance is never trusted.
func (s *Service) GenerateImage(
	ctx context.Context,
	userID int64,
	modifiers string,
) (*StateResponse, error) {
	state := s.store.Get(userID)

	snap := state.Snapshot()
	if snap.SelectedEntity == "" {
		return nil, ErrNoEntitySelected
	}

	cost := s.cfg.Credits.ImageCost
	if err := s.requireBalance(ctx, userID, cost, ""); err != nil {
		return nil, err
	}

	prompt := snap.SelectedEntity
	if modifiers != "" {
		prompt += ", " + modifiers
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Providers.Image.Timeout)
	defer cancel()

	png, err := s.images.GenerateImage(callCtx, prompt)
	if err != nil {
		s.logger.Error("image generation failed",
			"user_id", userID,
			"error", err,
		)
		return nil, core.CollaboratorFailureError("image generation failed")
	}

	if err := s.ledger.Deduct(ctx, userID, cost, credits.ReasonImage); err != nil {
		return nil, err
	}

	state.SetImage(png)

	s.logger.Info("image generated",
		"user_id", userID,
		"prompt", prompt,
		"bytes", len(png),
	)

	return s.stateResponse(ctx, userID)
}

// GenerateModel converts an image into a glTF binary. source overrides
// the pipeline image when the caller uploads their own; nil falls back
// to the image generated in the previous step.
func (s *Service) GenerateModel(
	ctx context.Context,
	userID int64,
	quality providers.MeshQuality,
	source []byte,
) (*StateResponse, error) {
	state := s.store.Get(userID)

	if source == nil {
		source = state.Snapshot().ImagePNG
	}
	if len(source) == 0 {
		return nil, ErrNoImage
	}

	cost := s.cfg.Credits.ModelCost
	reason := credits.ReasonModel
	if quality == providers.MeshQualityFast {
		cost = s.cfg.Credits.FastModelCost
		reason = credits.ReasonFastModel
	}

	shortfall := fmt.Sprintf(
		"Insufficient credits. Need %d credits for this model.",
		cost,
	)
	if err := s.requireBalance(ctx, userID, cost, shortfall); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Providers.ThreeD.Timeout)
	defer cancel()

	glb, err := s.meshes.GenerateMesh(callCtx, source, quality)
	if err != nil {
		s.logger.Error("model generation failed",
			"user_id", userID,
			"quality", quality,
			"error", err,
		)
		return nil, core.CollaboratorFailureError("3D model generation failed")
	}

	if err := s.ledger.Deduct(ctx, userID, cost, reason); err != nil {
		return nil, err
	}

	path := filepath.Join(
		s.cfg.ArtifactsDir,
		fmt.Sprintf("user_%d_model.glb", userID),
	)
	if err := os.WriteFile(path, glb, 0o640); err != nil {
		s.logger.Warn("persist model artifact failed",
			"user_id", userID,
			"path", path,
			"error", err,
		)
		path = ""
	}

	state.SetModel(glb, path)

	s.logger.Info("model generated",
		"user_id", userID,
		"quality", quality,
		"bytes", len(glb),
	)

	return s.stateResponse(ctx, userID)
}

func (s *Service) GetImage(userID int64) ([]byte, error) {
	snap := s.store.Get(userID).Snapshot()
	if len(snap.ImagePNG) == 0 {
		return nil, ErrNoImage
	}
	return snap.ImagePNG, nil
}

func (s *Service) GetModel(userID int64) ([]byte, error) {
	snap := s.store.Get(userID).Snapshot()
	if len(snap.ModelGLB) == 0 {
		return nil, ErrNoModel
	}
	return snap.ModelGLB, nil
}

func (s *Service) GetState(
	ctx context.Context,
	userID int64,
) (*StateResponse, error) {
	return s.stateResponse(ctx, userID)
}

// requireBalance is a fast-fail precondition; the authoritative check
// stays inside the ledger's conditional debit.
func (s *Service) requireBalance(
	ctx context.Context,
	userID, cost int64,
	shortfallMsg string,
) error {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return err
	}

	if balance < cost {
		if shortfallMsg == "" {
			shortfallMsg = "Insufficient credits. Please purchase more credits."
		}
		return core.InsufficientCreditsError(shortfallMsg)
	}
	return nil
}

func (s *Service) stateResponse(
	ctx context.Context,
	userID int64,
) (*StateResponse, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := s.store.Get(userID).Snapshot()
	return &StateResponse{
		Documents:      len(snap.Documents),
		Entities:       snap.Entities,
		SelectedEntity: snap.SelectedEntity,
		HasImage:       len(snap.ImagePNG) > 0,
		HasModel:       len(snap.ModelGLB) > 0,
		Balance:        balance,
	}, nil
}
