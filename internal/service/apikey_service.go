package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/rs/zerolog"
)

const apiKeyBytes = 32

// apiKeyService is the concrete implementation of APIKeyService
type apiKeyService struct {
	keys  repository.APIKeyRepository
	audit *auditService
	clock Clock
	log   zerolog.Logger
}

func newAPIKeyService(keys repository.APIKeyRepository, audit *auditService, clock Clock, log zerolog.Logger) *apiKeyService {
	return &apiKeyService{
		keys:  keys,
		audit: audit,
		clock: clock,
		log:   log.With().Str("service", "api_key").Logger(),
	}
}

func generateKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Create issues a new active key. The key value is only returned here.
func (s *apiKeyService) Create(ctx context.Context, actor, label string) (*models.APIKey, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperrors.Validation("label is required")
	}

	token, err := generateKey()
	if err != nil {
		return nil, apperrors.Internal("failed to generate api key", err)
	}

	key := &models.APIKey{
		Label:     label,
		Key:       token,
		Active:    true,
		CreatedAt: s.clock().Unix(),
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, apperrors.Internal("failed to store api key", err)
	}

	s.audit.Record(ctx, actor, models.ActionCreate, models.TargetAPIKey, &key.ID, fmt.Sprintf("created api key %q", label))
	return key, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]models.APIKey, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list api keys", err)
	}
	if keys == nil {
		keys = []models.APIKey{}
	}
	return keys, nil
}

func (s *apiKeyService) SetActive(ctx context.Context, actor string, id int64, active bool) error {
	ok, err := s.keys.SetActive(ctx, id, active)
	if err != nil {
		return apperrors.Internal("failed to update api key", err)
	}
	if !ok {
		return apperrors.NotFound("api key %d not found", id)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	s.audit.Record(ctx, actor, models.ActionUpdate, models.TargetAPIKey, &id, state+" api key")
	return nil
}

func (s *apiKeyService) Delete(ctx context.Context, actor string, id int64) error {
	ok, err := s.keys.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to delete api key", err)
	}
	if !ok {
		return apperrors.NotFound("api key %d not found", id)
	}
	s.audit.Record(ctx, actor, models.ActionDelete, models.TargetAPIKey, &id, "deleted api key")
	return nil
}

// Authenticate resolves an active key and stamps its last use
func (s *apiKeyService) Authenticate(ctx context.Context, token string) (*models.APIKey, error) {
	if token == "" {
		return nil, apperrors.NotFound("api key required")
	}
	key, err := s.keys.GetByKey(ctx, token)
	if err != nil {
		return nil, apperrors.Internal("failed to look up api key", err)
	}
	if key == nil || !key.Active {
		return nil, apperrors.NotFound("unknown or inactive api key")
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID, s.clock().Unix()); err != nil {
		s.log.Warn().Err(err).Int64("key_id", key.ID).Msg("Failed to record api key use")
	}
	key.Key = ""
	return key, nil
}
