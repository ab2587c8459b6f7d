package service

import (
	"context"
	"strings"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/content-lifecycle-api/internal/validation"
	"github.com/rs/zerolog"
)

// searchService is the concrete implementation of SearchService
type searchService struct {
	articles     repository.ArticleRepository
	defaultLimit int
	maxLimit     int
	log          zerolog.Logger
}

func newSearchService(articles repository.ArticleRepository, cfg config.SearchConfig, log zerolog.Logger) *searchService {
	s := &searchService{
		articles:     articles,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		log:          log.With().Str("service", "search").Logger(),
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 10
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = s.defaultLimit
	}
	return s
}

// Search ranks published articles against query
func (s *searchService) Search(ctx context.Context, query string, page, limit int) (*models.SearchResponse, error) {
	if errs := validation.ValidateSearchQuery(query); len(errs) > 0 {
		return nil, validationError(errs)
	}
	query = strings.TrimSpace(query)
	page, limit = normalizePage(page, limit, s.defaultLimit, s.maxLimit)

	hits, total, err := s.articles.Search(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, apperrors.Internal("search failed", err)
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}

	s.log.Debug().Str("query", query).Int("total", total).Msg("Search executed")
	return &models.SearchResponse{
		Query:      query,
		Results:    hits,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}
