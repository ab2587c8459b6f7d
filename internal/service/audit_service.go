package service

import (
	"context"
	"fmt"
	"time"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/rs/zerolog"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// auditService is the concrete implementation of AuditService
type auditService struct {
	repos *repository.Repositories
	clock Clock
	log   zerolog.Logger
}

func newAuditService(repos *repository.Repositories, clock Clock, log zerolog.Logger) *auditService {
	return &auditService{
		repos: repos,
		clock: clock,
		log:   log.With().Str("service", "audit").Logger(),
	}
}

// entry builds an audit entry stamped with the current time
func (s *auditService) entry(actor string, action models.AuditAction, target models.TargetType, targetID *int64, details string) *models.AuditLogEntry {
	if actor == "" {
		actor = models.SystemActor
	}
	return &models.AuditLogEntry{
		Actor:      actor,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  s.clock().Unix(),
	}
}

// Record appends an entry outside any transaction. Failures are logged and
// never reach the caller.
func (s *auditService) Record(ctx context.Context, actor string, action models.AuditAction, target models.TargetType, targetID *int64, details string) {
	entry := s.entry(actor, action, target, targetID, details)
	if err := s.repos.Audit.Append(ctx, entry); err != nil {
		ev := s.log.Error().Err(err).
			Str("actor", entry.Actor).
			Str("action", string(action)).
			Str("target_type", string(target))
		if targetID != nil {
			ev = ev.Int64("target_id", *targetID)
		}
		ev.Msg("Failed to write audit entry")
	}
}

// List pages through the audit log newest first
func (s *auditService) List(ctx context.Context, filter models.AuditFilter, page, limit int) ([]models.AuditLogEntry, models.Pagination, error) {
	page, limit = normalizePage(page, limit, defaultPageLimit, maxPageLimit)

	entries, total, err := s.repos.Audit.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, models.Pagination{}, apperrors.Internal("failed to list audit log", err)
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, models.NewPagination(page, limit, total), nil
}

// Purge deletes entries created before the cutoff, or all of them, and
// records the purge as the first entry of the trimmed log.
func (s *auditService) Purge(ctx context.Context, actor string, before *int64) (int64, error) {
	var deleted int64
	err := s.repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		var err error
		deleted, err = tx.Audit.DeleteBefore(ctx, before)
		if err != nil {
			return fmt.Errorf("deleting audit entries: %w", err)
		}

		details := fmt.Sprintf("purged all %d audit entries", deleted)
		if before != nil {
			details = fmt.Sprintf("purged %d audit entries older than %s",
				deleted, time.Unix(*before, 0).UTC().Format(time.RFC3339))
		}
		return tx.Audit.Append(ctx, s.entry(actor, models.ActionPurge, models.TargetAudit, nil, details))
	})
	if err != nil {
		return 0, apperrors.Internal("failed to purge audit log", err)
	}

	s.log.Info().Str("actor", actor).Int64("deleted", deleted).Msg("Audit log purged")
	return deleted, nil
}

// normalizePage clamps page to >= 1 and limit to (0, max]
func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
