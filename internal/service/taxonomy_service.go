package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/content-lifecycle-api/internal/validation"
	"github.com/rs/zerolog"
)

// taxonomyService is the concrete implementation of TaxonomyService
type taxonomyService struct {
	repos  *repository.Repositories
	audit  *auditService
	events EventSink
	log    zerolog.Logger
}

func newTaxonomyService(repos *repository.Repositories, audit *auditService, events EventSink, log zerolog.Logger) *taxonomyService {
	return &taxonomyService{
		repos:  repos,
		audit:  audit,
		events: events,
		log:    log.With().Str("service", "taxonomy").Logger(),
	}
}

func checkTag(field, tag string) error {
	switch {
	case tag == "":
		return apperrors.Validation("%s must not be empty", field)
	case strings.Contains(tag, ","):
		return apperrors.Validation("%s must not contain commas", field)
	}
	return nil
}

// RenameTag replaces oldTag with newTag on every row in scope
func (s *taxonomyService) RenameTag(ctx context.Context, actor, oldTag, newTag string, scope models.Scope) (int, error) {
	from := validation.NormalizeTag(oldTag)
	to := validation.NormalizeTag(newTag)
	if err := checkTag("old tag", from); err != nil {
		return 0, err
	}
	if err := checkTag("new tag", to); err != nil {
		return 0, err
	}
	if from == to {
		return 0, apperrors.Validation("old and new tag are both %q", from)
	}

	affected, err := s.rewrite(ctx, scope, []string{from}, to)
	if err != nil {
		return 0, err
	}

	s.log.Info().Str("from", from).Str("to", to).Str("scope", string(scope)).Int("affected", affected).Msg("Tag renamed")
	s.audit.Record(ctx, actor, models.ActionRenameTag, models.TargetMeta, nil,
		fmt.Sprintf("renamed tag %q to %q in %s (%d items)", from, to, scope, affected))
	s.events.Emit(models.EventTagsRename, map[string]interface{}{
		"from": from, "to": to, "scope": scope, "affected": affected,
	})
	return affected, nil
}

// MergeTags folds every source tag into target on every row in scope.
// Sources equal to the target are ignored.
func (s *taxonomyService) MergeTags(ctx context.Context, actor string, sources []string, target string, scope models.Scope) (int, error) {
	to := validation.NormalizeTag(target)
	if err := checkTag("target tag", to); err != nil {
		return 0, err
	}

	var from []string
	for _, tag := range validation.NormalizeTags(sources) {
		if tag != to {
			from = append(from, tag)
		}
	}
	if len(from) == 0 {
		return 0, apperrors.Validation("no source tag differs from target %q", to)
	}

	affected, err := s.rewrite(ctx, scope, from, to)
	if err != nil {
		return 0, err
	}

	s.log.Info().Strs("from", from).Str("to", to).Str("scope", string(scope)).Int("affected", affected).Msg("Tags merged")
	s.audit.Record(ctx, actor, models.ActionMergeTags, models.TargetMeta, nil,
		fmt.Sprintf("merged tags %s into %q in %s (%d items)", strings.Join(from, ","), to, scope, affected))
	s.events.Emit(models.EventTagsMerge, map[string]interface{}{
		"from": from, "to": to, "scope": scope, "affected": affected,
	})
	return affected, nil
}

// rewrite substitutes sources with target in one transaction across every
// kind in scope and returns the number of rows whose tag set changed.
func (s *taxonomyService) rewrite(ctx context.Context, scope models.Scope, sources []string, target string) (int, error) {
	sourceSet := make(map[string]bool, len(sources))
	for _, tag := range sources {
		sourceSet[tag] = true
	}

	var affected int
	err := s.repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		affected = 0
		for _, kind := range scope.Kinds() {
			repo := tx.Content(kind)
			rows, err := repo.FindByTags(ctx, sources)
			if err != nil {
				return fmt.Errorf("loading tagged %s: %w", kind, err)
			}
			for _, row := range rows {
				tags, changed := validation.RewriteTags(row.Tags, sourceSet, target)
				if !changed {
					continue
				}
				if err := repo.UpdateTags(ctx, row.ID, tags); err != nil {
					return fmt.Errorf("rewriting tags of %s %d: %w", kind, row.ID, err)
				}
				affected++
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Internal("tag rewrite failed", err)
	}
	return affected, nil
}

// ListTags counts tag usage across active items in scope
func (s *taxonomyService) ListTags(ctx context.Context, scope models.Scope) ([]models.TagCount, error) {
	totals := make(map[string]int)
	for _, kind := range scope.Kinds() {
		counts, err := s.repos.Content(kind).TagCounts(ctx)
		if err != nil {
			return nil, apperrors.Internal(fmt.Sprintf("failed to count %s tags", kind), err)
		}
		for _, c := range counts {
			totals[c.Tag] += c.Count
		}
	}

	tags := make([]models.TagCount, 0, len(totals))
	for tag, n := range totals {
		tags = append(tags, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags, nil
}
