package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/mocks"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/rs/zerolog"
)

const admin = "francesca"

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	store  *mocks.MockStore
	assets *mocks.MockAssetStore
	events *mocks.MockEventSink
	clock  *mocks.Clock
	svc    *service.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Enabled: true, Interval: 10 * time.Millisecond},
		Search:    config.SearchConfig{DefaultLimit: 10, MaxLimit: 50},
	}

	f := &fixture{
		ctx:    context.Background(),
		store:  mocks.NewMockStore(),
		assets: mocks.NewMockAssetStore(),
		events: mocks.NewMockEventSink(),
		clock:  mocks.NewClock(epoch),
	}
	f.svc = service.NewServices(f.store.Repositories(), cfg, zerolog.Nop(), service.Dependencies{
		Assets: f.assets,
		Events: f.events,
		Clock:  f.clock.Now,
	})
	t.Cleanup(f.svc.Scheduler.Stop)
	return f
}

func (f *fixture) now() int64 {
	return f.clock.Now().Unix()
}

func (f *fixture) in(d time.Duration) *int64 {
	at := f.clock.Now().Add(d).Unix()
	return &at
}

// auditActions lists recorded actions in insertion order
func (f *fixture) auditActions() []models.AuditAction {
	var actions []models.AuditAction
	for _, e := range f.store.Audit.Snapshot() {
		actions = append(actions, e.Action)
	}
	return actions
}

func (f *fixture) countAudit(action models.AuditAction) int {
	n := 0
	for _, a := range f.auditActions() {
		if a == action {
			n++
		}
	}
	return n
}

func articleInput(title string, tags ...string) *models.ArticleInput {
	return &models.ArticleInput{
		Title: title,
		Body:  "Match report with **bold** claims about the " + title + ".",
		Tags:  tags,
	}
}

func imageInput(title, dir string) *models.MediaInput {
	return &models.MediaInput{
		Title: title,
		Type:  models.MediaImage,
		Asset: &models.MediaAsset{
			OriginalPath: dir + "/original.jpg",
			ThumbPath:    dir + "/thumb.jpg",
			WebPath:      dir + "/web.webp",
			Metadata:     []byte(`{"width":1920,"height":1080}`),
		},
	}
}

func stringPtr(s string) *string { return &s }
