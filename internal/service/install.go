package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/monitoring"
)

// CategoryLister is the minimal catalog access the warmup probe needs.
type CategoryLister interface {
	ListCategories(ctx context.Context, mallID string) ([]model.Category, error)
}

// InstallService runs post-install warmup in the background: after the OAuth
// exchange persists a mall's first credential, a probe call verifies that the
// stored pair actually grants API access.
type InstallService struct {
	catalog CategoryLister
	warmups chan string // Channel for background warmup
}

// NewInstallService creates a new InstallService
func NewInstallService(catalog CategoryLister) *InstallService {
	is := &InstallService{
		catalog: catalog,
		warmups: make(chan string, 10),
	}
	go is.startWarmupWorker()
	return is
}

// startWarmupWorker runs the background job for post-install verification
func (is *InstallService) startWarmupWorker() {
	for mallID := range is.warmups {
		log.Info().Str("mall_id", mallID).Msg("Starting post-install warmup")
		if err := is.warmUp(mallID); err != nil {
			log.Error().Err(err).Str("mall_id", mallID).Msg("Warmup failed")
			monitoring.Alert("post-install warmup failed", map[string]string{"mall_id": mallID})
		}
	}
}

func (is *InstallService) warmUp(mallID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories, err := is.catalog.ListCategories(ctx, mallID)
	if err != nil {
		return err
	}
	log.Info().
		Str("mall_id", mallID).
		Int("categories", len(categories)).
		Msg("Warmup completed, API access verified")
	return nil
}

// QueueForWarmup adds a freshly installed mall to the warmup queue
func (is *InstallService) QueueForWarmup(mallID string) {
	is.warmups <- mallID
}
