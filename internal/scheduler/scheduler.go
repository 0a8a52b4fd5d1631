package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"roblox-trader/internal/models"
)

// CatalogWarmer is the slice of the Rolimon's service the warm job needs.
type CatalogWarmer interface {
	GetItemDetails(ctx context.Context) ([]models.CatalogEntry, string, error)
}

// Scheduler keeps the catalog snapshot warm so user requests rarely pay the
// origin round trip. Semantically identical to a user-triggered cache miss.
type Scheduler struct {
	cron     *cron.Cron
	rolimons CatalogWarmer
}

func New(rolimons CatalogWarmer) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		rolimons: rolimons,
	}
}

// Start registers the warm job with the given cron spec and begins running.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.warmCatalog)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) warmCatalog() {
	entries, source, err := s.rolimons.GetItemDetails(context.Background())
	if err != nil {
		logrus.WithError(err).Warn("catalog warm failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"items":  len(entries),
		"source": source,
	}).Debug("catalog warmed")
}
