package service

import (
	"context"
	"time"

	"itemshare/internal/items/repository"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	"itemshare/pkg/model"
)

// AdvanceSummary counts what one sweep did.
type AdvanceSummary struct {
	Scanned       int `json:"scanned"`
	Mutated       int `json:"mutated"`
	Failed        int `json:"failed"`
	Notifications int `json:"notifications"`
}

type AdvancerService interface {
	// Advance applies every elapsed boundary on every due item. A failing
	// item is logged and counted; the sweep carries on with the rest.
	Advance(ctx context.Context) (*AdvanceSummary, error)
}

type advancerService struct {
	*core
	batchLimit int
}

func NewAdvancerService(
	repo repository.ItemRepository,
	composer *notifications.Composer,
	dispatcher *notifications.Dispatcher,
	cfg *config.Config,
	opts ...Option,
) AdvancerService {
	return &advancerService{
		core:       newCore(repo, nil, composer, dispatcher, cfg, opts),
		batchLimit: cfg.AdvancerBatchLimit,
	}
}

// advanceOnly leaves the work to mutate, which advances every item it
// touches. Items with nothing due are not rewritten.
func advanceOnly(*model.Item, time.Time) (composeFunc, error) {
	return nil, errUnchanged
}

func (s *advancerService) Advance(ctx context.Context) (*AdvanceSummary, error) {
	summary := &AdvanceSummary{}
	started := time.Now()
	// Every id handled this sweep is excluded from later scans, so items
	// that keep failing cannot hide the rest of the due set.
	var seen []string

	for {
		ids, err := s.repo.FindDue(ctx, s.now(), s.batchLimit, seen)
		if err != nil {
			s.cfg.Log.Error("Failed to scan for due items", "error", err)
			return summary, toAppError(err, "Failed to scan for due items")
		}

		for _, id := range ids {
			seen = append(seen, id)
			summary.Scanned++

			_, events, changed, err := s.mutate(ctx, id, advanceOnly)
			if err != nil {
				s.cfg.Log.Error("Failed to advance item", "id", id, "error", err)
				summary.Failed++
				continue
			}
			if changed {
				summary.Mutated++
				summary.Notifications += len(events)
			}
		}

		if s.batchLimit <= 0 || len(ids) < s.batchLimit {
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, toAppError(err, "Advance sweep interrupted")
		}
	}

	s.cfg.Log.Info("Advance sweep finished",
		"scanned", summary.Scanned,
		"mutated", summary.Mutated,
		"failed", summary.Failed,
		"notifications", summary.Notifications,
		"duration", time.Since(started),
	)
	return summary, nil
}
