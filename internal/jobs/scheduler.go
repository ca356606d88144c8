package jobs

import (
	"context"
	"log"
	"time"

	"textport/internal/carrier"
	"textport/internal/config"
	"textport/internal/models"
	"textport/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler manages the allocator's background jobs: pulling owned numbers
// from the carrier vendor into inventory, and sweeping pool stats for
// procurement alerts. There is deliberately no cooldown sweep job; expired
// cooldowns are reclaimed lazily at acquisition time.
type Scheduler struct {
	scheduler gocron.Scheduler
	allocator services.AllocatorService
	vendor    carrier.Client
	cfg       *config.CarrierConfig
}

// NewScheduler creates the job scheduler. vendor may be nil when no
// carrier credentials are configured; the sync job is skipped then.
func NewScheduler(allocator services.AllocatorService, vendor carrier.Client, cfg *config.CarrierConfig) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		scheduler: scheduler,
		allocator: allocator,
		vendor:    vendor,
		cfg:       cfg,
	}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// Start starts the job scheduler
func (s *Scheduler) Start() {
	log.Printf("starting background job scheduler")
	s.scheduler.Start()
}

// Stop stops the job scheduler
func (s *Scheduler) Stop() error {
	log.Printf("stopping background job scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) registerJobs() error {
	if s.vendor != nil {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(time.Duration(s.cfg.Jobs.VendorSyncMinutes)*time.Minute),
			gocron.NewTask(s.SyncVendorNumbers, context.Background()),
			gocron.WithName("vendor-number-sync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(time.Duration(s.cfg.Jobs.PoolAlertMinutes)*time.Minute),
		gocron.NewTask(s.CheckPoolLevels, context.Background()),
		gocron.WithName("pool-procurement-alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// SyncVendorNumbers ingests every number the vendor account owns. Ingest
// is an idempotent upsert, so numbers already tracked only refresh their
// carrier metadata and never change lifecycle state.
func (s *Scheduler) SyncVendorNumbers(ctx context.Context) {
	numbers, err := s.vendor.ListOwnedNumbers(ctx)
	if err != nil {
		log.Printf("vendor number sync failed: %v", err)
		return
	}

	var created int
	for _, vn := range numbers {
		result, err := s.allocator.Ingest(ctx, vn.PhoneNumber, vn.NumberID, models.NumberSourceVendorSync, vn.MonthlyPrice)
		if err != nil {
			log.Printf("vendor sync: skipping %s: %v", vn.PhoneNumber, err)
			continue
		}
		if result.Created {
			created++
		}
	}
	log.Printf("vendor number sync finished: %d vendor numbers, %d new", len(numbers), created)
}

// CheckPoolLevels logs area codes whose available stock fell below the
// configured threshold. This is the procurement signal for operations;
// purchasing itself stays out-of-band.
func (s *Scheduler) CheckPoolLevels(ctx context.Context) {
	snapshot, err := s.allocator.Stats(ctx)
	if err != nil {
		log.Printf("pool level check failed: %v", err)
		return
	}

	for _, area := range snapshot.ByAreaCode {
		if area.Available < s.cfg.Allocator.LowStockThreshold {
			log.Printf("PROCUREMENT: area code %s has %d available numbers (threshold %d, %d assigned, %d cooling down)",
				area.AreaCode, area.Available, s.cfg.Allocator.LowStockThreshold, area.Assigned, area.Cooldown)
		}
	}
}
