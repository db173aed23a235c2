package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Poller is the work the scheduler runs on every tick.
type Poller interface {
	PollAll(ctx context.Context) error
}

// Scheduler periodically polls air quality for the tracked locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	poller    Poller
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. Each run gets timeout to finish.
func New(interval, timeout time.Duration, poller Poller) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		poller:    poller,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: polling disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running air quality poll")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.poller.PollAll(ctx); err != nil {
		log.Printf("scheduler: poll finished with errors: %v", err)
		return
	}
	log.Println("scheduler: completed air quality poll")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
