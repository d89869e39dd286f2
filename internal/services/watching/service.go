package watching

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"avito-watch/internal/model"
	"avito-watch/internal/repositories"
	"avito-watch/internal/repositories/memory"
)

const (
	DefaultNotifyInterval = time.Second

	sendTimeout = 15 * time.Second
)

type CycleReport struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	FetchError string        `json:"fetch_error,omitempty"`
	Extracted  int           `json:"extracted"`
	New        int           `json:"new"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Unsent     int           `json:"unsent"`
}

type Status struct {
	Cycles          int          `json:"cycles"`
	Seen            int          `json:"seen"`
	NotifierEnabled bool         `json:"notifier_enabled"`
	LastCycle       *CycleReport `json:"last_cycle,omitempty"`
}

type Service struct {
	targetURL string
	fetcher   Fetcher
	extractor Extractor
	notifier  Notifier
	waiter    Waiter
	pacer     *rate.Limiter

	mu     sync.Mutex
	status Status
}

type Option func(*Service)

// WithNotifier enables delivery. Without it the service only logs new listings.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func WithWaiter(waiter Waiter) Option {
	return func(s *Service) {
		s.waiter = waiter
	}
}

// WithNotifyInterval sets the minimum gap between two consecutive sends.
func WithNotifyInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.pacer = newPacer(interval)
	}
}

func NewService(targetURL string, fetcher Fetcher, extractor Extractor, options ...Option) *Service {
	s := &Service{
		targetURL: targetURL,
		fetcher:   fetcher,
		extractor: extractor,
		pacer:     newPacer(DefaultNotifyInterval),
	}
	for _, option := range options {
		option(s)
	}
	s.status.NotifierEnabled = s.notifier != nil
	return s
}

func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run owns the seen set for the lifetime of the process and repeats cycles
// until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	seen := memory.NewSeenSet()
	log.Info().
		Str("url", s.targetURL).
		Bool("notifier", s.notifier != nil).
		Msg("watcher started")

	for ctx.Err() == nil {
		s.RunCycle(ctx, seen)

		if s.waiter == nil || ctx.Err() != nil {
			break
		}
		if err := s.waiter.Wait(ctx); err != nil {
			break
		}
	}

	log.Info().Int("seen", seen.Len()).Msg("watcher stopped")
	return nil
}

// RunCycle performs one fetch, extract, dedupe and notify pass. Every new
// listing is marked seen before delivery is attempted, so a failed send is
// never retried.
func (s *Service) RunCycle(ctx context.Context, seen repositories.SeenRepository) CycleReport {
	report := CycleReport{ID: uuid.NewString(), StartedAt: time.Now()}
	logger := log.With().Str("cycle_id", report.ID).Logger()
	logger.Info().Msg("checking listings")

	page, err := s.fetcher.Fetch(ctx, s.targetURL)
	if err != nil {
		report.FetchError = err.Error()
		logger.Warn().Err(err).Msg("fetch failed")
		page = ""
	}

	listings := s.extractor.Extract(page)
	report.Extracted = len(listings)

	unique := lo.UniqBy(listings, func(l model.Listing) string { return l.Link })
	fresh := lo.Filter(unique, func(l model.Listing, _ int) bool { return !seen.Has(l.Link) })
	report.New = len(fresh)

	for _, listing := range fresh {
		seen.Add(listing.Link)
	}

	if len(fresh) > 0 {
		logger.Info().Int("new", len(fresh)).Msg("new listings found")
	}

	for i, listing := range fresh {
		if s.notifier == nil {
			logger.Info().
				Str("title", listing.Title).
				Int64("price", listing.Price).
				Str("link", listing.Link).
				Msg("notifier disabled, listing logged only")
			continue
		}

		if err := s.pacer.Wait(ctx); err != nil {
			report.Unsent = len(fresh) - i
			logger.Warn().Err(err).Int("unsent", report.Unsent).Msg("stopping notifications")
			break
		}

		if err := s.send(ctx, listing); err != nil {
			report.Failed++
			logger.Error().Err(err).Str("link", listing.Link).Msg("notification failed")
			continue
		}
		report.Sent++
		logger.Debug().Str("link", listing.Link).Msg("notification sent")
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info().
		Int("total", report.Extracted).
		Int("new", report.New).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("seen", seen.Len()).
		Dur("took", report.Duration).
		Msg("cycle finished")

	s.record(report, seen.Len())
	return report
}

// send lets a delivery that already started finish even if ctx is cancelled.
func (s *Service) send(ctx context.Context, listing model.Listing) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()
	return s.notifier.Send(sendCtx, listing)
}

func (s *Service) record(report CycleReport, seen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Cycles++
	s.status.Seen = seen
	s.status.LastCycle = &report
}

// Status returns a copy of the latest cycle state; safe to call from any goroutine.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	if st.LastCycle != nil {
		last := *st.LastCycle
		st.LastCycle = &last
	}
	return st
}
