package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avvvet/deckvault-services/internal/syncsvc/provider"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxFailureSamples bounds the failures kept in a report; the count is exact.
	MaxFailureSamples    = 50
	defaultProgressEvery = 1000
)

type Fetcher interface {
	FetchAll(ctx context.Context) ([]provider.Record, error)
}

type CardUpserter interface {
	UpsertCard(ctx context.Context, c *models.Card, refreshedAt time.Time) (bool, error)
}

// Locker serializes runs across processes that share one catalog database.
type Locker interface {
	// TryLockSync reports ok=false when another process holds the lock.
	TryLockSync(ctx context.Context) (unlock func(), ok bool, err error)
}

type Option func(*Synchronizer)

// WithClock overrides the source of price_refreshed_at and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

func WithInstanceID(id string) Option {
	return func(s *Synchronizer) { s.instanceID = id }
}

// WithLocker makes Run skip with models.ErrSyncInProgress while another
// process holds l.
func WithLocker(l Locker) Option {
	return func(s *Synchronizer) { s.locker = l }
}

func WithProgressEvery(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.progressEvery = n
		}
	}
}

// Synchronizer mirrors the provider catalog into the card store.
type Synchronizer struct {
	fetcher       Fetcher
	store         CardUpserter
	locker        Locker
	now           func() time.Time
	instanceID    string
	progressEvery int
	running       atomic.Bool
}

func New(fetcher Fetcher, store CardUpserter, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fetcher:       fetcher,
		store:         store,
		now:           time.Now,
		progressEvery: defaultProgressEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a run is in flight.
func (s *Synchronizer) Running() bool {
	return s.running.Load()
}

// Run fetches the whole catalog once and upserts every record by external id.
//
// A provider failure aborts before anything is written. A record that cannot
// be normalized or stored is counted and skipped. Records are upserted one by
// one, so a cancelled run leaves the catalog partially refreshed; the next run
// converges it. Only one run may be active in this process, and with
// WithLocker only one across processes: overlapping calls get
// models.ErrSyncInProgress.
func (s *Synchronizer) Run(ctx context.Context) (models.SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncReport{}, models.ErrSyncInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLockSync(ctx)
		if err != nil {
			return models.SyncReport{}, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !ok {
			return models.SyncReport{}, models.ErrSyncInProgress
		}
		defer unlock()
	}

	started := s.now().UTC()
	report := models.SyncReport{InstanceID: s.instanceID, StartedAt: started}
	logger := log.WithField("instance", s.instanceID)

	logger.Info("starting catalog sync")

	records, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		var pe *models.ProviderError
		if !errors.As(err, &pe) {
			err = &models.ProviderError{Err: err}
		}
		s.finish(&report)
		logger.WithError(err).Error("catalog sync aborted")
		return report, err
	}

	report.Fetched = len(records)
	logger.WithField("fetched", report.Fetched).Info("fetched catalog from provider")

	// one timestamp per run, truncated to what Postgres stores
	refreshedAt := started.Truncate(time.Microsecond)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			s.finish(&report)
			logger.WithFields(log.Fields{
				"processed": i,
				"fetched":   report.Fetched,
			}).Warn("catalog sync cancelled")
			return report, err
		}

		card, rerr := Normalize(rec)
		if rerr == nil {
			inserted, err := s.store.UpsertCard(ctx, card, refreshedAt)
			if err != nil {
				rerr = &models.RecordError{ExternalID: rec.ID, Reason: "upsert failed", Err: err}
			} else {
				report.Upserted++
				if inserted {
					report.Inserted++
				} else {
					report.Updated++
				}
			}
		}

		if rerr != nil {
			report.Failed++
			if len(report.Failures) < MaxFailureSamples {
				report.Failures = append(report.Failures, rerr)
			}
			logger.WithFields(log.Fields{
				"external_id": rerr.ExternalID,
				"reason":      rerr.Reason,
			}).WithError(rerr.Err).Warn("skipping card")
		}

		if n := i + 1; n%s.progressEvery == 0 {
			logger.WithFields(log.Fields{
				"processed": n,
				"fetched":   report.Fetched,
			}).Info("catalog sync progress")
		}
	}

	s.finish(&report)
	logger.WithFields(log.Fields{
		"fetched":     report.Fetched,
		"upserted":    report.Upserted,
		"inserted":    report.Inserted,
		"updated":     report.Updated,
		"failed":      report.Failed,
		"duration_ms": report.DurationMs,
	}).Info("catalog sync complete")

	return report, nil
}

func (s *Synchronizer) finish(r *models.SyncReport) {
	r.FinishedAt = s.now().UTC()
	r.DurationMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
}

// Normalize maps a provider record onto a catalog card.
func Normalize(rec provider.Record) (*models.Card, *models.RecordError) {
	if rec.ID <= 0 {
		return nil, &models.RecordError{ExternalID: rec.ID, Reason: "missing id"}
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, &models.RecordError{ExternalID: rec.ID, Reason: "missing name"}
	}

	card := &models.Card{
		ExternalID:  rec.ID,
		Name:        name,
		CardType:    rec.Type,
		Attribute:   rec.Attribute,
		SubType:     rec.Race,
		Attack:      rec.Atk,
		Defense:     rec.Def,
		Description: rec.Desc,
	}

	if len(rec.CardImages) > 0 && rec.CardImages[0].ImageURL != "" {
		url := rec.CardImages[0].ImageURL
		card.ImageURL = &url
	}
	if len(rec.CardPrices) > 0 {
		card.TCGPlayerPrice = ParsePrice(string(rec.CardPrices[0].TCGPlayer))
		card.CardMarketPrice = ParsePrice(string(rec.CardPrices[0].CardMarket))
	}
	return card, nil
}

// ParsePrice turns provider price text into a decimal. Empty, unparseable and
// negative values are null; zero is a real price and stays zero.
func ParsePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
