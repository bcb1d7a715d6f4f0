package analytics

import (
	"LinkHub-Backend/internal/domain"
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Visit is a raw visit captured by the page-serving layer, before enrichment.
type Visit struct {
	LinkID     int64
	SubLinkID  *int64
	Kind       domain.EventKind
	OccurredAt time.Time
	IPAddress  string
	UserAgent  string
	Referrer   string
	DeviceType string
	Browser    string
	OS         string
	Country    string // already known country, skips the geo lookup
	Decision   string
}

// EventStore is the part of the storage the processor writes to.
type EventStore interface {
	AppendEvent(ctx context.Context, event *domain.VisitEvent) error
}

// CountryLookup resolves an IP address to a country code, "" when unknown.
type CountryLookup interface {
	LookupCountry(ctx context.Context, ip string) string
}

// ProcessorInterface defines the interface for visit processing
type ProcessorInterface interface {
	Submit(visit *Visit) error
	Start() error
	Stop() error
	GetStats() map[string]interface{}
}

// ProcessorConfig holds configuration for the analytics processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of retry attempts for failed jobs
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for the queue to drain on Stop
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Processor enriches visits and appends them to the event log asynchronously.
type Processor struct {
	config   ProcessorConfig
	store    EventStore
	geo      CountryLookup
	log      *zap.Logger
	jobQueue chan *Visit
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
	mu       sync.RWMutex
}

// NewProcessor creates a new analytics processor. geo may be nil.
func NewProcessor(store EventStore, geo CountryLookup, log *zap.Logger, config ProcessorConfig) *Processor {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:   config,
		store:    store,
		geo:      geo,
		log:      log,
		jobQueue: make(chan *Visit, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing visits
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}
	if p.stopped {
		return fmt.Errorf("processor cannot be restarted")
	}

	p.log.Info("starting analytics processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop closes the queue and waits for the workers to drain it. Visits still queued
// when the shutdown timeout expires are abandoned.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	p.log.Info("stopping analytics processor", zap.Int("pending", len(p.jobQueue)))

	close(p.jobQueue)
	p.started = false
	p.stopped = true

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timeout := p.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	select {
	case <-done:
		p.cancel()
		p.log.Info("analytics processor stopped gracefully")
		return nil
	case <-time.After(timeout):
		p.cancel()
		p.log.Warn("analytics processor shutdown timeout reached", zap.Int("abandoned", len(p.jobQueue)))
		return fmt.Errorf("shutdown timeout reached")
	}
}

// Submit queues a visit for asynchronous processing. It never blocks: when the
// queue is full the visit is dropped and an error returned.
func (p *Processor) Submit(visit *Visit) error {
	if visit == nil {
		return fmt.Errorf("nil visit")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	select {
	case p.jobQueue <- visit:
		p.log.Debug("visit submitted for processing", zap.Int64("link_id", visit.LinkID))
		return nil
	default:
		p.log.Error("analytics queue is full, dropping visit",
			zap.Int64("link_id", visit.LinkID),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return fmt.Errorf("analytics queue is full")
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("analytics worker started")

	for {
		select {
		case visit, ok := <-p.jobQueue:
			if !ok {
				log.Debug("analytics worker stopped")
				return
			}
			p.processWithRetry(log, visit)
		case <-p.ctx.Done():
			log.Info("analytics worker received shutdown signal")
			return
		}
	}
}

// processWithRetry appends one visit, retrying with exponential backoff
func (p *Processor) processWithRetry(log *zap.Logger, visit *Visit) {
	event := p.enrich(visit)

	var lastErr error
	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
		err := p.store.AppendEvent(ctx, event)
		cancel()

		if err == nil {
			if attempt > 1 {
				log.Info("visit recorded after retry",
					zap.Int64("link_id", visit.LinkID),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("failed to record visit",
			zap.Int64("link_id", visit.LinkID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			log.Info("worker shutdown during retry delay")
			return
		}
	}

	log.Error("visit dropped after all retries",
		zap.Int64("link_id", visit.LinkID),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// enrich turns a raw visit into an event: country lookup and visitor hash.
// The raw IP address is never stored.
func (p *Processor) enrich(visit *Visit) *domain.VisitEvent {
	occurredAt := visit.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	country := visit.Country
	if country == "" && p.geo != nil && visit.IPAddress != "" {
		ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
		country = p.geo.LookupCountry(ctx, visit.IPAddress)
		cancel()
	}

	return &domain.VisitEvent{
		LinkID:      visit.LinkID,
		SubLinkID:   visit.SubLinkID,
		Kind:        visit.Kind,
		OccurredAt:  occurredAt,
		DeviceType:  visit.DeviceType,
		Browser:     visit.Browser,
		OS:          visit.OS,
		Country:     country,
		Referrer:    visit.Referrer,
		VisitorHash: VisitorHash(visit.IPAddress, visit.UserAgent),
		Decision:    visit.Decision,
	}
}

// VisitorHash derives an opaque visitor identifier from the IP address and
// User-Agent. Returns "" when both are empty.
func VisitorHash(ip, userAgent string) string {
	if ip == "" && userAgent == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// GetStats returns processor statistics
func (p *Processor) GetStats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
		"retry_attempts": p.config.RetryAttempts,
	}
}
