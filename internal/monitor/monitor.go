package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-tracker-bot/internal/extract"
	"price-tracker-bot/internal/notify"
	"price-tracker-bot/internal/types"
)

// historyLimit bounds how many observations back an alert chart looks.
const historyLimit = 200

// Store is the slice of the persistence layer a monitoring run needs.
type Store interface {
	GetActiveProducts() ([]types.Product, error)
	UpdatePriceState(id int64, price float64, checkedAt time.Time) error
	MarkNotified(id int64, notifiedAt time.Time) error
	ClearNotified(id int64) error
	InsertPricePoint(productID int64, price float64, recordedAt time.Time) error
	GetPriceHistory(productID int64, limit int) ([]types.PricePoint, error)
}

// Renderer produces rendered document content for a URL.
type Renderer interface {
	HTML(ctx context.Context, url string) (string, error)
}

// FailureKind classifies a recoverable per-product failure.
type FailureKind string

const (
	FailureFetch    FailureKind = "fetch"
	FailureNotFound FailureKind = "not_found"
	FailureParse    FailureKind = "parse"
	FailureStore    FailureKind = "store"
)

// Result is the outcome of checking one product.
type Result struct {
	ProductID int64
	URL       string
	Price     float64
	Notified  bool
	Failure   FailureKind
	Err       error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Report aggregates one full monitoring pass.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Checked   int
	Failed    int
	Notified  int
	Results   []Result
}

type Config struct {
	// Rules are extraction selectors in priority order.
	Rules []string
	// Workers caps concurrent browser sessions.
	Workers int
	// RunTimeout bounds a whole pass; items not finished in time fail with
	// a fetch error and are retried next cycle.
	RunTimeout time.Duration
}

// Runner executes monitoring passes over all active products.
type Runner struct {
	store    Store
	renderer Renderer
	notifier notify.Notifier
	cfg      Config

	// OnResult, when set, observes every per-product outcome.
	OnResult func(Result)

	mu         sync.Mutex
	lastReport *Report
}

func NewRunner(store Store, renderer Renderer, notifier notify.Notifier, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = extract.DefaultRules
	}
	return &Runner{
		store:    store,
		renderer: renderer,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Run executes one pass: snapshot active products, check each exactly once
// with bounded parallelism, aggregate results. A product failure is recorded
// and never aborts the pass.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	products, err := r.store.GetActiveProducts()
	if err != nil {
		return nil, errors.Wrap(err, "could not list active products")
	}

	report := &Report{
		StartedAt: time.Now(),
		Results:   make([]Result, len(products)),
	}
	log.Infof("🔄 Starting monitoring run over %d products", len(products))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Results[i] = r.checkProduct(ctx, products[i])
			}
		}()
	}
	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, res := range report.Results {
		report.Checked++
		if res.Failed() {
			report.Failed++
		}
		if res.Notified {
			report.Notified++
		}
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
	report.Duration = time.Since(report.StartedAt)

	r.mu.Lock()
	r.lastReport = report
	r.mu.Unlock()

	log.Infof("✅ Monitoring run finished: %d checked, %d failed, %d notified in %s",
		report.Checked, report.Failed, report.Notified, report.Duration.Round(time.Millisecond))
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debug(spew.Sdump(report))
	}
	return report, nil
}

// LastReport returns the report of the most recent completed run, or nil.
func (r *Runner) LastReport() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReport
}

func (r *Runner) checkProduct(ctx context.Context, p types.Product) Result {
	res := Result{ProductID: p.ID, URL: p.URL}

	html, err := r.renderer.HTML(ctx, p.URL)
	if err != nil {
		res.Failure, res.Err = FailureFetch, err
		log.Errorf("❌ Fetch failed for product %d (%s): %v", p.ID, p.URL, err)
		return res
	}

	price, err := extract.Price(html, r.cfg.Rules)
	if err != nil {
		res.Failure = FailureParse
		if errors.Is(err, extract.ErrPriceNotFound) {
			res.Failure = FailureNotFound
		}
		res.Err = err
		log.Errorf("❌ Extraction failed for product %d (%s): %v", p.ID, p.URL, err)
		return res
	}
	res.Price = price
	log.Debugf("product %d (%s): current price %.2f, target %.2f", p.ID, p.URL, price, p.TargetPrice)

	now := time.Now()
	if err := r.store.UpdatePriceState(p.ID, price, now); err != nil {
		res.Failure, res.Err = FailureStore, err
		log.Errorf("❌ Could not persist price for product %d: %v", p.ID, err)
		return res
	}
	if err := r.store.InsertPricePoint(p.ID, price, now); err != nil {
		// History feeds charts only; losing a point is not a check failure.
		log.Errorf("could not record price point for product %d: %v", p.ID, err)
	}

	if price < p.TargetPrice && r.shouldNotify(p) {
		delivered, err := r.sendAlert(ctx, p, price, now)
		res.Notified = delivered
		if err != nil {
			res.Failure, res.Err = FailureStore, err
		}
	}
	return res
}

// shouldNotify implements alert hysteresis: once an alert has fired, the
// price must recover to the target before a new drop alerts again.
func (r *Runner) shouldNotify(p types.Product) bool {
	if p.LastNotified == nil {
		return true
	}
	return p.LastCheckedPrice != nil && *p.LastCheckedPrice >= p.TargetPrice
}

// sendAlert delivers one drop alert. The bool reports whether delivery
// succeeded; a non-nil error means the alert went out but the notified
// state could not be persisted, so the next cycle may repeat it.
func (r *Runner) sendAlert(ctx context.Context, p types.Product, price float64, now time.Time) (bool, error) {
	log.Infof("💥 Price dropped for product %d (%s): %.2f < %.2f", p.ID, p.URL, price, p.TargetPrice)

	history, err := r.store.GetPriceHistory(p.ID, historyLimit)
	if err != nil {
		log.Errorf("could not load price history for product %d: %v", p.ID, err)
	}

	alert := notify.Alert{Product: p, Price: price, History: history, At: now}
	if err := r.notifier.Notify(ctx, alert); err != nil {
		log.Errorf("❌ Notification failed for product %d (%s): %v", p.ID, p.URL, err)
		// Re-arm the item so the undelivered drop is retried next cycle.
		// Without this the persisted below-target price would suppress it.
		if p.LastNotified != nil {
			if cerr := r.store.ClearNotified(p.ID); cerr != nil {
				log.Errorf("could not re-arm product %d: %v", p.ID, cerr)
			}
		}
		return false, nil
	}

	if err := r.store.MarkNotified(p.ID, now); err != nil {
		log.Errorf("could not mark product %d notified: %v", p.ID, err)
		return true, errors.Wrapf(err, "could not mark product %d notified", p.ID)
	}
	return true, nil
}
