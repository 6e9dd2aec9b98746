/*
scheduler.go - Automated EPI expiry sweeper

PURPOSE:
  Periodically checks open equipment issuances whose validity has lapsed
  and transitions them to the expired status, so the compliance views and
  alert endpoints reflect reality without waiting for a manual pass.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Classifies each open issuance against the calendar
  - Skips issuances already returned or expired
  - Logs each sweep for audit

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewExpirySweeper(store)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - epi/epi.go: MarkExpired transition
  - handlers.go: EPIAlerts endpoint (read-time view of the same data)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/store/sqlite"
)

// ExpirySweeper marks lapsed equipment issuances as expired.
type ExpirySweeper struct {
	Store         *sqlite.Store
	CheckInterval time.Duration
	Enabled       bool

	// Now is swappable in tests.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirySweeper creates a new sweeper.
func NewExpirySweeper(store *sqlite.Store) *ExpirySweeper {
	return &ExpirySweeper{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           func() time.Time { return time.Now().UTC() },
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (es *ExpirySweeper) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Sweeper] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the sweeper.
func (es *ExpirySweeper) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (es *ExpirySweeper) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.Sweep(context.Background())

	for {
		select {
		case <-es.ticker.C:
			es.Sweep(context.Background())
		case <-es.stop:
			return
		}
	}
}

// Sweep performs one pass. It returns the number of issuances it
// transitioned, so it can also be driven manually.
func (es *ExpirySweeper) Sweep(ctx context.Context) int {
	now := es.Now()

	open, err := es.Store.ListOpenIssuances(ctx)
	if err != nil {
		log.Printf("[Sweeper] Failed to list open issuances: %v", err)
		return 0
	}

	expired := 0
	for _, iss := range open {
		if !epi.MarkExpired(iss, now) {
			continue
		}
		if err := es.Store.SaveIssuance(ctx, iss); err != nil {
			log.Printf("[Sweeper] Failed to save issuance %s: %v", iss.ID, err)
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Printf("[Sweeper] Marked %d issuance(s) expired", expired)
	}
	return expired
}
