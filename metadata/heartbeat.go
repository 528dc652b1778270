package metadata

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gomartian/adapter/internal/safego"
)

// DefaultHeartbeatInterval is the historical cadence (~4 minutes) the
// adapter this module's contract was distilled from used, preserved here
// for Host compatibility.
const DefaultHeartbeatInterval = 4 * time.Minute

// Heartbeat periodically forces a journal marker for the "heartbeat" key,
// independent of the main flow, so a Host watching for liveness during a
// long-running main doesn't conclude the invocation is stuck. It is
// cancelled when the phase completes; its failures are logged and
// discarded, never escalated to the main flow.
type Heartbeat struct {
	store    *Store
	interval time.Duration
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewHeartbeat builds a Heartbeat for store, ticking every interval. If
// interval is zero, DefaultHeartbeatInterval is used.
func NewHeartbeat(store *Store, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{store: store, interval: interval, doneCh: make(chan struct{})}
}

// Start launches the ticker in a panic-safe background goroutine.
func (h *Heartbeat) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	safego.SafeGo("martian_heartbeat", func() { h.run(ctx) })
}

// Stop cancels the ticker and waits for its goroutine to exit.
func (h *Heartbeat) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.doneCh
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.doneCh)

	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := h.store.Journal("heartbeat", true); err != nil {
				h.store.Log(logrus.WarnLevel, "heartbeat journal failed: "+err.Error())
			}
			timer.Reset(h.interval)
		}
	}
}
