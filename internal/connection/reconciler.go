package connection

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/storage"
	"context"
	"log"
	"time"
)

// Reconciler periodically restores edges for accepted requests that lost them.
type Reconciler struct {
	Storage  storage.Storage
	Interval time.Duration
}

func NewReconciler(s storage.Storage, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = config.DefaultReconcileInterval
	}
	return &Reconciler{Storage: s, Interval: interval}
}

// Run reconciles once immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("INFO: Connection reconciler started, interval %s", r.Interval)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			log.Println("INFO: Connection reconciler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass and returns the number of repaired edges.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	repaired, err := r.Storage.ReconcileConnections(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("ERROR: Connection reconciliation failed: %v", err)
		}
		return 0, err
	}
	if repaired > 0 {
		log.Printf("INFO: Reconciliation repaired %d connections", repaired)
	}
	return repaired, nil
}
