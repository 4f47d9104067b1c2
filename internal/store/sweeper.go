package store

import (
	"context"
	"fmt"
	"log"
	"time"
)

// StartConnectionSweeper deletes expired Connection rows on an interval.
// The sweep is a safety net with bounded lag; live routing correctness
// comes from explicit deletes on terminal send errors.
func (s *Store) StartConnectionSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[SWEEP] connection sweeper started (interval=%s)", interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[SWEEP] connection sweeper stopped")
				return
			case <-ticker.C:
				n, err := s.sweepExpiredConnections(ctx)
				if err != nil {
					log.Printf("[SWEEP] sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[SWEEP] removed %d expired connections", n)
				}
			}
		}
	}()
}

func (s *Store) sweepExpiredConnections(ctx context.Context) (int64, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < NOW()`, s.t.Connections)
	res, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
