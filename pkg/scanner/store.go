package scanner

import (
	"context"
	"fmt"

	"github.com/waftester/apiprobe/pkg/store"
	"github.com/waftester/apiprobe/pkg/target"
)

// RunAndStore scans t and hands the outcome to sink, attributed to
// t.Owner. The scan is returned even when storing fails.
func (s *Scanner) RunAndStore(ctx context.Context, t *target.Target, sink store.Sink) (Scan, error) {
	scan := s.Scan(ctx, t)
	if sink == nil {
		return scan, nil
	}
	// A cancelled scan is still stored; the write gets its own budget.
	if err := sink.Save(context.WithoutCancel(ctx), scan.ID, scan.Target.Owner, scan.Target, scan.Outcome); err != nil {
		return scan, fmt.Errorf("store scan %s: %w", scan.ID, err)
	}
	return scan, nil
}
