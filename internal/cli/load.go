package cli

import (
	"context"

	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// load discovers the workspace tests. A partial failure is reported as a
// warning as long as some tests loaded.
func (a *app) load(ctx context.Context, s *session) (*tree.Snapshot, error) {
	snap, err := s.explorer.Load(ctx)
	if err != nil {
		if snap.CaseCount() == 0 {
			return nil, err
		}
		a.out.Warning("some tests could not be loaded: %v", err)
	}
	return snap, nil
}
