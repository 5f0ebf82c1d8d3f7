package recordstore

import (
	"context"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

func (s *Store) Configuration(ctx context.Context) (hr.Configuration, error) {
	d, err := s.load(ctx)
	if err != nil {
		return hr.Configuration{}, err
	}
	return d.Configuration, nil
}

// UpdateConfiguration shallow-merges p over the configuration and stamps
// dataAtualizacao.
func (s *Store) UpdateConfiguration(ctx context.Context, p Patch) (hr.Configuration, error) {
	var cfg hr.Configuration
	err := s.mutate(ctx, func(d *document, now time.Time) error {
		next, err := applyPatch(d.Configuration, p, "dataCriacao", "dataAtualizacao")
		if err != nil {
			return err
		}
		next.UpdatedAt = now
		d.Configuration = next
		cfg = next
		return nil
	})
	if err != nil {
		return hr.Configuration{}, err
	}
	s.notify(ctx, Change{Collection: "configuracoes", Action: ActionUpdate, At: cfg.UpdatedAt})
	return cfg, nil
}
