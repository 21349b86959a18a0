package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vnreg-cli/internal/store"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "companies.db"
		}
		st, err = store.NewSQLite(path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
