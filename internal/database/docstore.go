package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/docstore"
)

// OpenDocStore connects the document store backend named by cfg.DocStore.
// The returned close function releases the underlying connection.
func OpenDocStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (docstore.Store, func(), error) {
	switch cfg.DocStore {
	case config.DocStorePostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewPostgres(pool), pool.Close, nil

	case config.DocStoreMongo:
		db, err := NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("MongoDB disconnect failed")
			}
		}
		return docstore.NewMongo(db), closeFn, nil

	case config.DocStoreMemory:
		log.Warn().Msg("Using in-memory document store, data is lost on restart")
		return docstore.NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown DOC_STORE %q", cfg.DocStore)
	}
}
