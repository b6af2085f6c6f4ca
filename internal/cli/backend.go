package cli

import (
	"fmt"

	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/lambdaboot"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/rs/zerolog/log"
)

// Backend is the storage selected by the configuration.
type Backend struct {
	Store store.ProjectStore
	// Publisher is nil unless storage.asset_bucket is set.
	Publisher *s3util.ArchivePublisher
	// Resource names the store location for startup logs.
	Resource string

	closeFn func() error
}

// Close releases the store.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// OpenBackend opens the project store named by storage.backend. AWS
// clients are created only when the DynamoDB backend or an asset bucket is
// configured.
func OpenBackend(cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	if cfg.Storage.AssetBucket != "" || cfg.Storage.Backend == config.BackendDynamo {
		aws := lambdaboot.InitAWS()
		clients := lambdaboot.InitS3(aws.Config, cfg.Storage.AssetBucket)
		b.Publisher = &s3util.ArchivePublisher{
			Bucket:    clients.Bucket,
			Presigner: clients.Presigner,
			TTL:       cfg.PresignTTL(),
		}
		if cfg.Storage.Backend == config.BackendDynamo {
			b.Store = lambdaboot.InitDynamo(aws.Config, cfg.Storage.DynamoTable, clients.Bucket)
			b.Resource = cfg.Storage.DynamoTable
		}
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b.Store = store.NewMemoryStore()
		b.Resource = "memory"
	case config.BackendSQLite:
		sq, err := store.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Store = sq
		b.Resource = sq.Path()
		b.closeFn = sq.Close
	case config.BackendDynamo:
		// opened with the bucket above
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	log.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("resource", b.Resource).
		Bool("publisher", b.Publisher != nil).
		Msg("Project store opened")
	return b, nil
}
