// Command seed loads item fixtures through the item service so that fixture
// rows obey the same validation and uniqueness rules as API writes.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/item-service/internal/config"
	"github.com/spec-kit/item-service/internal/domain"
	"github.com/spec-kit/item-service/internal/observability"
	"github.com/spec-kit/item-service/internal/persistence"
	"github.com/spec-kit/item-service/internal/repository"
	"github.com/spec-kit/item-service/internal/service"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

func main() {
	var fixturePath string
	var envFile string

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&fixturePath, "file", "", "YAML fixture file (default: built-in sample items)")
	flagSet.StringVar(&envFile, "env-file", "", "load environment variables from this file before reading config")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	fixtures, err := loadFixtures(fixturePath)
	if err != nil {
		logger.Fatal("invalid fixtures", zap.Error(err))
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("seeding requires POSTGRES_DSN")
	}
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	items := service.NewItemService(service.ItemDependencies{
		ItemRepo: repository.NewItemRepository(pg.PoolHandle()),
		Logger:   logger,
	})
	created, skipped, err := seed(ctx, items, fixtures, logger)
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seeding complete", zap.Int("created", created), zap.Int("skipped", skipped))
}

// seed creates each fixture. Rows that collide on email or special_id are
// skipped so the command can be re-run.
func seed(ctx context.Context, items *service.ItemService, fixtures []domain.ItemFields, logger *zap.Logger) (created, skipped int, err error) {
	for _, fields := range fixtures {
		item, err := items.CreateItem(ctx, domain.TierFullAccess, fields)
		if err != nil {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) && domainErr.Kind == apperrors.KindConflict {
				logger.Info("fixture already present", zap.String("email", fields.Email), zap.Int64("special_id", fields.SpecialID))
				skipped++
				continue
			}
			return created, skipped, err
		}
		logger.Info("created item", zap.Int64("id", item.ID), zap.String("name", item.Name))
		created++
	}
	return created, skipped, nil
}
