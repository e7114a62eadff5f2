package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/economy"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

type catalogFile struct {
	Cases     []catalogCase     `yaml:"cases"`
	Giveaways []catalogGiveaway `yaml:"giveaways"`
}

type catalogCase struct {
	Slug     string        `yaml:"slug"`
	Name     string        `yaml:"name"`
	ImageURL string        `yaml:"image_url"`
	Price    string        `yaml:"price"`
	KeyPrice string        `yaml:"key_price"`
	Items    []catalogItem `yaml:"items"`
}

type catalogItem struct {
	Name     string `yaml:"name"`
	Rarity   string `yaml:"rarity"`
	ImageURL string `yaml:"image_url"`
	Price    string `yaml:"price"`
	Weight   int64  `yaml:"weight"`
}

type catalogGiveaway struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	TierRequired int    `yaml:"tier_required"`
	Prize        string `yaml:"prize"`
	StartsAt     string `yaml:"starts_at"`
	EndsAt       string `yaml:"ends_at"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	path := flag.String("catalog", "catalog.yaml", "catalog file to import")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal("Failed to read catalog", zap.Error(err))
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		logger.Fatal("Failed to parse catalog", zap.Error(err))
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()

	err = store.WithTx(ctx, func(q *storage.Queries) error {
		for _, cc := range catalog.Cases {
			caseID, err := q.UpsertCase(ctx, &models.Case{
				Slug:           cc.Slug,
				Name:           cc.Name,
				ImageURL:       cc.ImageURL,
				CasePriceCents: economy.ToMinorUnits(cc.Price),
				KeyPriceCents:  economy.ToMinorUnits(cc.KeyPrice),
				Active:         true,
			})
			if err != nil {
				return err
			}
			if err := q.ClearCaseItems(ctx, caseID); err != nil {
				return err
			}
			for _, item := range cc.Items {
				itemID, err := q.UpsertItem(ctx, &models.Item{
					Name:       item.Name,
					Rarity:     models.Rarity(item.Rarity),
					ImageURL:   item.ImageURL,
					PriceCents: economy.ToMinorUnits(item.Price),
				})
				if err != nil {
					return err
				}
				if err := q.LinkCaseItem(ctx, caseID, itemID, item.Weight); err != nil {
					return err
				}
			}
			logger.Info("Imported case", zap.String("slug", cc.Slug), zap.Int("items", len(cc.Items)))
		}

		for _, g := range catalog.Giveaways {
			if _, err := q.InsertGiveaway(ctx, &models.Giveaway{
				Title:        g.Title,
				Description:  g.Description,
				TierRequired: g.TierRequired,
				PrizeText:    g.Prize,
				StartsAt:     g.StartsAt,
				EndsAt:       g.EndsAt,
				Status:       "active",
				CreatedAt:    models.ISOTime(time.Now()),
			}); err != nil {
				return err
			}
			logger.Info("Imported giveaway", zap.String("title", g.Title))
		}
		return nil
	})
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Catalog import complete",
		zap.Int("cases", len(catalog.Cases)),
		zap.Int("giveaways", len(catalog.Giveaways)))
}
