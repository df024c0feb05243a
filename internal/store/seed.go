package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/polyglot-go/internal/model"
)

// DefaultLanguageCode is seeded as the default, active language.
const DefaultLanguageCode = "en"

// BootstrapKeyName names the API key created on first run.
const BootstrapKeyName = "bootstrap"

// Seed creates initial data in the database: the common language set
// (default language active, the rest inactive) and a bootstrap API key
// whose raw value is logged exactly once.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedLanguages(ctx, queries); err != nil {
		return err
	}
	return seedBootstrapKey(ctx, queries)
}

func seedLanguages(ctx context.Context, queries *Queries) error {
	n, err := queries.CountLanguages(ctx)
	if err != nil {
		return fmt.Errorf("counting languages: %w", err)
	}
	if n > 0 {
		slog.Info("languages already seeded, skipping")
		return nil
	}

	now := time.Now()
	for i, cl := range model.CommonLanguages {
		isDefault := cl.Code == DefaultLanguageCode
		_, err := queries.CreateLanguage(ctx, CreateLanguageParams{
			Code:       cl.Code,
			Name:       cl.Name,
			NativeName: cl.NativeName,
			IsDefault:  isDefault,
			IsActive:   isDefault,
			Direction:  cl.Direction,
			Position:   int64(i),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("seeding language %q: %w", cl.Code, err)
		}
	}

	slog.Info("seeded languages", "count", len(model.CommonLanguages), "default", DefaultLanguageCode)
	return nil
}

func seedBootstrapKey(ctx context.Context, queries *Queries) error {
	n, err := queries.CountAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("counting api keys: %w", err)
	}
	if n > 0 {
		slog.Info("api keys already exist, skipping bootstrap key")
		return nil
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generating bootstrap key: %w", err)
	}

	perms, _ := json.Marshal(model.AllPermissions())
	now := time.Now()
	key, err := queries.CreateAPIKey(ctx, CreateAPIKeyParams{
		Name:        BootstrapKeyName,
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: string(perms),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating bootstrap key: %w", err)
	}

	slog.Info("created bootstrap API key",
		"id", key.ID,
		"name", key.Name,
		"key", rawKey,
	)

	return nil
}
