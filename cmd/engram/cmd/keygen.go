package cmd

import (
	"fmt"
	"time"

	"github.com/engramhq/engram/auth"
	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/internal/db"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newKeygenCmd(params *rootParams) *cobra.Command {
	keygenParams := &struct {
		Name      string
		ExpiresIn time.Duration
	}{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Mint a new tenant API key",
		Long:  "Mints a new API key, stores its hash, and prints the raw key once. The raw key cannot be recovered later.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keygenParams.Name == "" {
				return errors.Wrapf(errors.ErrInvalidParams, "name is required")
			}

			conf, logger, err := params.loadConfig()
			if err != nil {
				return err
			}

			conn, err := db.OpenDB(conf.Database.DSN)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.CloseDB(conn); err != nil {
					logger.Warn("failed to close database", "err", err)
				}
			}()

			rawKey, hash, err := auth.GenerateKey(conf.Auth.KeyPrefix)
			if err != nil {
				return err
			}

			key := &entity.APIKey{
				ID:      uuid.NewString(),
				Name:    keygenParams.Name,
				KeyHash: hash,
				Active:  true,
			}
			if keygenParams.ExpiresIn > 0 {
				expiresAt := time.Now().Add(keygenParams.ExpiresIn)
				key.ExpiresAt = &expiresAt
			}

			if err := auth.NewGormKeyStore(conn).Create(cmd.Context(), key); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tenant id: %s\napi key:   %s\n", key.ID, rawKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&keygenParams.Name, "name", "", "Display name for the key")
	cmd.Flags().DurationVar(&keygenParams.ExpiresIn, "expires-in", 0, "Optional validity window, e.g. 720h")

	return cmd
}
