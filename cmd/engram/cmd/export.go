package cmd

import (
	"os"

	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/internal/db"
	"github.com/engramhq/engram/memory"
	"github.com/spf13/cobra"
)

func newExportCmd(params *rootParams) *cobra.Command {
	exportParams := &struct {
		TenantID string
		UserID   string
		Format   string
		Output   string
	}{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's memories as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportParams.TenantID == "" || exportParams.UserID == "" {
				return errors.Wrapf(errors.ErrInvalidParams, "tenant and user are required")
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

			// The export path never embeds or gates, so the heavier
			// collaborators stay unwired.
			svc := memory.NewService(memory.NewGormStore(conn), nil, nil, nil, conf.Memory, logger)

			out, err := svc.ExportByUser(cmd.Context(), exportParams.TenantID, exportParams.UserID, memory.ExportFormat(exportParams.Format))
			if err != nil {
				return err
			}

			if exportParams.Output == "" || exportParams.Output == "-" {
				_, err := cmd.OutOrStdout().Write([]byte(out))
				return errors.WithStack(err)
			}
			if err := os.WriteFile(exportParams.Output, []byte(out), 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", exportParams.Output)
			}

			logger.Info("export written", "path", exportParams.Output, "format", exportParams.Format)
			return nil
		},
	}

	cmd.Flags().StringVar(&exportParams.TenantID, "tenant", "", "Tenant id (api key id)")
	cmd.Flags().StringVar(&exportParams.UserID, "user", "", "User id to export")
	cmd.Flags().StringVar(&exportParams.Format, "format", "json", "Export format: json or csv")
	cmd.Flags().StringVarP(&exportParams.Output, "output", "o", "-", "Output file, or - for stdout")

	return cmd
}
