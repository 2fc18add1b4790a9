package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/novachat/config"
	srv "github.com/mohammad-safakhou/novachat/internal/server"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var ingest = &cobra.Command{
		Use:   "ingest",
		Short: "Run one news ingestion pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			setLogFlags(cfg.General.Debug)
			if !cfg.Backend.Embedded {
				return fmt.Errorf("ingestion needs backend.embedded with postgres configured")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps, err := srv.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()
			stats, err := deps.Ingest.Run(ctx)
			if err != nil {
				return err
			}
			log.Printf("ingestion finished: %s", stats)
			return nil
		},
	}
	ingest.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return ingest
}
