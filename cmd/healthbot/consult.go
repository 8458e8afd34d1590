package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/healthbot/internal/transport/cli"
	"github.com/sandevgo/healthbot/pkg/log"
	"github.com/spf13/cobra"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Run an interactive consultation in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := NewApp(ctx)
		defer a.Close(ctx)

		rl, err := cli.NewReadLine(a.advisor, a.cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := rl.Shutdown(ctx); err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("failed to close terminal")
			}
		}()

		return rl.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(consultCmd)
}
