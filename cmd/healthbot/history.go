package main

import (
	"fmt"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [identifier]",
	Short: "Show the stored health record for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := NewApp(ctx)
		defer a.Close(ctx)

		doc, err := a.advisor.HistorySummary(ctx, core.HashIdentifier(args[0]))
		if err != nil {
			return err
		}

		fmt.Println(doc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
