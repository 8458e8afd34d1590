package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/internal/service/ui"
	"github.com/spf13/cobra"
)

var askUser string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off health question",
	Long:  `Answers a free-form question from the knowledge base without running a full consultation. With --user, the stored profile (allergies, conditions) is taken into account.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := NewApp(ctx)
		defer a.Close(ctx)

		var userHash string
		if askUser != "" {
			userHash = core.HashIdentifier(askUser)
		}

		res, err := a.advisor.StartFreeQuestion(ctx, userHash, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if res.LowConfidence {
			fmt.Println(ui.DescStyle.Render("(limited sources found, take this with care)"))
		}
		fmt.Println(res.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "identifier whose profile should inform the answer")
	rootCmd.AddCommand(askCmd)
}
