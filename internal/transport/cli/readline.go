package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/service/advisor"
	"github.com/sandevgo/healthbot/internal/service/ui"
	"github.com/sandevgo/healthbot/pkg/log"
)

type ReadLine struct {
	cfg     *config.AppConfig
	advisor *advisor.Advisor
	rl      *readline.Instance

	userHash   string
	consulting bool
}

func NewReadLine(adv *advisor.Advisor, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:     cfg,
		advisor: adv,
		rl:      rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("consultation started. Type 'exit' to quit.")

	if err := r.identify(ctx); err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		return err
	}

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if r.consulting {
			if q := r.advisor.CurrentQuestion(r.userHash); q != "" {
				fmt.Fprintf(r.rl.Stdout(), "%s\n", ui.QuestionStyle.Render(q))
			}
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return r.endSession(ctx)
				}
				continue
			} else if err == io.EOF {
				return r.endSession(ctx)
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit":
			return r.endSession(ctx)
		case line == "/history":
			r.showHistory(ctx)
			continue
		case line == "/new":
			if err := r.identify(ctx); err != nil {
				if err == readline.ErrInterrupt || err == io.EOF {
					return r.endSession(ctx)
				}
				return err
			}
			continue
		case strings.HasPrefix(line, "/ask "):
			r.freeQuestion(ctx, strings.TrimPrefix(line, "/ask "))
			continue
		}

		if r.consulting {
			r.answer(ctx, line)
		} else {
			r.freeQuestion(ctx, line)
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// identify prompts for an identifier until one is accepted and starts
// a fresh consultation session for it.
func (r *ReadLine) identify(ctx context.Context) error {
	for {
		fmt.Fprintf(r.rl.Stdout(), "%s\n", ui.QuestionStyle.Render("Please enter your name or ID:"))
		line, err := r.rl.Readline()
		if err != nil {
			return err
		}

		profile, isNew, err := r.advisor.IdentifyUser(ctx, strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(r.rl.Stdout(), "%v\n", err)
			continue
		}

		r.userHash = profile.UserHash
		r.consulting = true
		if isNew {
			fmt.Fprintln(r.rl.Stdout(), "Welcome! Let's set up your health profile first.")
		} else {
			fmt.Fprintln(r.rl.Stdout(), "Welcome back.")
		}
		return nil
	}
}

func (r *ReadLine) answer(ctx context.Context, line string) {
	res, err := r.advisor.ProcessAnswer(ctx, r.userHash, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("consultation step failed")
		fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if res.Message != "" {
		if res.Escalated {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", ui.WarnStyle.Render(res.Message))
		} else {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", res.Message)
		}
	}

	if res.Done {
		r.consulting = false
		fmt.Fprintln(r.rl.Stdout(), "Consultation finished. Ask me anything, or type '/new' to start over.")
	}
}

func (r *ReadLine) freeQuestion(ctx context.Context, query string) {
	res, err := r.advisor.StartFreeQuestion(ctx, r.userHash, query)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("free question failed")
		fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if res.LowConfidence {
		fmt.Fprintf(r.rl.Stdout(), "%s\n", ui.DescStyle.Render("(limited sources found, take this with care)"))
	}
	fmt.Fprintf(r.rl.Stdout(), "%s\n", res.Answer)
}

func (r *ReadLine) showHistory(ctx context.Context) {
	doc, err := r.advisor.HistorySummary(ctx, r.userHash)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "%v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), doc)
}

func (r *ReadLine) endSession(ctx context.Context) error {
	if r.userHash == "" {
		return nil
	}
	if err := r.advisor.EndSession(ctx, r.userHash); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to close session")
	}
	return nil
}
