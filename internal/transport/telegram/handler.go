package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sandevgo/healthbot/internal/service/advisor"
	"github.com/sandevgo/healthbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

type chatState struct {
	userHash   string
	consulting bool
}

type handler struct {
	advisor *advisor.Advisor
	sender  *sender

	mu    sync.Mutex
	chats map[int64]*chatState
}

func newHandler(adv *advisor.Advisor) *handler {
	return &handler{
		advisor: adv,
		chats:   make(map[int64]*chatState),
	}
}

func (h *handler) state(chatID int64) *chatState {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.chats[chatID]
	if !ok {
		st = &chatState{}
		h.chats[chatID] = st
	}
	return st
}

// handleStart identifies the chat and begins a consultation session.
// The chat ID doubles as the stable user identifier.
func (h *handler) handleStart(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	st := h.state(c.Chat().ID)

	profile, isNew, err := h.advisor.IdentifyUser(ctx, fmt.Sprintf("telegram-%d", c.Chat().ID))
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("identify failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	st.userHash = profile.UserHash
	st.consulting = true

	greeting := "Welcome back."
	if isNew {
		greeting = "Welcome! Let's set up your health profile first."
	}
	if err := h.sender.sendMarkdown(ctx, c.Chat(), greeting, true); err != nil {
		return err
	}
	return h.askNext(ctx, c, st)
}

func (h *handler) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	st := h.state(c.Chat().ID)
	if st.userHash == "" {
		return c.Send("Send /start to begin a consultation.")
	}

	_ = c.Notify(tele.Typing)

	if !st.consulting {
		return h.answerFreeQuestion(ctx, c, st, c.Text())
	}

	res, err := h.advisor.ProcessAnswer(ctx, st.userHash, c.Text())
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("consultation step failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	if res.Message != "" {
		if err := h.sender.sendMarkdown(ctx, c.Chat(), res.Message, false); err != nil {
			return err
		}
	}

	if res.Done {
		st.consulting = false
		return c.Send("Consultation finished. Ask me anything, or send /new to start over.")
	}
	return h.askNext(ctx, c, st)
}

func (h *handler) handleAsk(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	st := h.state(c.Chat().ID)
	query := strings.TrimSpace(c.Message().Payload)
	if query == "" {
		return c.Send("Usage: /ask <your question>")
	}

	_ = c.Notify(tele.Typing)
	return h.answerFreeQuestion(ctx, c, st, query)
}

func (h *handler) handleHistory(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	st := h.state(c.Chat().ID)
	if st.userHash == "" {
		return c.Send("Send /start to begin a consultation.")
	}

	doc, err := h.advisor.HistorySummary(ctx, st.userHash)
	if err != nil {
		return c.Send(fmt.Sprintf("%v", err))
	}
	return h.sender.sendMarkdown(ctx, c.Chat(), doc, false)
}

func (h *handler) answerFreeQuestion(ctx context.Context, c tele.Context, st *chatState, query string) error {
	res, err := h.advisor.StartFreeQuestion(ctx, st.userHash, query)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("free question failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	answer := res.Answer
	if res.LowConfidence {
		answer += "\n\n_Limited sources were found for this question, take the answer with care._"
	}
	return h.sender.sendMarkdown(ctx, c.Chat(), answer, false)
}

func (h *handler) askNext(ctx context.Context, c tele.Context, st *chatState) error {
	q := h.advisor.CurrentQuestion(st.userHash)
	if q == "" {
		return nil
	}
	return h.sender.sendMarkdown(ctx, c.Chat(), q, true)
}
