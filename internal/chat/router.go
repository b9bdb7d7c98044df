package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const addPrefix = "add "

// Replies sent back to the user when the bot fails.
const (
	AddFailedReply   = "Some error occurred while adding data."
	QueryFailedReply = "An error occurred. Please try again!"
)

// Bot is the question-answering collaborator the router hands messages to.
type Bot interface {
	Query(ctx context.Context, question string) (string, error)
	Add(ctx context.Context, source string) error
}

// Router decides whether a message ingests data or asks a question.
// It holds no mutable state and is safe for concurrent use.
type Router struct {
	bot    Bot
	logger *slog.Logger
}

func NewRouter(bot Bot, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		bot:    bot,
		logger: logger,
	}
}

// HandleMessage returns the text to reply with. It never fails: bot errors are
// logged and turned into a fixed reply.
func (r *Router) HandleMessage(ctx context.Context, message string) string {
	if strings.HasPrefix(message, addPrefix) {
		return r.addData(ctx, message)
	}
	return r.ask(ctx, message)
}

func (r *Router) addData(ctx context.Context, message string) string {
	// the payload is the last space separated token, "add a b" adds "b"
	parts := strings.Split(message, " ")
	data := parts[len(parts)-1]

	if err := r.bot.Add(ctx, data); err != nil {
		r.logger.Error("failed to add data", "data", data, "error", err)
		return AddFailedReply
	}
	return fmt.Sprintf("Added data from: %s", data)
}

func (r *Router) ask(ctx context.Context, message string) string {
	answer, err := r.bot.Query(ctx, message)
	if err != nil {
		r.logger.Error("failed to query", "message", message, "error", err)
		return QueryFailedReply
	}
	return answer
}
