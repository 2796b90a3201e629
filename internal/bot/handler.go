// Package bot implements the conversation handler and its Telegram transport.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/cinemabot/internal/catalog"
	"github.com/ashureev/cinemabot/internal/domain"
	"github.com/ashureev/cinemabot/internal/store"
	"github.com/google/uuid"
)

// Event is one inbound conversation event: a command, a button press or
// free text. Command is empty for free text.
type Event struct {
	ChatID    int64
	UserID    int64
	UserName  string
	MessageID int64
	Command   string
	Text      string
}

// SendOptions controls how a text message is sent.
type SendOptions struct {
	ReplyTo  int64 // message to reply to; 0 sends a plain message
	Keyboard [][]Button
}

// Messenger delivers outbound messages to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
	SendPhoto(ctx context.Context, chatID int64, url string) error
}

// Publisher receives finished lookups.
type Publisher interface {
	Publish(event domain.LookupEvent)
}

// Options holds the optional collaborators of a Handler.
type Options struct {
	MirrorURLTemplate string
	ConversationLog   ConversationLogger
	Feed              Publisher
	Logger            *slog.Logger
}

// Handler dispatches conversation events. It keeps no per-user state; the
// history store is the only memory across events.
type Handler struct {
	repo      store.Repository
	resolver  catalog.Resolver
	messenger Messenger

	mirrorTemplate string
	log            ConversationLogger
	feed           Publisher
	logger         *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(repo store.Repository, resolver catalog.Resolver, messenger Messenger, opts Options) *Handler {
	if opts.ConversationLog == nil {
		opts.ConversationLog = noopConversationLogger{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		repo:           repo,
		resolver:       resolver,
		messenger:      messenger,
		mirrorTemplate: opts.MirrorURLTemplate,
		log:            opts.ConversationLog,
		feed:           opts.Feed,
		logger:         opts.Logger,
	}
}

// Handle processes one event. Catalog and storage failures are reported to
// the user as a generic apology; only delivery failures are returned.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	userID := strconv.FormatInt(ev.UserID, 10)
	lookupID := uuid.NewString()
	logger := h.logger.With("lookup_id", lookupID, "user_id", userID, "chat_id", ev.ChatID)

	h.log.Log(ConversationLogEvent{
		UserID:    userID,
		ChatID:    ev.ChatID,
		LookupID:  lookupID,
		Direction: "inbound",
		EventType: eventType(ev),
		Content:   normalizeText(ev.Text),
	})

	var err error
	switch ev.Command {
	case CommandStart, CommandHelp:
		err = h.handleHelp(ctx, ev)
	case CommandStats:
		err = h.handleStats(ctx, ev, userID)
	case CommandHistory:
		err = h.handleHistory(ctx, ev, userID)
	case "":
		err = h.handleQuery(ctx, ev, userID, lookupID, logger)
	default:
		return fmt.Errorf("unknown command %q", ev.Command)
	}
	if err == nil {
		return nil
	}

	var deliveryErr *deliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.err
	}

	var te *catalog.TransportError
	logger.Error("Event handling failed",
		"command", ev.Command,
		"transport", errors.As(err, &te),
		"error", err,
	)
	h.log.Log(ConversationLogEvent{
		UserID:    userID,
		ChatID:    ev.ChatID,
		LookupID:  lookupID,
		Direction: "outbound",
		EventType: "failure",
		Meta:      map[string]any{"error": err.Error()},
	})
	if err := h.reply(ctx, ev, failureText); err != nil {
		return err
	}
	return h.followUp(ctx, ev.ChatID)
}

func (h *Handler) handleHelp(ctx context.Context, ev Event) error {
	return h.send(ctx, ev.ChatID, HelpText(ev.UserName), SendOptions{ReplyTo: ev.MessageID, Keyboard: ActionKeyboard()})
}

func (h *Handler) handleStats(ctx context.Context, ev Event, userID string) error {
	rows, err := h.repo.Statistics(ctx, userID)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}
	if err := h.reply(ctx, ev, StatsText(rows)); err != nil {
		return err
	}
	return h.followUp(ctx, ev.ChatID)
}

func (h *Handler) handleHistory(ctx context.Context, ev Event, userID string) error {
	titles, err := h.repo.RecentHistory(ctx, userID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if err := h.reply(ctx, ev, HistoryText(titles)); err != nil {
		return err
	}
	return h.followUp(ctx, ev.ChatID)
}

func (h *Handler) handleQuery(ctx context.Context, ev Event, userID, lookupID string, logger *slog.Logger) error {
	query := strings.TrimSpace(ev.Text)
	started := time.Now()

	res, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		h.publish(lookupID, userID, query, domain.Resolution{Outcome: domain.OutcomeFailed, Ref: domain.NoRef})
		return fmt.Errorf("resolve %q: %w", query, err)
	}

	logger.Info("Lookup resolved",
		"outcome", res.Outcome,
		"kind", res.Ref.Kind,
		"catalog_id", res.Ref.ID,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	h.publish(lookupID, userID, query, res)
	h.log.Log(ConversationLogEvent{
		UserID:    userID,
		ChatID:    ev.ChatID,
		LookupID:  lookupID,
		Direction: "outbound",
		EventType: "lookup_" + string(res.Outcome),
		Content:   res.Metadata.Title(),
		Meta: map[string]any{
			"kind":       res.Ref.Kind,
			"catalog_id": res.Ref.ID,
			"reason":     res.Reason,
		},
	})

	switch res.Outcome {
	case domain.OutcomeFound:
		return h.renderFound(ctx, ev, userID, res)
	case domain.OutcomeMalformed:
		if err := h.reply(ctx, ev, malformedText); err != nil {
			return err
		}
	default:
		if err := h.reply(ctx, ev, res.Reason); err != nil {
			return err
		}
	}
	return h.followUp(ctx, ev.ChatID)
}

// renderFound sends poster, info, links and mirror button, and records the
// lookup in the history. The mirror link uses the reference returned with
// this resolution.
func (h *Handler) renderFound(ctx context.Context, ev Event, userID string, res domain.Resolution) error {
	md := res.Metadata

	if err := h.sendPhoto(ctx, ev.ChatID, *md.Poster.URL); err != nil {
		return err
	}
	if err := h.send(ctx, ev.ChatID, InfoText(md), SendOptions{}); err != nil {
		return err
	}

	if keyboard := LinkKeyboard(md.WatchLinks()); len(keyboard) == 0 {
		if err := h.send(ctx, ev.ChatID, noLinksText, SendOptions{}); err != nil {
			return err
		}
	} else {
		if err := h.send(ctx, ev.ChatID, linksText, SendOptions{Keyboard: keyboard}); err != nil {
			return err
		}
	}

	if err := h.repo.AppendHistory(ctx, userID, md.Title()); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	if h.mirrorTemplate != "" && res.Ref.Resolved() {
		mirror := [][]Button{{{Text: mirrorButton, URL: MirrorURL(h.mirrorTemplate, res.Ref)}}}
		if err := h.send(ctx, ev.ChatID, mirrorText, SendOptions{Keyboard: mirror}); err != nil {
			return err
		}
	}

	return h.followUp(ctx, ev.ChatID)
}

func (h *Handler) publish(lookupID, userID, query string, res domain.Resolution) {
	if h.feed == nil {
		return
	}
	h.feed.Publish(domain.LookupEvent{
		LookupID:  lookupID,
		UserID:    userID,
		Query:     query,
		Outcome:   res.Outcome,
		Kind:      res.Ref.Kind,
		CatalogID: res.Ref.ID,
		Title:     res.Metadata.Title(),
		At:        time.Now().UTC(),
	})
}

func (h *Handler) reply(ctx context.Context, ev Event, text string) error {
	return h.send(ctx, ev.ChatID, text, SendOptions{ReplyTo: ev.MessageID})
}

func (h *Handler) followUp(ctx context.Context, chatID int64) error {
	return h.send(ctx, chatID, followUpText, SendOptions{Keyboard: ActionKeyboard()})
}

// send delivers text, split into several messages when it exceeds the
// chat message limit. ReplyTo applies to the first part, the keyboard to
// the last.
func (h *Handler) send(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	parts := splitMessage(text, maxMessageLength)
	for i, part := range parts {
		partOpts := SendOptions{}
		if i == 0 {
			partOpts.ReplyTo = opts.ReplyTo
		}
		if i == len(parts)-1 {
			partOpts.Keyboard = opts.Keyboard
		}
		if err := h.messenger.SendText(ctx, chatID, part, partOpts); err != nil {
			return &deliveryError{err: err}
		}
	}
	return nil
}

func (h *Handler) sendPhoto(ctx context.Context, chatID int64, url string) error {
	if err := h.messenger.SendPhoto(ctx, chatID, url); err != nil {
		return &deliveryError{err: err}
	}
	return nil
}

// deliveryError marks failures to reach the chat, which cannot be reported
// back to the user.
type deliveryError struct{ err error }

func (e *deliveryError) Error() string { return "deliver message: " + e.err.Error() }
func (e *deliveryError) Unwrap() error { return e.err }

func eventType(ev Event) string {
	if ev.Command == "" {
		return "query"
	}
	return "command_" + ev.Command
}
