package telegram

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/magiaym/cartelera/internal/notify"
	"github.com/magiaym/cartelera/internal/snapshot"
	"github.com/magiaym/cartelera/internal/state"
)

// SnapshotSource supplies the latest session snapshot for query commands.
// The poller implements it; commands never hit providers directly.
type SnapshotSource interface {
	Current(ctx context.Context, force bool) (*snapshot.Snapshot, error)
}

// Bot handles incoming commands and button presses.  It shares the state
// store with the poll loop; both run in the same process and the store
// re-reads the file per operation, so no extra coordination is needed.
type Bot struct {
	Client *Client
	Source SnapshotSource
	Store  *state.Store
	Limit  int // message chunking limit; 0 means notify.DefaultLimit
}

// Run long-polls for updates until the context is cancelled.  Transport
// errors back off briefly and the loop continues; the bot never crashes the
// process over a failed poll.
func (b *Bot) Run(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := b.Client.GetUpdates(ctx, offset, 50)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("bot: getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		b.handleCommand(ctx, u.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *Message) {
	cmd, arg := splitCommand(msg.Text)
	chatID := msg.Chat.ID
	switch cmd {
	case "/start":
		b.sendMenu(ctx, chatID)
	case "/status":
		b.replySummary(ctx, chatID, arg, 10)
	case "/evento":
		if arg == "" {
			b.reply(ctx, chatID, "Uso: /evento <texto>")
			return
		}
		b.replySummary(ctx, chatID, arg, 20)
	case "/fecha":
		if arg == "" {
			b.reply(ctx, chatID, "Uso: /fecha YYYY-MM-DD")
			return
		}
		b.replyQuery(ctx, chatID, "📅 Funciones el "+arg, func(s *snapshot.Snapshot) []snapshot.Entry {
			return s.ByDate(arg)
		})
	case "/stock":
		threshold := notify.IntOrDefault(arg, 10)
		b.replyQuery(ctx, chatID, "⚠️ Poco stock", func(s *snapshot.Snapshot) []snapshot.Entry {
			return s.LowStock(threshold)
		})
	case "/agotadas":
		b.replyQuery(ctx, chatID, "🚫 Agotadas", func(s *snapshot.Snapshot) []snapshot.Entry {
			return s.SoldOut()
		})
	case "/suscribir":
		b.reply(ctx, chatID, subscribeText(b.Store.Subscribe(chatID)))
	case "/desuscribir":
		b.reply(ctx, chatID, unsubscribeText(b.Store.Unsubscribe(chatID)))
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) {
	if err := b.Client.AnswerCallbackQuery(ctx, q.ID); err != nil {
		log.Printf("bot: answer callback failed: %v", err)
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	switch {
	case q.Data == "status":
		b.replySummary(ctx, chatID, "", 10)
	case strings.HasPrefix(q.Data, "evento_exact:"):
		b.replySummary(ctx, chatID, strings.TrimPrefix(q.Data, "evento_exact:"), 20)
	case q.Data == "sub:on":
		b.reply(ctx, chatID, subscribeText(b.Store.Subscribe(chatID)))
	case q.Data == "sub:off":
		b.reply(ctx, chatID, unsubscribeText(b.Store.Unsubscribe(chatID)))
	default:
		b.reply(ctx, chatID, "No entendí tu selección 😅")
	}
}

// sendMenu shows the /start inline keyboard: up to six show buttons in two
// columns, an "all shows" button and the subscribe toggle for this chat.
func (b *Bot) sendMenu(ctx context.Context, chatID int64) {
	snap, err := b.Source.Current(ctx, false)
	if err != nil {
		b.reply(ctx, chatID, "Error leyendo datos: "+err.Error())
		return
	}

	var rows [][]InlineKeyboardButton
	var row []InlineKeyboardButton
	shows := snap.Shows()
	if len(shows) > 6 {
		shows = shows[:6]
	}
	for _, name := range shows {
		row = append(row, InlineKeyboardButton{Text: name, CallbackData: "evento_exact:" + name})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []InlineKeyboardButton{{Text: "🪄 Todos", CallbackData: "status"}})
	if b.Store.IsSubscribed(chatID) {
		rows = append(rows, []InlineKeyboardButton{{Text: "🔕 Desuscribirme", CallbackData: "sub:off"}})
	} else {
		rows = append(rows, []InlineKeyboardButton{{Text: "🔔 Suscribirme", CallbackData: "sub:on"}})
	}

	err = b.Client.SendMessageMarkup(ctx, chatID,
		"🎩 ¡Hola! Soy el bot de la cartelera.\n¿De qué show querés saber hoy?",
		&InlineKeyboardMarkup{InlineKeyboard: rows})
	if err != nil {
		log.Printf("bot: send menu failed: %v", err)
	}
}

func (b *Bot) replySummary(ctx context.Context, chatID int64, filter string, top int) {
	snap, err := b.Source.Current(ctx, false)
	if err != nil {
		b.reply(ctx, chatID, "Error leyendo datos: "+err.Error())
		return
	}
	b.reply(ctx, chatID, notify.RenderSummary(snap, filter, top))
}

func (b *Bot) replyQuery(ctx context.Context, chatID int64, title string, query func(*snapshot.Snapshot) []snapshot.Entry) {
	snap, err := b.Source.Current(ctx, false)
	if err != nil {
		b.reply(ctx, chatID, "Error leyendo datos: "+err.Error())
		return
	}
	b.reply(ctx, chatID, notify.RenderEntries(title, query(snap)))
}

// reply sends text to a chat, chunked at line boundaries when it exceeds
// the transport limit.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	for _, part := range notify.Split(text, b.Limit) {
		if err := b.Client.SendMessage(ctx, chatID, part); err != nil {
			log.Printf("bot: reply to %d failed: %v", chatID, err)
			return
		}
	}
}

func subscribeText(changed bool) string {
	if changed {
		return "✅ Suscripción activa. Te avisaré cuando suban las ventas o aparezcan funciones nuevas."
	}
	return "Ya estabas suscrito ✅"
}

func unsubscribeText(changed bool) string {
	if changed {
		return "❌ Suscripción cancelada. Ya no enviaré alertas."
	}
	return "No estabas suscrito."
}

func splitCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmd, arg = text[:i], strings.TrimSpace(text[i+1:])
	} else {
		cmd = text
	}
	// Commands may arrive as /status@BotName in groups.
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), arg
}
