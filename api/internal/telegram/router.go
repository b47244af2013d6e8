package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/library"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/policy"
)

// BotAPI is the part of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

const callTimeout = 180 * time.Second

type Router struct {
	Bot     BotAPI
	Engines *ocr.Engines
	// EngManager holds the per-chat audit engine.
	EngManager *ocr.Manager
	// Vision extracts bills and insurer policies.
	Vision      ocr.Engine
	Library     *library.Library
	Baseline    policy.Loaded
	Temperature float32
	Log         *zap.Logger

	// Download fetches a Telegram file; nil uses an HTTP GET.
	Download func(ctx context.Context, url string) ([]byte, error)
}

func (r *Router) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.L()
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(*msg)
	case msg.Document != nil:
		r.acceptDocument(*msg)
	case len(strings.TrimSpace(msg.Text)) >= minPastedBill:
		// текст счёта, вставленный вручную
		getSession(cid).setBillText(strings.TrimSpace(msg.Text))
		r.sendWithKeyboard(cid, "Bill text received. Tap Cross check to audit it.", auditKeyboard())
	case msg.Text != "":
		r.send(cid, helpText)
	}
}

const minPastedBill = 40

const helpText = `Send a photo, an album or a PDF of a hospital bill and I will check it against the insurance policy.

Commands:
/policy - show the baseline policy
/insurer - choose an insurer policy (or baseline only)
/engine groq|gemini - choose the audit engine
/reset - start over`

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "🏥 MediAudit\n\n"+helpText)
	case "policy":
		r.sendLong(cid, r.Baseline.Baseline.Markdown())
	case "insurer":
		r.handleInsurerCommand(cid, args)
	case "engine":
		r.handleEngineCommand(cid, args)
	case "reset":
		resetSession(cid)
		r.EngManager.Reset(cid)
		r.send(cid, "Session cleared. Send a new bill.")
	default:
		r.send(cid, "Unknown command.\n\n"+helpText)
	}
}

// handleEngineCommand переключает движок аудита для чата.
func (r *Router) handleEngineCommand(chatID int64, args []string) {
	if len(args) == 0 {
		cur := "not configured"
		if e := r.EngManager.Get(chatID); e != nil {
			cur = e.Name() + " (" + e.GetModel() + ")"
		}
		r.send(chatID, "Current audit engine: "+cur+"\nUsage: /engine groq | /engine gemini")
		return
	}
	eng, err := r.Engines.GetEngine(args[0])
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, fmt.Sprintf("✅ Audit engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) handleInsurerCommand(chatID int64, args []string) {
	if r.Library == nil {
		r.send(chatID, "No insurer policies are available; audits use the baseline policy.")
		return
	}
	if len(args) > 0 {
		r.selectInsurer(chatID, strings.Join(args, " "))
		return
	}
	docs, err := r.Library.List()
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	cur := getSession(chatID).snapshot().Insurer
	if cur == "" {
		cur = "baseline only"
	}
	r.sendWithKeyboard(chatID, "Current insurer policy: "+cur+"\nChoose one:", insurerKeyboard(docs))
}

func (r *Router) selectInsurer(chatID int64, name string) {
	if name == "" || name == baselineOnly {
		getSession(chatID).setInsurer("")
		r.send(chatID, "✅ Auditing against the baseline policy only.")
		return
	}
	docs, err := r.Library.List()
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	for _, d := range docs {
		if d.Name == name {
			getSession(chatID).setInsurer(name)
			r.send(chatID, "✅ Insurer policy: "+name)
			return
		}
	}
	r.send(chatID, "❌ Unknown insurer policy: "+name)
}

func (r *Router) auditor(eng ocr.Engine) *audit.Auditor {
	return audit.New(eng,
		audit.WithModel(eng.GetModel()),
		audit.WithTemperature(r.Temperature),
		audit.WithLogger(r.log().With(zap.String("engine", eng.Name()))),
	)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendLong splits text into messages under the Telegram limit. The keyboard,
// if any, goes on the last one.
func (r *Router) sendLong(chatID int64, text string, kb ...tgbotapi.InlineKeyboardMarkup) {
	parts := splitMessage(text, messageLimit)
	for i, p := range parts {
		if i == len(parts)-1 && len(kb) > 0 {
			r.sendWithKeyboard(chatID, p, kb[0])
			continue
		}
		r.send(chatID, p)
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, "❌ "+describeError(err))
}

func (r *Router) clearKeyboard(chatID int64, msgID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, _ = r.Bot.Send(edit)
}
