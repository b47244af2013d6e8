package telegram

import (
	"bytes"
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/report"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch data := cb.Data; {
	case data == cbExtract:
		r.onExtract(cid, cb.Message.MessageID)
	case data == cbAudit:
		r.onAudit(cid, cb.Message.MessageID)
	case data == cbNew:
		r.clearKeyboard(cid, cb.Message.MessageID)
		resetSession(cid)
		r.send(cid, "Send the next bill: a photo, an album or a PDF.")
	case strings.HasPrefix(data, cbInsurer):
		r.clearKeyboard(cid, cb.Message.MessageID)
		if r.Library == nil {
			return
		}
		r.selectInsurer(cid, strings.TrimPrefix(data, cbInsurer))
	}
}

func (r *Router) onExtract(chatID int64, msgID int) {
	s := getSession(chatID)
	if !s.acquire() {
		r.send(chatID, "⏳ Still working on it…")
		return
	}
	defer s.release()

	snap := s.snapshot()
	if len(snap.Bill) == 0 {
		r.send(chatID, "No bill yet. Send a photo, an album or a PDF first.")
		return
	}

	r.clearKeyboard(chatID, msgID)
	r.send(chatID, "🔍 Reading the bill…")

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	text, err := ocr.Extract(ctx, r.Vision, snap.Bill, snap.BillName)
	if err != nil {
		r.log().Warn("bill extraction failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendWithKeyboard(chatID, "❌ "+describeError(err), extractKeyboard())
		return
	}
	if !s.storeExtracted(snap.Gen, text) {
		r.log().Info("bill replaced during extraction", zap.Int64("chat_id", chatID))
		r.send(chatID, "A new bill arrived while reading the previous one; tap Extract details on the new bill.")
		return
	}
	r.sendLong(chatID, "📝 Extracted bill details:\n\n"+text, auditKeyboard())
}

// onAudit runs the cross check. The extracted text survives a failure so the
// user can retry without another extraction.
func (r *Router) onAudit(chatID int64, msgID int) {
	s := getSession(chatID)
	if !s.acquire() {
		r.send(chatID, "⏳ Still working on it…")
		return
	}
	defer s.release()

	snap := s.snapshot()
	if strings.TrimSpace(snap.BillText) == "" {
		r.send(chatID, "Extract the bill details first.")
		return
	}
	eng := r.EngManager.Get(chatID)
	if eng == nil {
		r.send(chatID, "❌ No audit engine is configured.")
		return
	}

	r.clearKeyboard(chatID, msgID)
	r.send(chatID, "⚖️ Cross-checking against the policy…")

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var uploaded string
	if snap.Insurer != "" && r.Library != nil {
		text, err := r.Library.TextOrBaseline(ctx, snap.Insurer, r.Vision)
		if err != nil {
			r.send(chatID, "⚠️ Could not read "+snap.Insurer+"; auditing against the baseline policy only.")
		}
		uploaded = text
	}

	res, err := r.auditor(eng).AuditClaim(ctx, snap.BillText, r.Baseline.Baseline.CompactPrompt(), uploaded)
	if err != nil {
		r.log().Warn("audit failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendWithKeyboard(chatID, "❌ "+describeError(err), auditKeyboard())
		return
	}
	if !s.setResult(snap.Gen, res) {
		r.log().Info("bill replaced during audit", zap.Int64("chat_id", chatID))
		r.send(chatID, "A new bill arrived during the cross check; this result is discarded.")
		return
	}

	r.send(chatID, formatBanner(res))
	r.sendLong(chatID, formatRows(res))
	if steps := formatNextSteps(res.Eligibility); steps != "" {
		r.send(chatID, steps)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, res); err != nil {
		r.SendError(chatID, err)
	} else {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: report.Filename, Bytes: buf.Bytes()})
		doc.Caption = "⬇️ Full report (CSV)"
		if _, err := r.Bot.Send(doc); err != nil {
			r.log().Warn("telegram send report failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
	r.sendWithKeyboard(chatID, "Done.", newAuditKeyboard())
}
