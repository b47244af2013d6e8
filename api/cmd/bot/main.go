package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mediaudit/api/internal/app"
	"mediaudit/api/internal/config"
	"mediaudit/api/internal/httpserver"
	"mediaudit/api/internal/logger"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/policy"
	"mediaudit/api/internal/telegram"
)

// maxInFlight bounds updates handled at once; each may wait minutes on an LLM.
const maxInFlight = 8

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	token := config.MustEnv("TELEGRAM_BOT_TOKEN")

	lg := logger.Must(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = lg.Sync() }()
	zap.ReplaceGlobals(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg, lg)
	defer a.Close()
	a.WarmLibrary(ctx)

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		lg.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false
	lg.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))

	r := &telegram.Router{
		Bot:         bot,
		Engines:     a.Engines,
		EngManager:  ocr.NewManager(a.Audit),
		Vision:      a.Vision,
		Library:     a.Library,
		Baseline:    policy.Default(),
		Temperature: cfg.AuditTemperature,
		Log:         lg.Named("telegram"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Health(a.Ping))

	dispatch := newDispatcher(r.HandleUpdate)

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		path, err := setWebhook(bot, webhookURL)
		if err != nil {
			lg.Fatal("webhook", zap.Error(err))
		}
		mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			upd, err := bot.HandleUpdate(req)
			if err != nil {
				lg.Warn("webhook: bad update", zap.Error(err))
				http.Error(w, "bad update", http.StatusBadRequest)
				return
			}
			dispatch(*upd)
		})
		lg.Info("webhook mode", zap.String("path", path))
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			lg.Warn("delete webhook", zap.Error(err))
		}
		go runPolling(ctx, bot, dispatch, lg)
	}

	srv := httpserver.New("0.0.0.0:"+cfg.Port, mux)
	if err := httpserver.Run(ctx, srv, lg); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
}

// newDispatcher runs handle in the background, at most maxInFlight at a time.
func newDispatcher(handle func(tgbotapi.Update)) func(tgbotapi.Update) {
	sem := make(chan struct{}, maxInFlight)
	return func(upd tgbotapi.Update) {
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			handle(upd)
		}()
	}
}

func setWebhook(bot *tgbotapi.BotAPI, baseURL string) (string, error) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return "", err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return "", err
	}
	return path, nil
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func backoff(err error) time.Duration {
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 15 * time.Second
	)
	return min(max(retryDelayFromError(err), baseDelay), maxDelay)
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update), lg *zap.Logger) {
	offset := 0
	for {
		if ctx.Err() != nil {
			lg.Info("polling: context cancelled")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := backoff(err)
			lg.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
