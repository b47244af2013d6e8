package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mediaudit/api/internal/util"
)

const maxDocumentBytes = 20 << 20

func (r *Router) fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	if r.Download != nil {
		return r.Download(ctx, url)
	}
	return download(ctx, url)
}

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	imgBytes, err := r.fetch(context.Background(), ph.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	bi, _ := batches.LoadOrStore(key, &photoBatch{
		ChatID: cid, Key: key, MediaGroupID: msg.MediaGroupID, images: make([][]byte, 0, 4),
	})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, imgBytes)
	first := len(b.images) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(debounce, func() { r.processBatch(key) })
	b.mu.Unlock()

	if first {
		r.send(cid, "Photo received. If the bill has several pages, send them one after another and I will stitch them together.")
	}
}

func (r *Router) processBatch(key string) {
	bi, ok := batches.Load(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	batches.Delete(key)
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}

	merged, err := combineAsOne(images)
	if err != nil {
		r.SendError(chatID, fmt.Errorf("stitching pages: %w", err))
		return
	}
	r.setBill(chatID, merged, "bill.jpg", len(images))
}

// acceptDocument takes a PDF or an image sent as a file.
func (r *Router) acceptDocument(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	if doc.FileSize > maxDocumentBytes {
		r.send(cid, "❌ The file is too large. Send a document under 20 MB.")
		return
	}
	data, err := r.fetch(context.Background(), doc.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	name := filepath.Base(strings.TrimSpace(doc.FileName))
	if name == "." || name == "/" {
		name = "bill"
	}
	mime := util.MimeForFile(name, data)
	if mime != util.MimePDF && !strings.HasPrefix(mime, "image/") {
		r.send(cid, "❌ Unsupported file type ("+mime+"). Send a PDF or an image of the bill.")
		return
	}
	if mime == util.MimePDF && !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	r.setBill(cid, data, name, 1)
}

func (r *Router) setBill(chatID int64, data []byte, name string, pages int) {
	getSession(chatID).setBill(data, name, pages)
	r.log().Info("bill received", zap.Int64("chat_id", chatID), zap.Int("pages", pages), zap.Int("bytes", len(data)))

	text := "📄 Bill received."
	if pages > 1 {
		text = fmt.Sprintf("📄 Bill received (%d pages stitched).", pages)
	}
	r.sendWithKeyboard(chatID, text+" Tap Extract details to read it.", extractKeyboard())
}

func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	widths := make([]int, 0, len(images))
	heights := make([]int, 0, len(images))

	for _, b := range images {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			if try, err2 := tryDecodeStrict(b); err2 == nil {
				img = try
			} else {
				return nil, err
			}
		}
		decoded = append(decoded, img)
		bounds := img.Bounds()
		widths = append(widths, bounds.Dx())
		heights = append(heights, bounds.Dy())
	}

	maxW := 0
	sumH := 0
	for i := range decoded {
		maxW = max(maxW, widths[i])
		sumH += heights[i]
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	// страницы по центру, сверху вниз
	y := 0
	for i, img := range decoded {
		w, h := widths[i], heights[i]
		x := (maxW - w) / 2
		draw.Draw(dst, image.Rect(x, y, x+w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	final := image.Image(dst)
	if totalPx := maxW * sumH; totalPx > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(totalPx))
		newW := max(1, int(float64(maxW)*scale+0.5))
		newH := max(1, int(float64(sumH)*scale+0.5))
		final = scaleDownNN(dst, newW, newH)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func tryDecodeStrict(b []byte) (image.Image, error) {
	switch util.SniffMimeHTTP(b) {
	case util.MimeJPEG:
		return jpeg.Decode(bytes.NewReader(b))
	case util.MimePNG:
		return png.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func scaleDownNN(src image.Image, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()
	for y := 0; y < newH; y++ {
		sy := sb.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := sb.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

var httpc = &http.Client{Timeout: 60 * time.Second}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
}
