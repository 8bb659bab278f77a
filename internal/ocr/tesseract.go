// Package ocr provides Tesseract-backed text recognition for scoreboard crops.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"runtime"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"scoreboard-analyzer/internal/scoreboard"
)

// DigitChars restricts stat-field recognition to decimal digits.
const DigitChars = "0123456789"

// Config configures an Engine.
type Config struct {
	// Language is the Tesseract language pack; defaults to "eng".
	Language string
	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string
	// Clients is the number of Tesseract handles; defaults to runtime.NumCPU().
	Clients int
	Logger  *zap.Logger
}

// Engine recognises text with a fixed set of Tesseract clients.
// A gosseract client is not safe for concurrent use, so each call borrows one.
type Engine struct {
	clients chan *gosseract.Client
	all     []*gosseract.Client
	logger  *zap.SugaredLogger
}

var _ scoreboard.TextReader = (*Engine)(nil)

// NewEngine creates an engine with cfg.Clients Tesseract clients.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Clients <= 0 {
		cfg.Clients = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	e := &Engine{
		clients: make(chan *gosseract.Client, cfg.Clients),
		logger:  cfg.Logger.Sugar(),
	}
	for i := 0; i < cfg.Clients; i++ {
		client, err := newClient(cfg)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.all = append(e.all, client)
		e.clients <- client
	}

	e.logger.Infow("OCR engine ready", "clients", cfg.Clients, "language", cfg.Language)
	return e, nil
}

func newClient(cfg Config) (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Scoreboard values are numbers and short labels, not dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return client, nil
}

// Close releases every Tesseract client.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range e.all {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.all = nil
	return firstErr
}

// ReadText recognises a single uniform block of text (PSM 6).
func (e *Engine) ReadText(ctx context.Context, img image.Image) (string, error) {
	text, err := e.recognize(ctx, img, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ReadDigits recognises digits only (PSM 6) and removes all whitespace.
func (e *Engine) ReadDigits(ctx context.Context, img image.Image) (string, error) {
	text, err := e.recognize(ctx, img, DigitChars)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), ""), nil
}

func (e *Engine) recognize(ctx context.Context, img image.Image, whitelist string) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	var client *gosseract.Client
	select {
	case client = <-e.clients:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { e.clients <- client }()

	// PSM 6 = Assume a single uniform block of text
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := client.SetWhitelist(whitelist); err != nil && whitelist != "" {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
