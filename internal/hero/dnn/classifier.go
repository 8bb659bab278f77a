// Package dnn runs the hero portrait classifier with OpenCV's DNN module.
package dnn

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"scoreboard-analyzer/internal/hero"
)

// InputSize is the square input resolution the network was trained on.
const InputSize = 224

// Classifier wraps an ONNX export of the portrait network.
// The weights are loaded once and never modified; the net object itself keeps
// per-call input state, so forward passes are serialised.
type Classifier struct {
	mu       sync.Mutex
	net      gocv.Net
	classes  []hero.Hero
	teamSize int
	logger   *zap.SugaredLogger

	observe func(batch int, d time.Duration)
}

var _ hero.Classifier = (*Classifier)(nil)

// Load reads an ONNX model. classes defaults to hero.Classes.
func Load(path string, classes []hero.Hero, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(classes) == 0 {
		classes = hero.Classes
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load hero model %s", path)
	}

	logger.Sugar().Infow("hero model loaded", "path", path, "classes", len(classes))
	return &Classifier{
		net:      net,
		classes:  classes,
		teamSize: 5,
		logger:   logger.Sugar(),
	}, nil
}

// LoadOrUnavailable loads the model at path, falling back to
// hero.Unavailable when path is empty or the model cannot be read.
func LoadOrUnavailable(path string, logger *zap.Logger) hero.Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		logger.Warn("no hero model configured; classification disabled")
		return hero.Unavailable{}
	}
	c, err := Load(path, nil, logger)
	if err != nil {
		logger.Sugar().Warnw("hero model unavailable; classification disabled", "error", err)
		return hero.Unavailable{}
	}
	return c
}

// OnBatch registers a callback receiving batch size and forward-pass duration.
func (c *Classifier) OnBatch(fn func(batch int, d time.Duration)) {
	c.observe = fn
}

// Close releases the network.
func (c *Classifier) Close() error {
	return c.net.Close()
}

// Classify runs one batched forward pass over all icons.
func (c *Classifier) Classify(ctx context.Context, icons []image.Image, ownOnly bool) (hero.Teams, error) {
	if len(icons) == 0 {
		return hero.Teams{Own: []hero.Hero{}}, nil
	}
	if err := ctx.Err(); err != nil {
		return hero.Teams{}, err
	}

	mats := make([]gocv.Mat, 0, len(icons))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	for i, icon := range icons {
		// ImageToMatRGB yields OpenCV's BGR channel order.
		m, err := gocv.ImageToMatRGB(icon)
		if err != nil {
			return hero.Teams{}, fmt.Errorf("icon %d: failed to convert image: %w", i, err)
		}
		mats = append(mats, m)
	}

	blob := gocv.NewMat()
	defer blob.Close()
	// BGR -> RGB, resize to the training resolution, scale to [0,1].
	gocv.BlobFromImages(mats, &blob, 1.0/255.0, image.Pt(InputSize, InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false, gocv.MatTypeCV32F)

	start := time.Now()
	c.mu.Lock()
	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	c.mu.Unlock()
	defer out.Close()
	if c.observe != nil {
		c.observe(len(icons), time.Since(start))
	}

	if out.Rows() != len(icons) || out.Cols() != len(c.classes) {
		return hero.Teams{}, fmt.Errorf("unexpected model output %dx%d for %d icons and %d classes",
			out.Rows(), out.Cols(), len(icons), len(c.classes))
	}

	predicted := make([]hero.Hero, len(icons))
	logits := make([]float64, len(c.classes))
	for i := range icons {
		for j := range logits {
			logits[j] = float64(out.GetFloatAt(i, j))
		}
		predicted[i] = hero.Gate(hero.Softmax(logits), c.classes)
	}
	c.logger.Debugw("heroes classified", "icons", len(icons), "heroes", predicted)

	return hero.SplitTeams(predicted, c.teamSize, ownOnly), nil
}
