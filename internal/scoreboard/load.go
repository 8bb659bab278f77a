package scoreboard

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load opens and decodes a screenshot file.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &ImageReadError{Path: path, Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	return img, nil
}

// Decode decodes a screenshot in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &ImageReadError{Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	return img, nil
}
