package ocr

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// enhanceForOCR preprocesses a scanned image so tesseract has an easier
// time: grayscale for contrast, then contrast, sharpen, brightness and
// gamma passes. The result is written next to the input as PNG.
func enhanceForOCR(path string) (string, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	out := strings.TrimSuffix(path, filepath.Ext(path)) + "_enhanced.png"
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("save enhanced image: %w", err)
	}
	return out, nil
}
