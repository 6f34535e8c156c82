package recognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Image optimization constants. Inbound photos are bounded to MaxDimension on
// the longest side and re-encoded as JPEG before the recognition call.
const (
	MaxDimension = 1024
	JPEGQuality  = 80
)

// OptimizeImage decodes data, scales it down when either dimension exceeds
// MaxDimension (preserving aspect ratio) and re-encodes it as JPEG.
// A decode failure means the attachment is not a usable image; the flow
// re-prompts the same step in that case.
func OptimizeImage(data []byte) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > MaxDimension || height > MaxDimension {
		scale := float64(MaxDimension) / float64(width)
		if height > width {
			scale = float64(MaxDimension) / float64(height)
		}
		newWidth := int(float64(width) * scale)
		newHeight := int(float64(height) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
		slog.Debug("OptimizeImage scaled down", "format", format, "from_width", width, "from_height", height, "to_width", newWidth, "to_height", newHeight)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode optimized image: %w", err)
	}
	return buf.Bytes(), nil
}
