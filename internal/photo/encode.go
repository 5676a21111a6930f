// Package photo turns captured camera files into embeddable
// attachments. Photos are downscaled to a bounded box and re-encoded
// as JPEG data URLs so a job record stays self-contained without
// ballooning past what SQLite and the print document can carry.
package photo

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/grabke213/proofpack/internal/job"
)

const (
	// maxEdge bounds the longest photo edge after normalization.
	maxEdge     = 1600
	jpegQuality = 82
)

// EncodeDataURL reads one captured image, normalizes it, and returns
// the embeddable data URL. Any decode failure is a capture failure:
// the caller reports it and leaves the job untouched.
func EncodeDataURL(r io.Reader) (job.Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		src = imaging.Fit(src, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}
	return job.Image("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// DecodeDataURL decodes an embedded attachment back into pixels.
func DecodeDataURL(img job.Image) (image.Image, error) {
	s := string(img)
	idx := strings.Index(s, ";base64,")
	if !strings.HasPrefix(s, "data:image/") || idx < 0 {
		return nil, fmt.Errorf("not an embedded image")
	}
	raw, err := base64.StdEncoding.DecodeString(s[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode attachment image: %w", err)
	}
	return decoded, nil
}
