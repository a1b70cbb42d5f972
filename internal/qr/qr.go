// Package qr renders scannable codes that point at generated images.
package qr

import (
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length of rendered codes in pixels.
const DefaultSize = 256

// Renderer encodes URLs as PNG QR codes.
type Renderer struct {
	// Size is the image edge in pixels; non-positive selects DefaultSize.
	Size int
}

// Render returns a PNG bitmap encoding link, or nil when link is not an
// absolute http(s) URL or cannot be encoded.
func (r Renderer) Render(link string) []byte {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(link, qrcode.Low, size)
	if err != nil {
		return nil
	}
	return png
}
