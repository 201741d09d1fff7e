package service

import (
	"github.com/skip2/go-qrcode"
)

const (
	qrImageSize = 512
	qrFolder    = "qr-codes"
)

// PNGRenderer draws menu URLs as black-on-white PNGs.
type PNGRenderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewPNGRenderer() PNGRenderer {
	return PNGRenderer{Size: qrImageSize, Level: qrcode.Medium}
}

func (r PNGRenderer) Render(content string) ([]byte, error) {
	size := r.Size
	if size == 0 {
		size = qrImageSize
	}
	return qrcode.Encode(content, r.Level, size)
}

var _ QRRenderer = PNGRenderer{}
