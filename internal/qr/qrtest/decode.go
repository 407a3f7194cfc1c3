// Package qrtest reads QR codes back so tests can check what was encoded.
// It is kept out of package qr so the server binary does not link a decoder.
package qrtest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"eventcheckin/internal/qr"
)

// Decode reads back the text stored in a data URI produced by qr.Encoder.
func Decode(dataURI string) (string, error) {
	if !strings.HasPrefix(dataURI, qr.DataURIPrefix) {
		return "", errors.New("qr: not a png data uri")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, qr.DataURIPrefix))
	if err != nil {
		return "", fmt.Errorf("qr: base64: %w", err)
	}
	return DecodePNG(raw)
}

// DecodePNG reads back the text stored in a PNG QR code image.
func DecodePNG(raw []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("qr: png: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("qr: bitmap: %w", err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("qr: decode: %w", err)
	}
	return res.GetText(), nil
}
