// Package qr renders sign-in URLs as inline PNG QR codes.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// negative size in go-qrcode means pixels per module
	pixelsPerModule = 10
	recoveryLevel   = qrcode.Low
)

// DataURIPrefix starts every payload produced by DataURI.
const DataURIPrefix = "data:image/png;base64,"

// Encoder turns strings into QR code images. The zero value is ready to use.
type Encoder struct{}

// PNG encodes content as a PNG image with a 4-module quiet zone.
func (Encoder) PNG(content string) ([]byte, error) {
	code, err := qrcode.New(content, recoveryLevel)
	if err != nil {
		return nil, fmt.Errorf("qr: encode %d bytes: %w", len(content), err)
	}
	png, err := code.PNG(-pixelsPerModule)
	if err != nil {
		return nil, fmt.Errorf("qr: render png: %w", err)
	}
	return png, nil
}

// DataURI encodes content as a base64 PNG data URI for inline display.
func (e Encoder) DataURI(content string) (string, error) {
	png, err := e.PNG(content)
	if err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
