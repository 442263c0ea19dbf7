// Package qrcode renders authentication challenges as QR code images.
//
// Renderer wraps github.com/skip2/go-qrcode and produces either raw PNG bytes
// or a base64 data URL suitable for pushing to a browser:
//
//	r := qrcode.NewRenderer(256)
//	url, err := r.DataURL(challenge)
//
// Empty content fails with ErrEmptyContent; encoder failures are joined with
// ErrFailedToGenerate.
package qrcode
