package share

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	tokenBytes = 8
	qrSize     = 256
)

// NewToken returns a random 16 character hex share token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Links builds the public URLs that embed a share token.
type Links struct {
	base string
}

func NewLinks(frontendURL string) Links {
	return Links{base: strings.TrimRight(frontendURL, "/")}
}

// URL is the SPA page showing the shared note.
func (l Links) URL(token string) string {
	return l.base + "/share/" + token
}

// QRURL is the API endpoint returning the QR code for the share URL.
func (l Links) QRURL(token string) string {
	return l.base + "/api/notes/qr/" + token
}

// Info is returned when a share link is created or regenerated.
type Info struct {
	ShareURL    string `json:"shareUrl"`
	ShareLink   string `json:"shareLink"`
	ShareQRCode string `json:"shareQrCode"`
}

func (l Links) Info(token string) Info {
	return Info{
		ShareURL:    l.URL(token),
		ShareLink:   token,
		ShareQRCode: l.QRURL(token),
	}
}

// QRDataURL encodes content as a 256px black on white PNG QR code and
// returns it as a data URL.
func QRDataURL(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	q.ForegroundColor = color.Black
	q.BackgroundColor = color.White

	png, err := q.PNG(qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
