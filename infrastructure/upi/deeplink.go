// Package upi builds UPI payment deep-links and decides how a visitor should
// open them.
package upi

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	Scheme          = "upi://pay"
	CurrencyINR     = "INR"
	QuickChartURL   = "https://quickchart.io/qr"
	DefaultQRSize   = 300
	LocalQRImageURL = "/tracker/qr.png"
)

// DeepLink is a upi://pay request.
type DeepLink struct {
	PayeeAddress string
	PayeeName    string
	Amount       int64
	Currency     string
}

func NewDeepLink(upiID string, amount int64, payeeName string) DeepLink {
	return DeepLink{
		PayeeAddress: upiID,
		PayeeName:    payeeName,
		Amount:       amount,
		Currency:     CurrencyINR,
	}
}

// String renders the link verbatim. Values are not URL-encoded: UPI apps
// receive exactly the payee address and name they were configured with.
func (d DeepLink) String() string {
	currency := d.Currency
	if currency == "" {
		currency = CurrencyINR
	}
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("?pa=")
	b.WriteString(d.PayeeAddress)
	b.WriteString("&pn=")
	b.WriteString(d.PayeeName)
	b.WriteString("&am=")
	b.WriteString(strconv.FormatInt(d.Amount, 10))
	b.WriteString("&cu=")
	b.WriteString(currency)
	return b.String()
}

// QRSource maps a deep-link to the URL of an image encoding it.
type QRSource func(link DeepLink) string

// QuickChartSource embeds the URL-encoded deep-link into a QR image endpoint.
func QuickChartSource(endpoint string, size int) QRSource {
	if endpoint == "" {
		endpoint = QuickChartURL
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	return func(link DeepLink) string {
		return endpoint + "?text=" + url.QueryEscape(link.String()) + "&size=" + strconv.Itoa(size)
	}
}

// LocalSource points at the QR image rendered by this server.
func LocalSource(path string) QRSource {
	if path == "" {
		path = LocalQRImageURL
	}
	return func(DeepLink) string { return path }
}
