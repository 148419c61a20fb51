package paymentgateway

import (
	"errors"
	"net/url"
	"time"
)

var (
	// ErrInvalidSignature is returned when the callback MAC does not verify.
	// It is an expected security-relevant outcome, never a crash: callers
	// must route it to their rejection path.
	ErrInvalidSignature = errors.New("invalid gateway signature")
	// ErrMalformedCallback is returned when a verified callback is missing
	// or carries an unparseable order reference or amount. Callers treat it
	// the same as a signature failure.
	ErrMalformedCallback = errors.New("malformed gateway callback")
)

// PaymentGateway builds redirect payment URLs and verifies the gateway's
// signed return/notification parameters. Implementations never contact the
// gateway over the network; the gateway is only reached through the user's
// browser redirect.
type PaymentGateway interface {
	BuildPaymentURL(req PaymentURLRequest) (string, error)
	VerifyCallback(values url.Values) (*CallbackData, error)
}

// PaymentURLRequest contains the data needed to build a redirect payment URL.
type PaymentURLRequest struct {
	OrderNo  string
	Amount   int64 // minor currency units (VND)
	ClientIP string
	Locale   string // optional, defaults to the gateway's locale
	BankCode string // optional, preselects a bank at the gateway
}

// CallbackData contains the verified, parsed parameters echoed by the
// gateway on both the browser return and the server-to-server notification.
// Amount is converted back to minor currency units.
type CallbackData struct {
	OrderNo       string
	GatewayTxnRef string
	Amount        int64
	ResponseCode  string
	BankCode      string
	PaidAt        time.Time
	RawData       map[string]string
}

// Approved reports whether the gateway approved the transaction.
func (d *CallbackData) Approved() bool {
	return d.ResponseCode == ResponseCodeApproved
}
