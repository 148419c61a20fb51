package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"lotuspay/internal/application/payment/usecases"
	"lotuspay/internal/shared/biztime"
	"lotuspay/internal/shared/config"
)

// ConfirmationNotifier sends the merchant-side payment confirmation over SMTP.
// The settlement winner fires it asynchronously; delivery failures are logged
// by the caller and never affect the settlement itself.
type ConfirmationNotifier struct {
	config config.EmailConfig
	dialer *gomail.Dialer
}

func NewConfirmationNotifier(cfg config.EmailConfig) *ConfirmationNotifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	return &ConfirmationNotifier{
		config: cfg,
		dialer: dialer,
	}
}

func (n *ConfirmationNotifier) SendPaymentConfirmation(ctx context.Context, c usecases.PaymentConfirmation) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	paidAt := biztime.FormatInBizTimezone(c.PaidAt, "2006-01-02 15:04:05")

	subject := fmt.Sprintf("Payment received for order %s", c.OrderNo)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Payment Confirmed</h2>
			<p>Order <strong>%s</strong> has been paid.</p>
			<ul>
				<li>Amount: %d</li>
				<li>Gateway transaction: %s</li>
				<li>Paid at: %s</li>
			</ul>
		</body>
		</html>
	`, c.OrderNo, c.Amount, c.GatewayTxnRef, paidAt)

	plainBody := fmt.Sprintf(`
Payment Confirmed

Order %s has been paid.
Amount: %d
Gateway transaction: %s
Paid at: %s
	`, c.OrderNo, c.Amount, c.GatewayTxnRef, paidAt)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.config.FromAddress, n.config.FromName))
	m.SetHeader("To", n.config.NotifyAddress)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send payment confirmation: %w", err)
	}

	return nil
}
