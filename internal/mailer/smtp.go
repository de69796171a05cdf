// Package mailer delivers one-time codes over SMTP.
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPNotifier sends OTP email via an SMTP relay (e.g. a Gmail app password).
type SMTPNotifier struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPNotifier returns a notifier for the given relay. port defaults to 587
// (STARTTLS) and from defaults to user when empty.
func NewSMTPNotifier(host string, port int, user, pass, from string) *SMTPNotifier {
	if port == 0 {
		port = 587
	}
	if from == "" {
		from = user
	}
	return &SMTPNotifier{Host: host, Port: port, User: user, Pass: pass, From: from}
}

// SendOTPEmail delivers the plaintext code to the given address. The code is
// never logged; a transport or relay failure is returned to the caller, who
// surfaces it as a delivery error.
func (n *SMTPNotifier) SendOTPEmail(ctx context.Context, to, code string) error {
	if n.Host == "" {
		return fmt.Errorf("mailer: SMTP host not configured")
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat("Notes App", n.From); err != nil {
		return fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	msg.Subject("Your Notes App Verification OTP")
	msg.SetBodyString(gomail.TypeTextPlain,
		fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code))
	msg.AddAlternativeString(gomail.TypeTextHTML,
		fmt.Sprintf("<p>Your verification code is <b>%s</b>. It expires in 10 minutes.</p>", code))

	client, err := gomail.NewClient(n.Host,
		gomail.WithPort(n.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.User),
		gomail.WithPassword(n.Pass),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mailer: client setup failed: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s failed: %w", to, err)
	}
	return nil
}
