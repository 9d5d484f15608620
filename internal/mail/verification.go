package mail

import (
	"context"
	"fmt"
	"html"
	"net/url"
)

// SendVerification dispatches the "verify your email" message with a link
// embedding the opaque token.
func SendVerification(ctx context.Context, m Mailer, to, name, baseURL, token string) error {
	link := fmt.Sprintf("%s/auth/verify?token=%s", baseURL, url.QueryEscape(token))

	return m.Send(ctx, Message{
		To:      to,
		Subject: "Verify your CharaHub email",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p>`+
				`<p>Welcome to CharaHub! Confirm your email address to finish signing up:</p>`+
				`<p><a href="%s">Verify my email</a></p>`+
				`<p>The link expires in 24 hours. If you didn't create an account you can ignore this message.</p>`,
			html.EscapeString(name), link,
		),
	})
}
