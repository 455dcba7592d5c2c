package services

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailService struct {
	emails emailSender
	from   string
	log    logrus.FieldLogger
}

// NewEmailService returns nil when no API key is configured. Callers treat a
// nil *EmailService as "email disabled".
func NewEmailService(apiKey, from string, log logrus.FieldLogger) *EmailService {
	if apiKey == "" {
		log.Warn("RESEND_API_KEY not set, email service will not be available")
		return nil
	}

	client := resend.NewClient(apiKey)
	log.Info("email service initialized with Resend")

	return &EmailService{emails: client.Emails, from: from, log: log}
}

// SendWelcomeEmail greets a newly registered user.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	if s == nil || s.emails == nil {
		return fmt.Errorf("email service not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Welcome to Salt & Light!",
		Html:    welcomeEmailHTML(name),
		Text:    welcomeEmailText(name),
	}

	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	s.log.WithField("email_id", sent.Id).Info("sent welcome email")
	return nil
}

// SendPasswordResetEmail mails the six digit reset code.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, code, name string) error {
	if s == nil || s.emails == nil {
		return fmt.Errorf("email service not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your Salt & Light password reset code",
		Html:    passwordResetEmailHTML(name, code),
		Text:    passwordResetEmailText(name, code),
	}

	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.log.WithField("email_id", sent.Id).Info("sent password reset email")
	return nil
}

func welcomeEmailHTML(name string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            text-align: center;
            padding: 20px 0;
            border-bottom: 2px solid #c9a227;
        }
        .header h1 {
            color: #c9a227;
            margin: 0;
        }
        .content {
            padding: 30px 0;
        }
        .footer {
            text-align: center;
            padding: 20px 0;
            border-top: 1px solid #ddd;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome to Salt &amp; Light</h1>
    </div>

    <div class="content">
        <h2>Welcome, %s!</h2>

        <p>We're glad you're here. Share what's on your heart and pray for others in the community.</p>

        <ul>
            <li>Post prayer requests publicly, to friends, or anonymously</li>
            <li>Let others know you prayed and send a word of encouragement</li>
            <li>Mark requests answered and thank everyone who prayed</li>
        </ul>

        <p>Blessings,<br>The Salt &amp; Light Team</p>
    </div>

    <div class="footer">
        <p>You received this email because you created a Salt &amp; Light account.</p>
    </div>
</body>
</html>
`, html.EscapeString(name))
}

func welcomeEmailText(name string) string {
	return fmt.Sprintf(`Welcome, %s!

We're glad you're here. Share what's on your heart and pray for others in the community.

Blessings,
The Salt & Light Team
`, name)
}

func passwordResetEmailHTML(name, code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            text-align: center;
            padding: 20px 0;
            border-bottom: 2px solid #c9a227;
        }
        .code {
            font-size: 32px;
            font-weight: bold;
            letter-spacing: 8px;
            text-align: center;
            padding: 20px;
            background-color: #f7f3e6;
            border-radius: 8px;
        }
        .footer {
            text-align: center;
            padding: 20px 0;
            border-top: 1px solid #ddd;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Password Reset</h1>
    </div>

    <p>Hi %s,</p>
    <p>Use this code to reset your Salt &amp; Light password. It expires in 15 minutes.</p>

    <div class="code">%s</div>

    <p>If you didn't ask to reset your password you can ignore this email.</p>

    <div class="footer">
        <p>Salt &amp; Light</p>
    </div>
</body>
</html>
`, html.EscapeString(name), html.EscapeString(code))
}

func passwordResetEmailText(name, code string) string {
	return fmt.Sprintf(`Hi %s,

Your Salt & Light password reset code is %s. It expires in 15 minutes.

If you didn't ask to reset your password you can ignore this email.
`, name, code)
}
