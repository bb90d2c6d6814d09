package mailer

import "fmt"

// Sender addresses for the two notification categories. Verification traffic
// and security traffic come from distinct mailboxes so receiving side filters
// can treat them differently.
const (
	FromVerification = "verification@screenid.app"
	FromSecurity     = "security@screenid.app"
)

// VerificationMessage carries a freshly issued OTP. The plaintext code lives
// only in this message; the store keeps a hash.
func VerificationMessage(to string, otp string) Message {
	return Message{
		From:    FromVerification,
		To:      to,
		Subject: "Email Verification",
		HTML:    fmt.Sprintf("<p>Your verification OTP</p><h1>%s</h1>", otp),
	}
}

// WelcomeMessage is sent once, after a successful email verification.
func WelcomeMessage(to string) Message {
	return Message{
		From:    FromVerification,
		To:      to,
		Subject: "Welcome Email",
		HTML:    "<h1>Welcome to our app and thanks for choosing us.</h1>",
	}
}

// ResetLinkMessage carries the password reset link with the plaintext token
// and owner id as query parameters.
func ResetLinkMessage(to string, resetURL string) Message {
	return Message{
		From:    FromSecurity,
		To:      to,
		Subject: "Reset Password Link",
		HTML:    fmt.Sprintf(`<p>Click here to reset your password.</p><a href="%s">Change Password</a>`, resetURL),
	}
}

// ResetConfirmationMessage confirms a completed password reset.
func ResetConfirmationMessage(to string) Message {
	return Message{
		From:    FromSecurity,
		To:      to,
		Subject: "Password Reset Successfully",
		HTML:    "<h1>Password Reset Successfully</h1><p>Now you can login with your new password.</p>",
	}
}
