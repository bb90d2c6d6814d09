package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmarenkov/screenid/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-v int      verification OTP TTL, minutes
//	-r int      password reset token TTL, minutes
//	-m string   SMTP host (empty disables outbound mail)
//	-o int      SMTP port
//	-u string   SMTP user
//	-p string   SMTP password
//	-l string   reset password base URL
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-v", "-r", "-m", "-o", "-u", "-p", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTokenValidityDuration := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session_token_validity_duration (in minutes)")
	verificationTokenTTL := fs.Int("v", int(config.VerificationTokenTTL.Minutes()), "verification_token_ttl (in minutes)")
	resetTokenTTL := fs.Int("r", int(config.ResetTokenTTL.Minutes()), "reset_token_ttl (in minutes)")

	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "o", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "u", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "p", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.ResetPasswordBaseURL, "l", config.ResetPasswordBaseURL, "reset password base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionTokenValidityDuration) * time.Minute
	config.VerificationTokenTTL = time.Duration(*verificationTokenTTL) * time.Minute
	config.ResetTokenTTL = time.Duration(*resetTokenTTL) * time.Minute
}
