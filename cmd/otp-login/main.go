// Command otp-login walks through the OTP login wizard against a running
// account API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/go-account-api/internal/wizard"
)

var (
	server  = pflag.String("server", "http://localhost:4000", "Base URL of the account API")
	timeout = pflag.Duration("timeout", 15*time.Second, "Per-request timeout")
)

func main() {
	pflag.Parse()

	w := wizard.New(wizard.NewHTTPClient(*server, *timeout))
	if err := run(context.Background(), w, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w *wizard.Wizard, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	prompt := func(label string) (string, error) {
		fmt.Fprint(out, label)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(lines.Text()), nil
	}

	for w.State() != wizard.Verified {
		var err error
		switch w.State() {
		case wizard.EmailEntry:
			var email string
			if email, err = prompt("Email: "); err != nil {
				return err
			}
			err = w.SubmitEmail(ctx, email)
		case wizard.PhoneEntry:
			var phone string
			if phone, err = prompt("Phone number (10 digits): "); err != nil {
				return err
			}
			err = w.SubmitPhone(ctx, phone)
		case wizard.OtpEntry:
			var code string
			if code, err = prompt("OTP (blank to resend): "); err != nil {
				return err
			}
			if code == "" {
				err = w.ResendOTP(ctx)
			} else {
				err = w.SubmitOTP(ctx, code)
			}
		}

		var stepErr *wizard.StepError
		switch {
		case errors.As(err, &stepErr):
			fmt.Fprintln(out, stepErr.Message)
		case err != nil:
			return err
		default:
			fmt.Fprintln(out, w.Message())
		}
	}

	ident := w.Identity()
	if ident != nil {
		fmt.Fprintf(out, "Verified identity %s (%s, %s)\n", ident.IdentityID, ident.EmailValue(), ident.PhoneValue())
	}
	if tok := w.Token(); tok != "" {
		fmt.Fprintf(out, "Token: %s\n", tok)
	}
	return nil
}
