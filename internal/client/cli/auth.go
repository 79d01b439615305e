package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/matswap/internal/authgate"
)

// resetConfirmation слово, которое нужно ввести для reset
const resetConfirmation = "RESET"

func (c *Cli) runSetup(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: matswap setup", ErrUsage)
	}

	c.io.Println("=== Administrator Setup ===")
	c.io.Println()

	if c.gate.IsSetUp(ctx) {
		return ErrAlreadySetUp
	}

	c.io.Printf("Password must be at least %d characters.\n", c.gate.Options().MinPasswordLength)

	password, err := c.readNewPassword("New password: ")
	if err != nil {
		return err
	}

	if err := c.gate.SetupPassword(ctx, password); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Administrator password set.")
	c.io.Println("Run 'matswap login' to start a session.")
	return nil
}

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: matswap login", ErrUsage)
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	password, err := c.loginPassword()
	if err != nil {
		return err
	}

	result, err := c.gate.VerifyPassword(ctx, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Session expires at: %s\n", result.ExpiresAt.Local().Format(time.RFC3339))
	c.io.Println("Each admin command extends the session.")
	return nil
}

// loginPassword берет пароль из PasswordEnv, иначе спрашивает интерактивно
func (c *Cli) loginPassword() (string, error) {
	if c.getenv != nil {
		if pw, ok := c.getenv(PasswordEnv); ok && pw != "" {
			return pw, nil
		}
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func (c *Cli) runLogout(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: matswap logout", ErrUsage)
	}

	if !c.gate.IsSessionValid(ctx) {
		c.io.Println("No active session.")
		return nil
	}

	if !c.gate.Logout(ctx) {
		return errors.New("failed to end session")
	}

	c.io.Println("✓ Logged out.")
	return nil
}

func (c *Cli) runPasswd(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: matswap passwd", ErrUsage)
	}

	c.io.Println("=== Change Password ===")
	c.io.Println()

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	next, err := c.readNewPassword("New password: ")
	if err != nil {
		return err
	}

	if err := c.gate.ChangePassword(ctx, current, next); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Password changed. The session was closed, please log in again.")
	return nil
}

func (c *Cli) runReset(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: matswap reset", ErrUsage)
	}

	c.io.Println("This erases the administrator password, the session and the lockout state.")
	c.io.Println("Catalog records are kept.")

	answer, err := c.io.ReadInput(fmt.Sprintf("Type %s to continue: ", resetConfirmation))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if answer != resetConfirmation {
		c.io.Println("Aborted.")
		return nil
	}

	if !c.gate.ResetAuthData(ctx) {
		return errors.New("failed to reset authentication data")
	}

	c.io.Println("✓ Authentication data erased. Run 'matswap setup' to set a new password.")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	if c.remote != nil {
		return c.runRemoteStatus(ctx)
	}

	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	if !c.gate.IsSetUp(ctx) {
		c.io.Println("Administrator: not configured")
		c.io.Println("Run 'matswap setup' to set a password.")
	} else {
		c.io.Println("Administrator: configured")
	}

	status, err := c.gate.GetLockoutStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get lockout status: %w", err)
	}
	switch {
	case status.IsLocked:
		minutes := int((status.RemainingTime + time.Minute - 1) / time.Minute)
		c.io.Printf("⚠️  Locked out: try again in %d minute(s)\n", minutes)
	case status.Attempts > 0:
		c.io.Printf("Failed attempts: %d of %d\n", status.Attempts, c.gate.Options().MaxFailedAttempts)
	}

	session, err := c.gate.SessionInfo(ctx)
	switch {
	case errors.Is(err, authgate.ErrNoSession):
		c.io.Println("Session: none")
	case err != nil:
		return fmt.Errorf("failed to get session: %w", err)
	default:
		c.io.Printf("Session: active until %s\n", session.ExpiresAt.Local().Format(time.RFC3339))
	}

	return c.printCatalogSummary(ctx)
}

func (c *Cli) runRemoteStatus(ctx context.Context) error {
	version, err := c.remote.Health(ctx)
	if err != nil {
		return err
	}

	status, err := c.remote.Status(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Server Status ===")
	c.io.Println()
	c.io.Printf("Server version: %s\n", version)

	if status.SetUp {
		c.io.Println("Administrator: configured")
	} else {
		c.io.Println("Administrator: not configured")
	}
	if status.Locked {
		c.io.Printf("⚠️  Locked out: try again in %d minute(s)\n", status.RemainingMinutes)
	} else if status.Attempts > 0 {
		c.io.Printf("Failed attempts: %d\n", status.Attempts)
	}
	if status.SessionActive {
		c.io.Println("Session: active")
	} else {
		c.io.Println("Session: none")
	}

	return c.printCatalogSummary(ctx)
}

// readNewPassword читает новый пароль с подтверждением
func (c *Cli) readNewPassword(prompt string) (string, error) {
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm " + strings.ToLower(prompt[:1]) + prompt[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}
