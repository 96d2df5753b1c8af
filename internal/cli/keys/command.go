package keys

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Anvoria/sessionly/internal/config"
	"github.com/Anvoria/sessionly/internal/domain/auth"
)

// Command implements the signing key command
type Command struct {
	Out io.Writer
}

func (c *Command) Name() string {
	return "keys"
}

func (c *Command) Description() string {
	return "Manage the access token signing secret (derive, generate, inspect)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcmd := args[0]
	switch subcmd {
	case "derive":
		return c.runDerive(args[1:])
	case "generate":
		return c.runGenerate(args[1:])
	case "inspect":
		return c.runInspect(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}
}

func (c *Command) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: sessionly-cli keys <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  derive -phrase <text>   Derive a 512-bit secret from a master phrase\n")
	fmt.Fprintf(os.Stderr, "  generate                Generate a random 512-bit secret\n")
	fmt.Fprintf(os.Stderr, "  inspect                 Print the key id of JWT_SECRET\n")
}

func (c *Command) runDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ContinueOnError)
	phrase := fs.String("phrase", "", "Master phrase (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*phrase) == "" {
		return fmt.Errorf("phrase is required")
	}

	return c.printSecret(DeriveSecret(*phrase))
}

func (c *Command) runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := GenerateSecret()
	if err != nil {
		return err
	}
	return c.printSecret(secret)
}

func (c *Command) runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := config.LoadEnv()
	if env.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	kid, err := KeyID(env.JWTSecret)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out(), "Key ID: %s\n", kid)
	return nil
}

func (c *Command) printSecret(secret string) error {
	kid, err := KeyID(secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out(), "JWT_SECRET=%s\n", secret)
	fmt.Fprintf(c.out(), "  Key ID: %s\n", kid)
	return nil
}

// DeriveSecret returns the base64 SHA-512 digest of phrase: 88 characters, always the
// same for the same phrase.
func DeriveSecret(phrase string) string {
	sum := sha512.Sum512([]byte(phrase))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// GenerateSecret returns 64 random bytes, base64 encoded
func GenerateSecret() (string, error) {
	buf := make([]byte, config.MinSigningSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// KeyID returns the key id the server advertises in token headers for secret
func KeyID(secret string) (string, error) {
	return auth.KeyIDFor([]byte(secret))
}
