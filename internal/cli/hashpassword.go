package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"hearth/internal/auth"
	"hearth/internal/config"
)

func newHashPasswordCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for the basic_auth section of the config",
		Long: "hash-password reads a password (masked when stdin is a terminal), hashes it\n" +
			"with Argon2id and prints a basic_auth block to paste into the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return errors.New("username cannot be empty")
			}

			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			snippet, err := yaml.Marshal(struct {
				BasicAuth config.BasicAuthConfig `yaml:"basic_auth"`
			}{config.BasicAuthConfig{Username: username, PasswordHash: hash}})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(snippet)
			return err
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "Basic auth username")
	return cmd
}

// readPassword prompts twice on a terminal. Otherwise it reads a single line,
// which lets scripts pipe the password in.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := promptMasked(cmd.ErrOrStderr(), f, "Enter password:   ")
		if err != nil {
			return "", err
		}
		confirm, err := promptMasked(cmd.ErrOrStderr(), f, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != confirm {
			return "", errors.New("passwords do not match")
		}
		if password == "" {
			return "", errors.New("password cannot be empty")
		}
		return password, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

func promptMasked(w io.Writer, f *os.File, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
