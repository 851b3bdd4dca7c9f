package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

// NewHashTokenCommand prints the HOOK_TOKEN_HASH value for a bearer token. The
// token is read from stdin when not given as an argument.
func NewHashTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "hash-token [token]",
		Short:         "Hash a hook bearer token for HOOK_TOKEN_HASH",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = line
			}
			return hashToken(token, cmd.OutOrStdout())
		},
	}
}

func hashToken(token string, out io.Writer) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("hash-token: token required")
	}
	hash, err := shared.HashToken(token)
	if err != nil {
		return fmt.Errorf("hash-token: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	return "", scanner.Err()
}
