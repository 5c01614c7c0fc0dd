package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/credential"
)

func credentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Store mailbox and relay passwords in the system keyring",
		Long: `Passwords left empty in the config file are looked up in the system keyring
under "imap:<username>" for channels and "smtp:<username>" for the relay.`,
	}

	cmd.AddCommand(credentialsSetCmd())
	cmd.AddCommand(credentialsDeleteCmd())

	return cmd
}

func credentialKey(kind, username string) (string, error) {
	switch strings.ToLower(kind) {
	case "imap":
		return credential.IMAPKey(username), nil
	case "smtp":
		return credential.SMTPKey(username), nil
	default:
		return "", fmt.Errorf("unknown credential kind %q (expected imap or smtp)", kind)
	}
}

func credentialsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <imap|smtp> <username>",
		Short: "Store a password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credentialKey(args[0], args[1])
			if err != nil {
				return err
			}
			fromStdin, _ := cmd.Flags().GetBool("password-stdin")

			password, err := readPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			if err := credential.Set(key, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Stored "+key))
			return nil
		},
	}

	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin instead of prompting")

	return cmd
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if !fromStdin && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return requirePassword(string(data))
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return requirePassword(line)
}

func requirePassword(s string) (string, error) {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return "", errors.New("password must not be empty")
	}
	return s, nil
}

func credentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <imap|smtp> <username>",
		Short: "Remove a stored password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credentialKey(args[0], args[1])
			if err != nil {
				return err
			}
			if err := credential.Delete(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed "+key))
			return nil
		},
	}
}
