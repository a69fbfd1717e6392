package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chemflow/equipctl/core"
	"github.com/chemflow/equipctl/schema"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinReader is shared by every prompt so buffered input is not lost between them.
var stdinReader = bufio.NewReader(os.Stdin)

// promptLine asks for a value on stderr and reads one line from stdin.
func promptLine(label string) (string, error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine("Password")
	}
	_, _ = fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// flagOrPrompt returns the flag value, prompting when it is empty.
func flagOrPrompt(cmd *cobra.Command, name, label string) (string, error) {
	v, _ := cmd.Flags().GetString(name)
	if v != "" {
		return v, nil
	}
	if name == "password" {
		return promptPassword()
	}
	return promptLine(label)
}

// loginCmd signs in and stores the session.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the statistics service.",
	Long: `Exchange a username and password for a token and store the session in the
configured session backend. The password is prompted without echo when not given.

Examples:
  equipctl login --username operator
  EQUIPCTL_SESSION_BACKEND=none equipctl login --username operator`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		username, err := flagOrPrompt(cmd, "username", "Username")
		exitOnError("Cannot read username", err)
		password, err := flagOrPrompt(cmd, "password", "Password")
		exitOnError("Cannot read password", err)
		exitOnError("Cannot log in", core.ExecuteLogin(rootCtx, cfg, storeManager, username, password))
	},
}

// signupCmd registers a new account.
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the statistics service.",
	Long: `Register a new account. Every field is required; missing ones are prompted for.
Signing up does not sign you in.

Examples:
  equipctl signup --username ada --email ada@example.com --first-name Ada \
    --last-name Lovelace --role Engineer --company ChemFlow`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		fields := []struct{ name, label string }{
			{"username", "Username"},
			{"password", "Password"},
			{"first-name", "First name"},
			{"last-name", "Last name"},
			{"email", "Email"},
			{"role", "Role"},
			{"company", "Company"},
		}
		values := make(map[string]string, len(fields))
		for _, f := range fields {
			v, err := flagOrPrompt(cmd, f.name, f.label)
			exitOnError("Cannot read "+f.label, err)
			values[f.name] = v
		}
		req := schema.SignupRequest{
			Username:  values["username"],
			Password:  values["password"],
			FirstName: values["first-name"],
			LastName:  values["last-name"],
			Email:     values["email"],
			Role:      values["role"],
			Company:   values["company"],
		}
		exitOnError("Cannot sign up", core.ExecuteSignup(rootCtx, cfg, storeManager, req))
	},
}

// logoutCmd invalidates the stored session.
var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Sign out and forget the stored session.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		exitOnError("Cannot log out", core.ExecuteLogout(rootCtx, cfg, storeManager))
	},
}

// whoamiCmd prints the signed-in profile.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the signed-in account.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		exitOnError("Cannot show session", core.ExecuteWhoami(rootCtx, cfg, storeManager))
	},
}
