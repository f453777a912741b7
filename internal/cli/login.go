package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/luxury-estates/internal/client"
)

// apiKeyPrefix starts every key the server issues.
const apiKeyPrefix = "le_"

// loginFlow is one run of `le login`. Nil hooks are skipped.
type loginFlow struct {
	in     io.Reader
	out    io.Writer
	server string
	open   func(url string) error
	verify func(server, key string) error
}

func newLoginCmd() *cobra.Command {
	var (
		server    string
		noBrowser bool
		noVerify  bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long:  "Opens the server's CLI sign-in page, then checks and stores the API key it shows you.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := loginFlow{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), server: server, open: openBrowser, verify: checkKey}
			if noBrowser {
				f.open = nil
			}
			if noVerify {
				f.verify = nil
			}
			return f.run()
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the sign-in URL without opening a browser")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "store the key without checking it against the server")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		Long:  "Removes the API key from ~/.config/le/config.yaml. The server URL is kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout())
		},
	}
}

func (f loginFlow) run() error {
	server := f.server
	if server == "" {
		server = getServerURL()
	}
	authURL := strings.TrimRight(server, "/") + "/cli/auth"

	fmt.Fprintf(f.out, "Sign in at: %s\n\n", authURL)
	if f.open != nil {
		if err := f.open(authURL); err != nil {
			fmt.Fprintf(f.out, "Could not open browser: %v\n", err)
		}
	}

	fmt.Fprint(f.out, "Paste your API key: ")
	line, err := bufio.NewReader(f.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	key := strings.TrimSpace(line)
	if err := validateAPIKey(key); err != nil {
		return err
	}
	if f.verify != nil {
		if err := f.verify(server, key); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.APIKey = key
	if f.server != "" {
		cfg.ServerURL = f.server
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintln(f.out, "\n✓ API key saved. You're logged in!")
	return nil
}

func runLogout(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintln(out, "✓ Logged out. API key removed.")
	return nil
}

func validateAPIKey(key string) error {
	switch {
	case key == "":
		return errors.New("no API key provided")
	case !strings.HasPrefix(key, apiKeyPrefix):
		return fmt.Errorf("invalid API key format (should start with %s)", apiKeyPrefix)
	}
	return nil
}

// checkKey asks the server whether key is accepted. Inquiries are never
// public, so listing them needs a valid key.
func checkKey(server, key string) error {
	_, err := client.New(server, key).ListInquiries("")
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return errors.New("the server rejected that API key")
	}
	if err != nil {
		return fmt.Errorf("checking API key: %w", err)
	}
	return nil
}

func openBrowser(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		name = "xdg-open"
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return exec.Command(name, append(args, url)...).Start()
}
