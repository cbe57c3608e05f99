// Package cli defines the Cobra commands for the mediascan binary.
//
// Every command is its own application instance: it builds one session
// Manager over the configured credential store and runs a single operation
// against it. serve keeps that Manager alive behind the dashboard server.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mediascan/console/authapi"
	"github.com/mediascan/console/credentials"
	"github.com/mediascan/console/internal/config"
	"github.com/mediascan/console/internal/logging"
	"github.com/mediascan/console/session"
)

var version = "dev" // set via ldflags at build time

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mediascan",
		Short: "Media monitoring dashboard console",
		Long: `mediascan signs in to the media-scan Auth API, keeps the session
token in the configured credential store and serves the dashboard.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Log at debug level")

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newRegisterCmd(opts),
		newUsersCmd(opts),
	)
	return root
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the wiring shared by every command.
type app struct {
	cfg     config.Config
	store   credentials.Store
	client  *authapi.HTTPClient
	manager *session.Manager

	in *bufio.Reader
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.GetLogLevel()
	if opts.verbose {
		level = "debug"
	}
	logging.Configure(cfg.GetEnv(), level, cmd.ErrOrStderr())

	store, err := credentials.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	client := authapi.NewHTTPClient(authapi.HTTPClientConfig{
		BaseURL: cfg.GetAPIBaseURL(),
		Timeout: cfg.GetAPITimeout(),
	}, nil)

	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		manager: session.NewManager(store, client),
		in:      bufio.NewReader(cmd.InOrStdin()),
	}, nil
}

func (a *app) Close() {
	if closer, ok := a.store.(credentials.Closer); ok {
		_ = closer.Close()
	}
}

// initialize restores the stored session and reports an unusable store.
func (a *app) initialize(ctx context.Context) (session.Snapshot, error) {
	snap := a.manager.Initialize(ctx)
	if snap.Status == session.Failed {
		return snap, fmt.Errorf("%s", snap.LastError)
	}
	return snap, nil
}

// runWithApp adapts a command body that needs the wiring.
func runWithApp(opts *rootOptions, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// prompt reads one line of input.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	return a.readLine()
}

// promptSecret reads a secret without echo when stdin is a terminal, or one
// line of piped input otherwise.
func (a *app) promptSecret(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}
	return a.readLine()
}

func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// credentialsFromFlagsOrPrompt returns the email flag (or prompts for it)
// and a prompted password.
func (a *app) credentialsFromFlagsOrPrompt(cmd *cobra.Command, email string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = a.prompt(cmd, "Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := a.promptSecret(cmd, "Password: ")
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}
