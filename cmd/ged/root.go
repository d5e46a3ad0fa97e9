package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docportal/internal/config"
	"docportal/internal/gateway"
	"docportal/internal/locale"
	"docportal/internal/logging"
	"docportal/internal/session"
)

// app holds the collaborators shared by every command. It is filled in by
// the root PersistentPreRunE.
type app struct {
	cfg     *config.ClientConfig
	log     zerolog.Logger
	client  *gateway.Client
	session *session.Store
	locale  *locale.Selector
	errOut  io.Writer
}

func (a *app) init(cmd *cobra.Command) error {
	home, _ := cmd.Flags().GetString("home")
	cfg, err := config.LoadClient(home)
	if err != nil {
		return err
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.APIURL = u
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	a.cfg = cfg
	a.errOut = cmd.ErrOrStderr()
	a.log = logging.Setup(a.errOut, time.Local, cfg.LogLevel)

	storage := session.NewFileStorage(cfg.StoragePath())
	var store *session.Store
	a.client = gateway.NewClient(
		gateway.WithBaseURL(cfg.APIURL),
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithTokenSource(gateway.TokenFunc(func() string { return store.Token() })),
		gateway.WithLogger(a.log),
	)
	store = session.New(a.client, storage,
		session.WithNavigator(a.navigate),
		session.WithLogger(a.log),
	)
	if err := store.Hydrate(); err != nil {
		return err
	}
	a.session = store
	a.locale = locale.NewSelector(storage)
	return nil
}

func (a *app) navigate(route string) {
	a.log.Debug().Str("route", route).Msg("navigate")
	if route == session.LoginRoute {
		fmt.Fprintln(a.errOut, "Sign in with: ged login")
	}
}

// requireSession is the PreRunE of commands that need a signed-in user.
func (a *app) requireSession(*cobra.Command, []string) error {
	_, err := session.RequireSession(a.session)
	return err
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ged",
		Short: "Document portal client",
		Long: `ged manages documents and their versions on a document portal server:
sign in, browse and filter documents, upload new versions and download files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().String("home", "", "Client home holding config.yaml and storage.json (default ~/.config/ged)")
	root.PersistentFlags().String("api-url", "", "Override the API base URL")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newDocsCommand(a),
		newVersionsCommand(a),
		newLangCommand(a),
	)
	return root
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	msg := gateway.Message(err)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "not signed in"
	case errors.Is(err, gateway.ErrUnauthorized):
		return msg + " (try: ged login)"
	}
	return msg
}
