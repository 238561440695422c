package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/client"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/session"
)

const (
	// envServer overrides the default API address for client commands.
	envServer = "PIXELSHARE_SERVER"

	defaultServer = "http://localhost:8080"

	// requestTimeout bounds one CLI round trip to the server.
	requestTimeout = 30 * time.Second
)

// defaultServerURL returns $PIXELSHARE_SERVER or the local default.
func defaultServerURL() string {
	if v := os.Getenv(envServer); v != "" {
		return v
	}
	return defaultServer
}

func addServerFlag(cmd *cobra.Command, dst *string) {
	cmd.PersistentFlags().StringVar(dst, "server", defaultServerURL(), "pixelshare API address (env "+envServer+")")
}

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var server, sessionID string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a session for the drawings commands",
		Long: `Verify a session ID against the server and save it locally.

Sessions are issued with 'pixelshare session new' on the server host. The
saved session is stored in ~/.config/pixelshare/sessions/ and sent as a
bearer token by the drawings commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--session is required")
			}
			return c.runLogin(cmd.Context(), server, sessionID)
		},
	}

	addServerFlag(cmd, &server)
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID issued by the server")

	return cmd
}

func (c *CLI) runLogin(ctx context.Context, server, sessionID string) error {
	if err := errors.ValidateID(sessionID); err != nil {
		return err
	}
	cl, err := client.New(server, sessionID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	spinner := newSpinner(ctx, "Verifying session...")
	spinner.Start()
	me, err := cl.Me(ctx)
	if err != nil {
		spinner.StopWithError("Session rejected")
		return err
	}
	spinner.Stop()

	sess := &session.Session{
		ID:        sessionID,
		UserID:    me.UserID,
		Name:      me.Name,
		ExpiresAt: me.ExpiresAt,
		CreatedAt: time.Now(),
	}
	store, err := session.NewCLIStore("")
	if err != nil {
		return err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}

	printSuccess("Logged in as %s", StyleHighlight.Render(me.UserID))
	printDetail("Expires %s", me.ExpiresAt.Format("Jan 2, 2006"))
	printNextStep("List your drawings", appName+" drawings list")
	return nil
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewCLIStore("")
			if err != nil {
				return err
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			cl, sess, err := c.apiClient(ctx, server)
			if err != nil {
				return err
			}

			spinner := newSpinner(ctx, "Verifying session...")
			spinner.Start()
			me, err := cl.Me(ctx)
			if err != nil {
				spinner.StopWithError("Session invalid")
				return err
			}
			spinner.Stop()

			printSuccess("Pixelshare Session")
			printKeyValue("User", me.UserID)
			if me.Name != "" {
				printKeyValue("Name", me.Name)
			}
			printKeyValue("Server", cl.BaseURL())
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", me.ExpiresAt.Format("Jan 2, 2006"))
			return nil
		},
	}

	addServerFlag(cmd, &server)

	return cmd
}

// apiClient returns a client authenticated with the saved session.
func (c *CLI) apiClient(ctx context.Context, server string) (*client.Client, *session.Session, error) {
	store, err := session.NewCLIStore("")
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "read saved session")
	}
	if sess == nil {
		return nil, nil, errors.New(errors.ErrCodeUnauthorized, "not logged in (run '%s login --session <id>' first)", appName)
	}
	cl, err := client.New(server, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("Using saved session", "user", sess.UserID, "server", cl.BaseURL())
	return cl, sess, nil
}
