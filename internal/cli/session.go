package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/session"
)

// sessionCommand creates the session command, which manages the sessions
// the server accepts. It opens the same session store serve would.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue and revoke API sessions",
		Long: `Issue and revoke the sessions the API accepts.

Run these on the server host: they use the session store 'serve' selects
from the same config, Redis when redis.addr is set and
~/.config/pixelshare/sessions otherwise.`,
	}

	cmd.AddCommand(c.sessionNewCommand())
	cmd.AddCommand(c.sessionRevokeCommand())

	return cmd
}

func (c *CLI) sessionNewCommand() *cobra.Command {
	var (
		opts   serveOpts
		userID string
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Issue a session for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			sessions, err := openSessionStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sessions.Close()

			sess, err := session.New(userID, name, ttl)
			if err != nil {
				return err
			}
			if err := sessions.Set(cmd.Context(), sess); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "store session")
			}

			printSuccess("Issued session for %s", StyleHighlight.Render(sess.UserID))
			printKeyValue("Session", sess.ID)
			printKeyValue("Expires", sess.ExpiresAt.Format(time.RFC3339))
			printNextStep("Log in from a client", appName+" login --session "+sess.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &opts.configPath)
	cmd.Flags().StringVar(&userID, "user", "", "user ID the session acts as (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "session lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (c *CLI) sessionRevokeCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "revoke <session-id>",
		Short: "Revoke a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			sessions, err := openSessionStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sessions.Close()

			ctx := cmd.Context()
			sess, err := sessions.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if sess == nil {
				return errors.Wrap(errors.ErrCodeSessionNotFound, session.ErrNotFound, "session %s", args[0])
			}
			if err := sessions.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Revoked session for %s", StyleHighlight.Render(sess.UserID))
			return nil
		},
	}

	addConfigFlag(cmd, &opts.configPath)

	return cmd
}
