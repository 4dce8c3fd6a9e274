// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
	"github.com/vosemu/vosemu/internal/sshserver"
)

// hostKeyFile is created under <state_dir>/vos_internals.
const hostKeyFile = "ssh_host_ed25519"

func newServeCommand(app *App) *cobra.Command {
	var (
		host         string
		port         int
		ephemeralKey bool
		tokenTTL     time.Duration
		idleTimeout  time.Duration
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve emulator consoles over SSH",
		Long: `Serve emulator consoles over SSH.

Every connection gets its own console session over the shared sandbox.
Clients authenticate with the access token printed at start as their
password; public keys are not accepted. A client that passes a command
(ssh host 'display_current_dir') runs that single line and disconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := app.Runtime(ctx)
			if err != nil {
				return app.fail(err, runtimeIssue(err))
			}

			cfg := sshserver.Config{
				Host:        rt.Config.Server.Host,
				Port:        rt.Config.Server.Port,
				TokenTTL:    tokenTTL,
				IdleTimeout: idleTimeout,
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if !ephemeralKey {
				cfg.HostKeyPath = filepath.Join(rt.Layout.StateDir, session.InternalsDir, hostKeyFile)
			}

			srv := sshserver.New(cfg, rt.Dispatcher, rt.NewSession,
				sshserver.WithLogger(rt.Logger.WithPrefix("ssh-server")))
			if err := srv.Start(ctx); err != nil {
				addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
				return app.fail(issue.WrapWithContext(err, "start SSH server", addr), issue.ServerStartFailedId)
			}

			token, err := srv.GenerateToken("cli")
			if err != nil {
				_ = srv.Stop()
				return err
			}
			_, _ = fmt.Fprintf(app.stdout, "%s Listening on %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(srv.Address()))
			_, _ = fmt.Fprintf(app.stdout, "  access token: %s\n", token.Value)
			_, _ = fmt.Fprintf(app.stdout, "  expires: %s\n", token.ExpiresAt.Format(time.RFC3339))
			_, _ = fmt.Fprintf(app.stdout, "  connect: ssh -p %d vos@%s\n", srv.Port(), cfg.Host)

			select {
			case <-ctx.Done():
				rt.Logger.Info("shutting down")
				return srv.Stop()
			case err, ok := <-srv.Err():
				_ = srv.Stop()
				if ok && err != nil {
					return err
				}
				return nil
			}
		},
	}

	serveCmd.Flags().StringVar(&host, "host", "", "address to bind (default from server.host)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on, 0 picks a free port (default from server.port)")
	serveCmd.Flags().BoolVar(&ephemeralKey, "ephemeral-key", false, "generate a throwaway host key instead of persisting one")
	serveCmd.Flags().DurationVar(&tokenTTL, "token-ttl", 12*time.Hour, "lifetime of the printed access token")
	serveCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "disconnect idle clients after this long (0 = never)")
	return serveCmd
}
