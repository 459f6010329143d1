package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"f1livetiming/pkg/locator"
	"f1livetiming/pkg/render"
	"f1livetiming/pkg/tracker"
)

func newLocateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Show the live or next upcoming session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			client, err := ctx.client(logger)
			if err != nil {
				return err
			}
			loc := locator.New(client, locator.Options{
				DefaultDuration: cfg.Session.DefaultDuration(),
				Lookahead:       cfg.Session.Lookahead(),
			}, logger)

			session, err := loc.Locate(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("locate session: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(session)
			}
			fmt.Fprintln(out, render.Header(tracker.State{Session: session}))
			if session != nil {
				fmt.Fprintln(out, session.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")
	return cmd
}
