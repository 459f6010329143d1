package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"f1livetiming/pkg/model"
	"f1livetiming/pkg/settings"
)

func newSubscribeCommand(ctx *commandContext) *cobra.Command {
	var chatID int64
	var name string
	var toggle bool

	cmd := &cobra.Command{
		Use:   "subscribe [session types...]",
		Short: "Manage session-start notifications for a Telegram chat",
		Long: "Without arguments, prints the chat's subscriptions. With session types " +
			"(practice, qualifying, sprint, race) it enables them, or flips them with --toggle.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == 0 {
				return fmt.Errorf("--chat is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := settings.NewManager(cfg.Notifications.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			types := make([]model.SessionType, 0, len(args))
			for _, a := range args {
				types = append(types, model.SessionType(a))
			}

			switch {
			case len(types) == 0:
			case toggle:
				for _, st := range types {
					if _, err := store.Toggle(chatID, st); err != nil {
						return err
					}
				}
			default:
				if err := store.Subscribe(chatID, name, types...); err != nil {
					return err
				}
			}

			subs, err := store.Subscriptions(chatID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), subs.String())
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat id")
	cmd.Flags().StringVar(&name, "name", "", "Display name for the chat")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Flip the given session types instead of enabling them")
	return cmd
}
