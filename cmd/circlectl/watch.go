package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"circles/internal/cache"
	"circles/internal/models"
	"circles/internal/notifications"

	"github.com/spf13/cobra"
)

func newWatchCmd(c *cli) *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "watch [slug]",
		Short: "Stream change events, optionally re-rendering a thread as it changes",
		Long: `Subscribe to the data service's change events over Redis (REDIS_URL).
Every event invalidates the affected cached scopes; with --thread the given
post is re-fetched and printed whenever an event touches it.

Examples:
  circlectl watch
  circlectl watch front-porch --thread <post-id>`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := cache.NewClient(c.cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer func() { _ = rdb.Close() }()

			channel := notifications.EventsChannel
			if len(args) == 1 {
				channel = notifications.CircleChannel(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.watch(ctx, cmd, notifications.NewNotifier(rdb), channel, threadID)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Post id whose thread is re-rendered on change")
	return cmd
}

type subscriber interface {
	Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent)) error
}

// watch applies every event to the coordinator cache and prints it until ctx ends.
func (c *cli) watch(ctx context.Context, cmd *cobra.Command, sub subscriber, channel, threadID string) error {
	coord := c.coordinator()
	if threadID != "" {
		if err := c.renderThread(cmd, threadID); err != nil {
			return err
		}
	}

	events := make(chan models.ChangeEvent, 16)
	err := sub.Subscribe(ctx, channel, func(ev models.ChangeEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "watching %s\n", channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			coord.ApplyEvent(ev)
			printEvent(c.out, ev)
			if threadID != "" && ev.PostID == threadID {
				if ev.Type == models.EventPostDeleted {
					fmt.Fprintln(c.out, "post deleted")
					return nil
				}
				if err := c.renderThread(cmd, threadID); err != nil {
					return err
				}
			}
		}
	}
}
