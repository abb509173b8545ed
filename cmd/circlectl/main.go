// Package main implements circlectl, a terminal client for the circles data
// service. Writes go through the optimistic coordinator, so the rendered
// state is speculative until the server confirms it.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"circles/internal/client"
	"circles/internal/config"
	"circles/internal/optimistic"
	"circles/internal/querycache"
	"circles/internal/session"

	"github.com/spf13/cobra"
)

var version = "dev"

// cli carries the state shared by every command.
type cli struct {
	cfg    *config.Config
	out    io.Writer
	now    func() time.Time
	server string
	token  string
	asJSON bool

	coord *optimistic.Coordinator
	api   *client.Client
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "circlectl: %v\n", err)
		os.Exit(1)
	}
	c := &cli{cfg: cfg, out: os.Stdout, now: time.Now}
	if err := newRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "circlectl",
		Short: "Terminal client for circles",
		Long: `circlectl browses circles, posts and comment threads and performs writes
with optimistic updates against the circles API.

Examples:
  # Mint a development token and export it
  export API_TOKEN=$(circlectl token --user u-ada --name Ada)

  # List circles, then the hottest posts of one
  circlectl circles
  circlectl posts front-porch --sort hot

  # Reply inside a thread
  circlectl comment <post-id> "nice work" --parent <comment-id>`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.server, "server", c.cfg.APIBaseURL, "circles API base URL")
	root.PersistentFlags().StringVar(&c.token, "token", c.cfg.APIToken, "bearer token (defaults to API_TOKEN)")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Output results as JSON")

	root.AddCommand(
		newTokenCmd(c),
		newCirclesCmd(c),
		newCircleCmd(c),
		newJoinCmd(c),
		newLeaveCmd(c),
		newPostsCmd(c),
		newPostCmd(c),
		newThreadCmd(c),
		newCommentCmd(c),
		newLikeCmd(c),
		newDeleteCmd(c),
		newWatchCmd(c),
	)
	return root
}

// coordinator lazily builds the client stack from the resolved flags.
func (c *cli) coordinator() *optimistic.Coordinator {
	if c.coord != nil {
		return c.coord
	}
	opts := []client.Option{client.WithToken(c.token)}
	if c.cfg.APITimeoutSeconds > 0 {
		opts = append(opts, client.WithHTTPClient(&http.Client{
			Timeout: time.Duration(c.cfg.APITimeoutSeconds) * time.Second,
		}))
	}
	if c.cfg.APIRateLimit > 0 {
		opts = append(opts, client.WithRateLimit(c.cfg.APIRateLimit, 1))
	}
	c.api = client.New(c.server, opts...)
	c.coord = optimistic.New(optimistic.Options{
		Cache: querycache.New(querycache.Options{
			StaleTime:  time.Duration(c.cfg.QueryStaleSeconds) * time.Second,
			MaxEntries: c.cfg.QueryCacheMaxEntries,
		}),
		Data:    c.api,
		Session: session.TokenProvider{Token: c.token},
		Now:     c.now,
	})
	return c.coord
}

func (c *cli) client() *client.Client {
	c.coordinator()
	return c.api
}

// emit writes v as JSON when --json is set and otherwise calls render.
func (c *cli) emit(v any, render func(io.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render(c.out)
	return nil
}
