package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"circles/internal/models"
	"circles/internal/optimistic"
	"circles/internal/session"

	"github.com/spf13/cobra"
)

func newTokenCmd(c *cli) *cobra.Command {
	var s session.Session
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			token, err := session.IssueToken(c.cfg.JWTSecret, s, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&s.UserID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&s.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&s.ImageURL, "image", "", "Avatar URL")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newCirclesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "circles",
		Short: "List circles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			circles, err := c.coordinator().Circles(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(circles, func(w io.Writer) { printCircles(w, circles) })
		},
	}
}

func newCircleCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circle <slug>",
		Short: "Show a circle and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := c.coordinator()
			circle, err := coord.Circle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			members, err := coord.Members(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := struct {
				Circle  models.Circle             `json:"circle"`
				Members []models.CircleMembership `json:"members"`
			}{circle, members}
			return c.emit(out, func(w io.Writer) { printCircle(w, circle, members, c.now()) })
		},
	}

	var req models.CreateCircleRequest
	create := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a circle owned by the current user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Slug = args[0]
			if req.Name == "" {
				req.Name = args[0]
			}
			circle, err := c.client().CreateCircle(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.emit(circle, func(w io.Writer) { fmt.Fprintf(w, "created %s (%s)\n", circle.Slug, circle.ID) })
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "Display name (defaults to the slug)")
	create.Flags().StringVar(&req.Description, "description", "", "Description")
	create.Flags().StringVar(&req.ImageURL, "image", "", "Image URL")
	cmd.AddCommand(create)
	return cmd
}

func newJoinCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "join <slug>",
		Short: "Join a circle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.coordinator().JoinCircle(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "joined %s\n", args[0])
			return nil
		},
	}
}

func newLeaveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <slug>",
		Short: "Leave a circle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.coordinator().LeaveCircle(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "left %s\n", args[0])
			return nil
		},
	}
}

func newPostsCmd(c *cli) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "posts <slug>",
		Short: "List the posts of a circle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := c.coordinator().Posts(cmd.Context(), args[0], sort)
			if err != nil {
				return err
			}
			return c.emit(posts, func(w io.Writer) { printPosts(w, posts, c.now()) })
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "new", "Sort order: new, top or hot")
	return cmd
}

func newPostCmd(c *cli) *cobra.Command {
	var req models.CreatePostRequest
	cmd := &cobra.Command{
		Use:   "post <slug>",
		Short: "Create a post in a circle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := c.coordinator()
			post, err := coord.CreatePost(cmd.Context(), args[0], req)
			if err != nil {
				if v, ok := coord.Drafts().Take(optimistic.PostDraftKey(args[0])); ok {
					if draft, ok := v.(models.CreatePostRequest); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "draft kept: %s\n", draft.Title)
					}
				}
				return err
			}
			return c.emit(post, func(w io.Writer) { fmt.Fprintf(w, "posted %s\n", post.ID) })
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&req.Content, "content", "", "Body text")
	cmd.Flags().StringVar(&req.URL, "url", "", "Link URL")
	cmd.Flags().StringVar(&req.ImageURL, "image", "", "Image URL")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "Tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newThreadCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "thread <post-id>",
		Short: "Show a post with its nested comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.renderThread(cmd, args[0])
		},
	}
}

func (c *cli) viewerID(cmd *cobra.Command) string {
	s, err := session.TokenProvider{Token: c.token}.Current(cmd.Context())
	if err != nil {
		return ""
	}
	return s.UserID
}

func (c *cli) renderThread(cmd *cobra.Command, postID string) error {
	coord := c.coordinator()
	post, err := coord.Post(cmd.Context(), postID)
	if err != nil {
		return err
	}
	forest, err := coord.Thread(cmd.Context(), postID)
	if err != nil {
		return err
	}
	out := struct {
		Post   models.Post `json:"post"`
		Thread any         `json:"thread"`
	}{post, forest}
	return c.emit(out, func(w io.Writer) { printThread(w, post, forest, c.now()) })
}

func newCommentCmd(c *cli) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "comment <post-id> <text>...",
		Short: "Comment on a post, or reply to a comment with --parent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.CreateCommentRequest{Content: strings.Join(args[1:], " ")}
			if parent != "" {
				req.ParentID = &parent
			}
			comment, err := c.coordinator().CreateComment(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return c.emit(comment, func(w io.Writer) { fmt.Fprintf(w, "commented %s\n", comment.ID) })
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Comment id to reply to")
	return cmd
}

func newLikeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id> [comment-id]",
		Short: "Toggle your like on a post, or on one of its comments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := c.coordinator()
			if len(args) == 2 {
				comment, err := coord.ToggleCommentLike(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return c.emit(comment, func(w io.Writer) { printLikeState(w, comment.LikedBy, comment.UpvoteCount, c.viewerID(cmd)) })
			}
			post, err := coord.TogglePostLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(post, func(w io.Writer) { printLikeState(w, post.LikedBy, post.UpvoteCount, c.viewerID(cmd)) })
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id> [comment-id]",
		Short: "Delete one of your posts, or one of your comments on a post",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := c.coordinator()
			if len(args) == 2 {
				if err := coord.DeleteComment(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "deleted comment %s\n", args[1])
				return nil
			}
			if err := coord.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted post %s\n", args[0])
			return nil
		},
	}
}
