package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"circles/internal/models"
	"circles/internal/optimistic"
	"circles/internal/thread"

	"github.com/dustin/go-humanize"
)

const maxColumn = 60

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printCircles(w io.Writer, circles []models.Circle) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tMEMBERS\tJOINED")
	for _, c := range circles {
		joined := ""
		if c.Joined {
			joined = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Slug, truncate(c.Name, maxColumn), humanize.Comma(int64(c.MemberCount)), joined)
	}
	_ = tw.Flush()
}

func printCircle(w io.Writer, c models.Circle, members []models.CircleMembership, now time.Time) {
	fmt.Fprintf(w, "%s (%s)\n", c.Name, c.Slug)
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n", c.Description)
	}
	fmt.Fprintf(w, "%s members, created %s\n\n", humanize.Comma(int64(c.MemberCount)), thread.RelativeTime(c.CreatedAt, now))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tROLE\tJOINED")
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = m.UserID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, m.Role, thread.RelativeTime(m.CreatedAt, now))
	}
	_ = tw.Flush()
}

func printPosts(w io.Writer, posts []models.Post, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPVOTES\tCOMMENTS\tAGE\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			displayID(p.ID),
			humanize.Comma(int64(p.UpvoteCount)),
			humanize.Comma(int64(p.CommentCount)),
			thread.RelativeTime(p.CreatedAt, now),
			truncate(p.Title, maxColumn),
		)
	}
	_ = tw.Flush()
}

// printThread renders the post header followed by its comments, indented
// two spaces per reply level.
func printThread(w io.Writer, p models.Post, forest []*thread.Node, now time.Time) {
	fmt.Fprintf(w, "%s\n", p.Title)
	fmt.Fprintf(w, "by %s, %s, %s upvotes, %s comments\n",
		author(p.AuthorDisplayName, p.AuthorID),
		thread.RelativeTime(p.CreatedAt, now),
		humanize.Comma(int64(p.UpvoteCount)),
		humanize.Comma(int64(p.CommentCount)),
	)
	if p.URL != "" {
		fmt.Fprintf(w, "%s\n", p.URL)
	}
	if p.Content != "" {
		fmt.Fprintf(w, "\n%s\n", p.Content)
	}
	if len(forest) == 0 {
		fmt.Fprintln(w, "\nNo comments yet.")
		return
	}
	fmt.Fprintln(w)
	thread.Walk(forest, func(n *thread.Node, depth int) {
		cm := n.Comment
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s- %s [%s] %s, %d upvotes\n", indent,
			author(cm.AuthorDisplayName, cm.AuthorID), displayID(cm.ID), thread.RelativeTime(cm.CreatedAt, now), cm.UpvoteCount)
		for _, line := range strings.Split(cm.Content, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
	})
}

func printLikeState(w io.Writer, likedBy []string, count int, viewerID string) {
	state := "unliked"
	if viewerID != "" && models.HasLiked(likedBy, viewerID) {
		state = "liked"
	}
	fmt.Fprintf(w, "%s, %s upvotes\n", state, humanize.Comma(int64(count)))
}

func printEvent(w io.Writer, ev models.ChangeEvent) {
	parts := []string{ev.At.Format(time.TimeOnly), string(ev.Type)}
	if ev.CircleSlug != "" {
		parts = append(parts, "circle="+ev.CircleSlug)
	}
	if ev.PostID != "" {
		parts = append(parts, "post="+ev.PostID)
	}
	if ev.CommentID != "" {
		parts = append(parts, "comment="+ev.CommentID)
	}
	if ev.ActorID != "" {
		parts = append(parts, "by="+ev.ActorID)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func author(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// displayID marks records the server has not confirmed yet.
func displayID(id string) string {
	if optimistic.IsTempID(id) {
		return "pending"
	}
	return id
}
