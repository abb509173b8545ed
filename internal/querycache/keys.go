package querycache

import "strings"

// Key identifies one cached collection or record ("query scope").
type Key string

func (k Key) String() string { return string(k) }

// HasPrefix reports whether the key starts with prefix.
func (k Key) HasPrefix(prefix string) bool { return strings.HasPrefix(string(k), prefix) }

// CirclesKey scopes the circle directory.
func CirclesKey() Key { return "circles" }

// CircleKey scopes one circle detail.
func CircleKey(slug string) Key { return Key("circle:" + slug) }

// MembersKey scopes the join roster of a circle.
func MembersKey(slug string) Key { return Key("members:" + slug) }

// PostsPrefix is shared by every sort order of a circle's post list.
func PostsPrefix(slug string) string { return "posts:" + slug + ":" }

// PostsKey scopes the posts of a circle in one sort order.
func PostsKey(slug, sort string) Key {
	if sort == "" {
		sort = "new"
	}
	return Key(PostsPrefix(slug) + sort)
}

// PostKey scopes a single post detail.
func PostKey(id string) Key { return Key("post:" + id) }

// CommentsKey scopes the flat comment list of a post.
func CommentsKey(postID string) Key { return Key("comments:" + postID) }
