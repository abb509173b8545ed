// Package optimistic applies writes to the query cache before the data
// service confirms them, and converges the cache to server truth afterwards.
//
// Every mutation follows the same protocol: validate, lock and snapshot the
// affected query scopes, apply a speculative change, commit through the data
// service, then either invalidate the scopes (success) or restore every
// snapshot exactly and keep the user's input as a draft (failure).
package optimistic

import (
	"context"
	"log/slog"
	"time"

	"circles/internal/models"
	"circles/internal/observability"
	"circles/internal/querycache"
	"circles/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DataService is the remote collaborator the coordinator reads from and
// commits to. internal/client implements it over HTTP.
type DataService interface {
	ListCircles(ctx context.Context) ([]models.Circle, error)
	GetCircle(ctx context.Context, slug string) (models.Circle, error)
	ListMembers(ctx context.Context, slug string) ([]models.CircleMembership, error)
	JoinCircle(ctx context.Context, slug string) error
	LeaveCircle(ctx context.Context, slug string) error

	ListPosts(ctx context.Context, slug, sort string) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, slug string, req models.CreatePostRequest) (models.Post, error)
	UpdatePost(ctx context.Context, id string, req models.UpdatePostRequest) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
	TogglePostLike(ctx context.Context, id string) (models.Post, error)

	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, postID string, req models.CreateCommentRequest) (models.Comment, error)
	UpdateComment(ctx context.Context, id string, req models.UpdateCommentRequest) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ToggleCommentLike(ctx context.Context, id string) (models.Comment, error)
}

// Options wires a Coordinator. Cache, Data and Session are required.
type Options struct {
	Cache   *querycache.Cache
	Data    DataService
	Session session.Provider
	Logger  *slog.Logger
	Now     func() time.Time
}

// Coordinator runs optimistic mutations and cached reads. It is safe for
// concurrent use; mutations sharing a scope run one at a time.
type Coordinator struct {
	cache   *querycache.Cache
	data    DataService
	session session.Provider
	logger  *slog.Logger
	now     func() time.Time
	drafts  *Drafts
	locks   *scopeLocks
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = observability.GlobalLogger.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		cache:   opts.Cache,
		data:    opts.Data,
		session: opts.Session,
		logger:  opts.Logger.With(slog.String("component", "optimistic")),
		now:     opts.Now,
		drafts:  newDrafts(),
		locks:   newScopeLocks(),
	}
}

// Cache returns the query cache the coordinator writes to.
func (c *Coordinator) Cache() *querycache.Cache { return c.cache }

// Drafts returns the store of inputs kept from failed mutations.
func (c *Coordinator) Drafts() *Drafts { return c.drafts }

type mutation struct {
	kind     string
	scopes   []querycache.Key
	draftKey string
	draft    any
	// apply writes the speculative change. It runs with every scope locked
	// and pinned.
	apply  func()
	commit func(ctx context.Context) error
	// reconcile replaces speculative records with the committed ones before
	// the scopes are invalidated.
	reconcile func()
}

func (c *Coordinator) run(ctx context.Context, m mutation) error {
	start := c.now()
	span, ctx := observability.NewSpan(ctx, "optimistic."+m.kind, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.AddAttributes(
		attribute.String("mutation.kind", m.kind),
		attribute.Int("mutation.scopes", len(m.scopes)),
	)

	release, err := c.locks.acquire(ctx, m.scopes)
	if err != nil {
		return c.fail(ctx, span, m, start, err, false)
	}
	defer release()
	unpin := c.cache.Pin(m.scopes...)
	defer unpin()

	snaps := make([]querycache.Snapshot, len(m.scopes))
	for i, k := range m.scopes {
		snaps[i] = c.cache.Snapshot(k)
	}

	m.apply()

	if err := m.commit(ctx); err != nil {
		for i := len(snaps) - 1; i >= 0; i-- {
			c.cache.Restore(snaps[i])
		}
		return c.fail(ctx, span, m, start, err, true)
	}

	if m.reconcile != nil {
		m.reconcile()
	}
	for _, k := range m.scopes {
		c.cache.Invalidate(k)
	}
	c.drafts.clear(m.draftKey)

	observability.ObserveMutation(m.kind, "committed", start)
	c.logger.DebugContext(ctx, "mutation committed",
		slog.String("kind", m.kind),
		slog.Int("scopes", len(m.scopes)),
		slog.Duration("latency", c.now().Sub(start)),
	)
	return nil
}

func (c *Coordinator) fail(ctx context.Context, span *observability.Span, m mutation, start time.Time, err error, rolledBack bool) error {
	merr := mutationError(m.kind, err)
	c.drafts.put(m.draftKey, m.draft)

	outcome := "aborted"
	if rolledBack {
		outcome = "rolled_back"
	}
	observability.ObserveMutation(m.kind, outcome, start)
	span.SetError(merr)
	c.logger.WarnContext(ctx, "mutation failed",
		slog.String("kind", m.kind),
		slog.String("error_kind", string(merr.Kind)),
		slog.Bool("rolled_back", rolledBack),
		slog.String("error", err.Error()),
	)
	return merr
}

// reject reports a failure found before any scope was touched.
func (c *Coordinator) reject(op string, err error) error {
	merr := mutationError(op, err)
	observability.MutationsTotal.WithLabelValues(op, "rejected").Inc()
	return merr
}
