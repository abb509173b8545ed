package server

import (
	"context"
	"time"

	"circles/internal/models"
	"circles/internal/observability"
)

const publishTimeout = 2 * time.Second

// publishEvent announces a committed mutation. Delivery is best effort: the
// write has already succeeded, so a failed publish is logged and dropped.
func (s *Server) publishEvent(ctx context.Context, ev models.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	// Detach from the request so a client disconnect does not cancel the publish.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.notifier.Publish(pubCtx, ev); err != nil {
		observability.LogAsyncOperationError(ctx, "publish_change_event", err, map[string]interface{}{
			"type":   string(ev.Type),
			"circle": ev.CircleSlug,
		})
	}
}

// postEvent fills the circle slug for an event about p.
func (s *Server) postEvent(ctx context.Context, t models.ChangeEventType, p *models.Post, actorID string) models.ChangeEvent {
	return models.ChangeEvent{
		Type:       t,
		CircleSlug: s.circleService.CircleSlug(ctx, p.CircleID),
		PostID:     p.ID,
		ActorID:    actorID,
	}
}

// commentEvent resolves the post and circle a comment belongs to.
func (s *Server) commentEvent(ctx context.Context, t models.ChangeEventType, cm *models.Comment, actorID string) models.ChangeEvent {
	ev := models.ChangeEvent{
		Type:      t,
		PostID:    cm.PostID,
		CommentID: cm.ID,
		ActorID:   actorID,
	}
	if p, err := s.postRepo.GetByID(ctx, cm.PostID); err == nil {
		ev.CircleSlug = s.circleService.CircleSlug(ctx, p.CircleID)
	}
	return ev
}
