package engine

import (
	"context"
	"sync"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the structured notification record the engine hands to the
// sink. Delivery and read-state are the sink's business; the engine only
// describes what happened.
type Event struct {
	ID        string // correlation id for logs
	Recipient uint
	Actor     uint
	Kind      string // models.NotificationLike, NotificationComment, NotificationSystem
	PostID    string
	CommentID string
	GroupID   string
	Message   string
}

// Sink receives notification events from the engine. Every call is
// fire-and-forget: implementations must never block the caller on delivery
// and must swallow their own failures.
//
// Revoke and DropPost exist because like notifications mirror like
// existence and post notifications die with their post; both removals are
// best-effort like Emit.
type Sink interface {
	Emit(ctx context.Context, ev Event)
	Revoke(ctx context.Context, ev Event)
	DropPost(ctx context.Context, postID string)
}

// Notifier is the persistent Sink implementation: it writes events to the
// notification store on background goroutines. Failures are logged at Warn
// and dropped; notification delivery is never allowed to fail a mutation.
type Notifier struct {
	repo repositories.NotificationRepository
	log  *zap.Logger

	wg sync.WaitGroup
}

// NewNotifier creates a Notifier writing through repo.
func NewNotifier(repo repositories.NotificationRepository, log *zap.Logger) *Notifier {
	return &Notifier{repo: repo, log: log}
}

// Emit persists the event asynchronously.
func (n *Notifier) Emit(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	n.async(func() {
		notif := &models.Notification{
			Kind:        ev.Kind,
			ActorID:     ev.Actor,
			RecipientID: ev.Recipient,
			PostID:      ev.PostID,
			CommentID:   ev.CommentID,
			GroupID:     ev.GroupID,
			Message:     ev.Message,
			CreatedAt:   time.Now(),
		}
		if err := n.repo.CreateNotification(notif); err != nil {
			n.log.Warn("notification emit failed",
				zap.String("event_id", ev.ID),
				zap.String("kind", ev.Kind),
				zap.Uint("recipient", ev.Recipient),
				zap.Error(err))
		}
	})
}

// Revoke removes the like notification matching the event's
// (recipient, actor, post) triple, asynchronously.
func (n *Notifier) Revoke(ctx context.Context, ev Event) {
	n.async(func() {
		if err := n.repo.DeleteLikeNotification(ev.Recipient, ev.Actor, ev.PostID); err != nil {
			n.log.Warn("notification revoke failed",
				zap.Uint("recipient", ev.Recipient),
				zap.Uint("actor", ev.Actor),
				zap.String("post_id", ev.PostID),
				zap.Error(err))
		}
	})
}

// DropPost removes every notification referencing postID, asynchronously.
func (n *Notifier) DropPost(ctx context.Context, postID string) {
	n.async(func() {
		if err := n.repo.DeleteByPostID(postID); err != nil {
			n.log.Warn("notification cleanup failed",
				zap.String("post_id", postID),
				zap.Error(err))
		}
	})
}

// Flush waits for in-flight writes. Used on shutdown and in tests.
func (n *Notifier) Flush() {
	n.wg.Wait()
}

func (n *Notifier) async(fn func()) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		fn()
	}()
}
