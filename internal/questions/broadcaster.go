package questions

import (
	"context"

	"go.uber.org/zap"

	"github.com/stagetalk/backend/internal/models"
)

// Outbound event names pushed over the realtime channel.
const (
	EventLiveQuestion      = "live_question"
	EventNextUpQuestion    = "next_up_question"
	EventApprovedQuestions = "approved_questions"
	EventAllQuestions      = "all_questions"
	EventArchivedQuestions = "archived_questions"
	EventQuestionUpvoted   = "question_upvoted"
	EventUpdateVote        = "update_vote"
	EventExportData        = "export_data"
)

// Publisher is the fan-out side of the realtime channel. Implemented by
// realtime.Hub.
type Publisher interface {
	Broadcast(event string, payload interface{})
	BroadcastModerators(event string, payload interface{})
	SendToClient(clientID, event string, payload interface{})
}

// Broadcaster recomputes views after a mutation and pushes them to the right
// audience. Every push is a full replacement of the view, never a diff, so
// clients can never drift from server truth.
type Broadcaster struct {
	store  Store
	pub    Publisher
	logger *zap.Logger
}

// NewBroadcaster creates a broadcast coordinator over the store and channel.
func NewBroadcaster(store Store, pub Publisher, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{store: store, pub: pub, logger: logger}
}

// PublishApproved pushes the full approved list to every connection.
func (b *Broadcaster) PublishApproved(ctx context.Context) {
	list, err := b.store.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		b.logger.Error("query approved questions", zap.Error(err))
		return
	}
	b.pub.Broadcast(EventApprovedQuestions, emptyToSlice(list))
}

// PublishLive pushes the current live question (or null) to every connection.
func (b *Broadcaster) PublishLive(ctx context.Context) {
	q, err := b.store.GetByStatus(ctx, models.StatusLive)
	if err != nil {
		b.logger.Error("query live question", zap.Error(err))
		return
	}
	b.pub.Broadcast(EventLiveQuestion, q)
}

// PublishNextUp pushes the current next-up question (or null) to every connection.
func (b *Broadcaster) PublishNextUp(ctx context.Context) {
	q, err := b.store.GetByStatus(ctx, models.StatusNextUp)
	if err != nil {
		b.logger.Error("query next up question", zap.Error(err))
		return
	}
	b.pub.Broadcast(EventNextUpQuestion, q)
}

// PublishAll pushes the full unfiltered question list to the moderator scope.
func (b *Broadcaster) PublishAll(ctx context.Context) {
	list, err := b.store.List(ctx, models.SortRecency)
	if err != nil {
		b.logger.Error("query all questions", zap.Error(err))
		return
	}
	b.pub.BroadcastModerators(EventAllQuestions, emptyToSlice(list))
}

// PublishArchive pushes the full archive set to the moderator scope.
func (b *Broadcaster) PublishArchive(ctx context.Context) {
	list, err := b.store.ListArchived(ctx)
	if err != nil {
		b.logger.Error("query archived questions", zap.Error(err))
		return
	}
	if list == nil {
		list = []models.ArchivedQuestion{}
	}
	b.pub.BroadcastModerators(EventArchivedQuestions, list)
}

// PublishVote announces an accepted upvote: a count notice to everyone and the
// full updated question to the moderator scope.
func (b *Broadcaster) PublishVote(q *models.Question) {
	b.pub.Broadcast(EventQuestionUpvoted, map[string]interface{}{
		"id":      q.ID,
		"upvotes": q.Upvotes,
	})
	b.pub.BroadcastModerators(EventUpdateVote, q)
}

// SendApproved replies with the approved list to a single connection.
func (b *Broadcaster) SendApproved(ctx context.Context, clientID string) {
	list, err := b.store.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		b.logger.Error("query approved questions", zap.Error(err))
		return
	}
	b.pub.SendToClient(clientID, EventApprovedQuestions, emptyToSlice(list))
}

// SendLive replies with the current live question to a single connection.
func (b *Broadcaster) SendLive(ctx context.Context, clientID string) {
	q, err := b.store.GetByStatus(ctx, models.StatusLive)
	if err != nil {
		b.logger.Error("query live question", zap.Error(err))
		return
	}
	b.pub.SendToClient(clientID, EventLiveQuestion, q)
}

// SendNextUp replies with the current next-up question to a single connection.
func (b *Broadcaster) SendNextUp(ctx context.Context, clientID string) {
	q, err := b.store.GetByStatus(ctx, models.StatusNextUp)
	if err != nil {
		b.logger.Error("query next up question", zap.Error(err))
		return
	}
	b.pub.SendToClient(clientID, EventNextUpQuestion, q)
}

// SendAll replies with the full question list, sorted as requested, to a
// single connection.
func (b *Broadcaster) SendAll(ctx context.Context, clientID string, sort models.SortKey) {
	list, err := b.store.List(ctx, sort)
	if err != nil {
		b.logger.Error("query all questions", zap.Error(err))
		return
	}
	b.pub.SendToClient(clientID, EventAllQuestions, emptyToSlice(list))
}

// SendArchive replies with the archive set to a single connection.
func (b *Broadcaster) SendArchive(ctx context.Context, clientID string) {
	list, err := b.store.ListArchived(ctx)
	if err != nil {
		b.logger.Error("query archived questions", zap.Error(err))
		return
	}
	if list == nil {
		list = []models.ArchivedQuestion{}
	}
	b.pub.SendToClient(clientID, EventArchivedQuestions, list)
}

// SendExport replies with a complete snapshot of active and archived questions
// to a single connection.
func (b *Broadcaster) SendExport(ctx context.Context, clientID string) {
	active, err := b.store.List(ctx, models.SortRecency)
	if err != nil {
		b.logger.Error("query all questions", zap.Error(err))
		return
	}
	archived, err := b.store.ListArchived(ctx)
	if err != nil {
		b.logger.Error("query archived questions", zap.Error(err))
		return
	}
	if archived == nil {
		archived = []models.ArchivedQuestion{}
	}
	b.pub.SendToClient(clientID, EventExportData, map[string]interface{}{
		"questions":          emptyToSlice(active),
		"archived_questions": archived,
	})
}

func emptyToSlice(list []models.Question) []models.Question {
	if list == nil {
		return []models.Question{}
	}
	return list
}
