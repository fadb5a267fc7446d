// Package qna routes inbound channel events to the question registry, vote
// ledger, and event metadata store, and scopes replies to the right audience.
package qna

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stagetalk/backend/internal/auth"
	"github.com/stagetalk/backend/internal/eventconfig"
	"github.com/stagetalk/backend/internal/models"
	"github.com/stagetalk/backend/internal/questions"
	"github.com/stagetalk/backend/internal/realtime"
	"github.com/stagetalk/backend/internal/timer"
	"github.com/stagetalk/backend/internal/votes"
)

// EventNetworkIP is sent once per connection so display pages can render a
// join URL.
const EventNetworkIP = "network_ip"

// NetworkInfo is the payload of the network_ip event.
type NetworkInfo struct {
	IP   string `json:"ip"`
	Port string `json:"port"`
	URL  string `json:"url"`
}

// Router implements realtime.Router over the application services.
type Router struct {
	questions *questions.Service
	votes     *votes.Ledger
	bus       *questions.Broadcaster
	event     *eventconfig.Store
	moderator *auth.Moderator
	timer     *timer.Timer
	hub       *realtime.Hub
	network   NetworkInfo
	logger    *zap.Logger
}

// NewRouter wires the inbound event dispatcher.
func NewRouter(
	qs *questions.Service,
	ledger *votes.Ledger,
	bus *questions.Broadcaster,
	event *eventconfig.Store,
	moderator *auth.Moderator,
	tm *timer.Timer,
	hub *realtime.Hub,
	network NetworkInfo,
	logger *zap.Logger,
) *Router {
	return &Router{
		questions: qs,
		votes:     ledger,
		bus:       bus,
		event:     event,
		moderator: moderator,
		timer:     tm,
		hub:       hub,
		network:   network,
		logger:    logger,
	}
}

// HandleOpen pushes the initial snapshot to a newly connected client: network
// info, event metadata, the public question views, and the timer state.
func (r *Router) HandleOpen(ctx context.Context, c realtime.Sender) {
	c.Send(EventNetworkIP, r.network)
	cfg := r.event.Get()
	c.Send(eventconfig.EventNameUpdated, cfg.Name)
	c.Send(eventconfig.EventURLUpdated, cfg.URL)
	c.Send(eventconfig.EventDatetimeUpdated, cfg.Datetime)
	c.Send(timer.EventTimerState, r.timer.State())
	r.bus.SendApproved(ctx, c.ID())
	r.bus.SendLive(ctx, c.ID())
	r.bus.SendNextUp(ctx, c.ID())
}

// HandleEvent dispatches one inbound message. Unknown events and events the
// sender is not scoped for are dropped without a reply.
func (r *Router) HandleEvent(ctx context.Context, c realtime.Sender, msg realtime.WSMessage) {
	switch msg.Event {
	case "submit_question":
		r.handleSubmit(ctx, msg.Data)

	case "upvote":
		r.handleUpvote(ctx, c, msg.Data)

	case "request_questions":
		var req struct {
			SortBy string `json:"sortBy"`
		}
		_ = json.Unmarshal(msg.Data, &req)
		r.bus.SendAll(ctx, c.ID(), models.ParseSortKey(req.SortBy))

	case "request_approved_questions", "get_approved_questions":
		r.bus.SendApproved(ctx, c.ID())

	case "request_archived_questions":
		if !c.IsModerator() {
			return
		}
		r.bus.SendArchive(ctx, c.ID())

	case "join_moderator", "moderator_login":
		r.handleModeratorLogin(ctx, c, msg.Data)

	case "moderator_action":
		if !c.IsModerator() {
			// Silent no-op: no information about why.
			return
		}
		r.handleModeratorAction(ctx, msg.Data)

	case "save_event_config":
		if !c.IsModerator() {
			return
		}
		r.handleSaveEventConfig(msg.Data)

	case "request_export_data":
		if !c.IsModerator() {
			return
		}
		r.bus.SendExport(ctx, c.ID())

	default:
		r.logger.Debug("unknown channel event", zap.String("event", msg.Event))
	}
}

func (r *Router) handleSubmit(ctx context.Context, data json.RawMessage) {
	var req struct {
		Username      string `json:"username"`
		Text          string `json:"text"`
		ParticipantID string `json:"participant_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	if _, err := r.questions.Submit(ctx, req.Username, req.Text, req.ParticipantID); err != nil {
		if errors.Is(err, questions.ErrEmptyText) {
			r.logger.Debug("rejected empty question")
		}
	}
}

func (r *Router) handleUpvote(ctx context.Context, c realtime.Sender, data json.RawMessage) {
	// The payload is the bare question id string.
	var idStr string
	if err := json.Unmarshal(data, &idStr); err != nil {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return
	}
	// Voter identity is the connection id: a reconnecting participant counts
	// as a new voter.
	_, _ = r.votes.Upvote(ctx, id, c.ID())
}

func (r *Router) handleModeratorLogin(ctx context.Context, c realtime.Sender, data json.RawMessage) {
	var credential string
	if err := json.Unmarshal(data, &credential); err != nil {
		return
	}
	if !r.moderator.VerifyCredential(credential) {
		return
	}
	c.Promote()
	r.bus.SendAll(ctx, c.ID(), models.SortRecency)
	r.bus.SendArchive(ctx, c.ID())
}

func (r *Router) handleModeratorAction(ctx context.Context, data json.RawMessage) {
	var req struct {
		ID      string `json:"id"`
		Action  string `json:"action"`
		NewText string `json:"newText"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	// Timer controls carry no question id.
	switch req.Action {
	case "timer_start":
		r.timer.Start()
		return
	case "timer_stop":
		r.timer.Stop()
		return
	case "timer_reset":
		r.timer.Reset()
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return
	}

	switch req.Action {
	case "approved":
		_ = r.questions.Approve(ctx, id)
	case "unapprove":
		_ = r.questions.Unapprove(ctx, id)
	case "live":
		if err := r.questions.SetLive(ctx, id); err == nil {
			r.timer.Restart()
		}
	case "next_up":
		_ = r.questions.SetNextUp(ctx, id)
	case "cancel_live":
		if err := r.questions.CancelLive(ctx, id); err == nil {
			r.timer.Reset()
		}
	case "cancel_next_up":
		_ = r.questions.CancelNextUp(ctx, id)
	case "edit":
		_ = r.questions.EditText(ctx, id, req.NewText)
	case "archive":
		_ = r.questions.Archive(ctx, id)
	case "unarchive":
		_ = r.questions.Unarchive(ctx, id)
	case "questiondeleted":
		_ = r.questions.Delete(ctx, id)
	default:
		// Forward-compatible statuses pass through as a raw overwrite.
		_ = r.questions.OverrideStatus(ctx, id, req.Action)
	}
}

func (r *Router) handleSaveEventConfig(data json.RawMessage) {
	var req struct {
		EventName     string `json:"eventName"`
		EventURL      string `json:"eventURL"`
		EventDatetime string `json:"eventDatetime"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	cfg := r.event.Update(models.EventConfig{
		Name:     req.EventName,
		URL:      req.EventURL,
		Datetime: req.EventDatetime,
	})
	r.hub.Broadcast(eventconfig.EventNameUpdated, cfg.Name)
	r.hub.Broadcast(eventconfig.EventURLUpdated, cfg.URL)
	r.hub.Broadcast(eventconfig.EventDatetimeUpdated, cfg.Datetime)
}
