package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courierhq.app/courier/common/logger"
	"courierhq.app/courier/internal/metrics"
	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/service"
	"courierhq.app/courier/internal/store"
)

// MessagePoster mirrors service.MessagePoster - defined here to avoid import
// cycles.
type MessagePoster interface {
	PostMessage(ctx context.Context, token, channelID, text string) (string, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int32
}

// Dispatcher wakes up on a fixed interval, scans for due pending messages and
// delivers them. Each message is handled in isolation: one failure never
// blocks the rest of the batch, and a tick that finds nothing due does
// nothing.
type Dispatcher struct {
	workspaces store.WorkspaceStore
	messages   store.ScheduledMessageStore
	tokens     service.TokenService
	poster     MessagePoster
	cfg        Config
	nowFn      func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

type Option func(*Dispatcher)

// WithClock overrides the clock used for due-message scans.
func WithClock(nowFn func() time.Time) Option {
	return func(d *Dispatcher) { d.nowFn = nowFn }
}

func New(
	workspaces store.WorkspaceStore,
	messages store.ScheduledMessageStore,
	tokens service.TokenService,
	poster MessagePoster,
	cfg Config,
	opts ...Option,
) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	d := &Dispatcher{
		workspaces: workspaces,
		messages:   messages,
		tokens:     tokens,
		poster:     poster,
		cfg:        cfg,
		nowFn:      time.Now,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "courier.dispatcher"})
	slog.InfoContext(ctx, "dispatcher started", "interval", d.cfg.Interval)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopCh:
			slog.InfoContext(ctx, "dispatcher stopping")
			return nil
		case <-ticker.C:
			// A failed tick is logged and the next tick proceeds normally.
			if err := d.Tick(ctx); err != nil {
				slog.ErrorContext(ctx, "dispatch tick failed", "error", err)
			}
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.stoppedCh
}

// Tick scans for messages whose scheduled time has arrived and delivers them
// in scheduled order.
func (d *Dispatcher) Tick(ctx context.Context) error {
	metrics.DispatchTicks.Inc()

	due, err := d.messages.ListDuePending(ctx, d.nowFn(), d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("scanning due messages: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "due messages found", "count", len(due))

	// Workspaces are looked up once per team per tick.
	teams := make(map[string]*model.Workspace)

	for i := range due {
		msg := &due[i]
		ws, ok := teams[msg.TeamID]
		if !ok {
			ws, err = d.lookupWorkspace(ctx, msg.TeamID)
			if err != nil {
				slog.ErrorContext(ctx, "workspace lookup failed",
					"team_id", msg.TeamID,
					"error", err,
				)
				continue
			}
			teams[msg.TeamID] = ws
		}
		d.deliver(ctx, ws, msg)
	}

	return nil
}

// lookupWorkspace returns nil without error when the workspace is gone, so
// the caller can fail the message rather than retry it forever.
func (d *Dispatcher) lookupWorkspace(ctx context.Context, teamID string) (*model.Workspace, error) {
	ws, err := d.workspaces.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ws, nil
}

func (d *Dispatcher) deliver(ctx context.Context, ws *model.Workspace, msg *model.ScheduledMessage) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TeamID:    logger.Ptr(msg.TeamID),
		MessageID: logger.Ptr(msg.ID),
		Channel:   logger.Ptr(msg.Channel),
	})

	if ws == nil || !ws.Deliverable() {
		d.fail(ctx, msg, "workspace not connected", metrics.ReasonWorkspaceMissing)
		return
	}

	token, err := d.tokens.ValidAccessToken(ctx, ws)
	if err != nil {
		d.fail(ctx, msg, err.Error(), metrics.ReasonTokenRefresh)
		return
	}

	ts, err := d.poster.PostMessage(ctx, token, msg.Channel, msg.Message)
	if err != nil {
		d.fail(ctx, msg, err.Error(), metrics.ReasonProvider)
		return
	}

	if err := d.messages.MarkSent(ctx, msg.ID, ts); err != nil {
		// The message went out; only the status write failed. Cancellation
		// winning the race lands here too, in which case there is nothing
		// left to record.
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "message delivered but no longer pending", "slack_message_ts", ts)
			return
		}
		slog.ErrorContext(ctx, "could not mark message sent", "error", err, "slack_message_ts", ts)
		return
	}

	metrics.MessagesSent.Inc()
	slog.InfoContext(ctx, "scheduled message delivered",
		"scheduled_time", msg.ScheduledTime,
		"slack_message_ts", ts,
	)
}

// fail transitions the message to its terminal failed status with the reason
// recorded. Failed messages are never retried.
func (d *Dispatcher) fail(ctx context.Context, msg *model.ScheduledMessage, reason, metricReason string) {
	slog.ErrorContext(ctx, "scheduled message delivery failed", "reason", reason)

	if err := d.messages.MarkFailed(ctx, msg.ID, logger.Truncate(reason, 512)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "failed message no longer pending")
			return
		}
		slog.ErrorContext(ctx, "could not mark message failed", "error", err)
		return
	}

	metrics.MessagesFailed.WithLabelValues(metricReason).Inc()
}
