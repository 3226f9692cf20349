package handler_test

import (
	"context"

	"courierhq.app/courier/internal/model"
	"courierhq.app/courier/internal/service"
	"courierhq.app/courier/internal/slack"
)

type mockMessageService struct {
	sendOrScheduleFn func(ctx context.Context, ws *model.Workspace, req service.SendRequest) (*service.SendResult, error)
	listPendingFn    func(ctx context.Context, ws *model.Workspace) ([]model.ScheduledMessage, error)
	updatePendingFn  func(ctx context.Context, ws *model.Workspace, messageID int64, req service.UpdateRequest) (*model.ScheduledMessage, error)
	cancelFn         func(ctx context.Context, ws *model.Workspace, messageID int64) (*model.ScheduledMessage, error)
	listChannelsFn   func(ctx context.Context, ws *model.Workspace) ([]slack.Channel, error)
}

func (m *mockMessageService) SendOrSchedule(ctx context.Context, ws *model.Workspace, req service.SendRequest) (*service.SendResult, error) {
	if m.sendOrScheduleFn != nil {
		return m.sendOrScheduleFn(ctx, ws, req)
	}
	return &service.SendResult{}, nil
}

func (m *mockMessageService) ListPending(ctx context.Context, ws *model.Workspace) ([]model.ScheduledMessage, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx, ws)
	}
	return []model.ScheduledMessage{}, nil
}

func (m *mockMessageService) UpdatePending(ctx context.Context, ws *model.Workspace, messageID int64, req service.UpdateRequest) (*model.ScheduledMessage, error) {
	if m.updatePendingFn != nil {
		return m.updatePendingFn(ctx, ws, messageID, req)
	}
	return nil, nil
}

func (m *mockMessageService) Cancel(ctx context.Context, ws *model.Workspace, messageID int64) (*model.ScheduledMessage, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, ws, messageID)
	}
	return nil, nil
}

func (m *mockMessageService) ListChannels(ctx context.Context, ws *model.Workspace) ([]slack.Channel, error) {
	if m.listChannelsFn != nil {
		return m.listChannelsFn(ctx, ws)
	}
	return []slack.Channel{}, nil
}

type mockAuthService struct {
	installURLFn     func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Workspace, error)
	logoutFn         func(ctx context.Context, ws *model.Workspace) error
	statusFn         func(ctx context.Context, teamID string) (*model.Workspace, error)
	listActiveFn     func(ctx context.Context) ([]model.Workspace, error)
}

func (m *mockAuthService) InstallURL(state string) string {
	if m.installURLFn != nil {
		return m.installURLFn(state)
	}
	return "https://slack.com/oauth/v2/authorize?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Workspace, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return &model.Workspace{}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, ws *model.Workspace) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, ws)
	}
	return nil
}

func (m *mockAuthService) Status(ctx context.Context, teamID string) (*model.Workspace, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, teamID)
	}
	return &model.Workspace{TeamID: teamID, IsActive: true}, nil
}

func (m *mockAuthService) ListActive(ctx context.Context) ([]model.Workspace, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return []model.Workspace{}, nil
}
