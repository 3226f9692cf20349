package dto

import (
	"time"

	"courierhq.app/courier/internal/model"
)

type WorkspaceResponse struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Connected bool      `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
}

func ToWorkspaceResponse(ws *model.Workspace) *WorkspaceResponse {
	return &WorkspaceResponse{
		TeamID:    ws.TeamID,
		TeamName:  ws.TeamName,
		Connected: ws.IsActive,
		CreatedAt: ws.CreatedAt,
	}
}

func ToWorkspaceResponses(workspaces []model.Workspace) []WorkspaceResponse {
	out := make([]WorkspaceResponse, 0, len(workspaces))
	for i := range workspaces {
		out = append(out, *ToWorkspaceResponse(&workspaces[i]))
	}
	return out
}
