package games

import "github.com/gamedex/gamedex/pkg/models"

// GamePayload is the body accepted by create and update. Updates replace
// every field, so callers resend the full set. Values are stored as sent.
type GamePayload struct {
	PublisherID string `json:"publisherId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Platform    string `json:"platform" validate:"required"`
	StoreID     string `json:"storeId"`
	BundleID    string `json:"bundleId"`
	AppVersion  string `json:"appVersion"`
	IsPublished bool   `json:"isPublished"`
}

func (p *GamePayload) toModel() *models.Game {
	return &models.Game{
		PublisherID: p.PublisherID,
		Name:        p.Name,
		Platform:    p.Platform,
		StoreID:     p.StoreID,
		BundleID:    p.BundleID,
		AppVersion:  p.AppVersion,
		IsPublished: p.IsPublished,
	}
}

type ListGamesQuery struct {
	Name     *string `query:"name" json:"name,omitempty"`
	Platform *string `query:"platform" json:"platform,omitempty"`
}

type SearchGamesPayload struct {
	Name     *string `json:"name,omitempty"`
	Platform *string `json:"platform,omitempty"`
}
