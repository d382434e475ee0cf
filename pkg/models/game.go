package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

type Game struct {
	bun.BaseModel `bun:"table:games,alias:g" tstype:"-"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time `bun:",nullzero,notnull" json:"createdAt"`
	UpdatedAt   time.Time `bun:",nullzero,notnull" json:"updatedAt"`
	PublisherID string    `bun:",notnull" json:"publisherId"`
	Name        string    `bun:",notnull" json:"name"`
	Platform    string    `bun:",notnull" json:"platform"`
	StoreID     string    `json:"storeId"`
	BundleID    string    `json:"bundleId"`
	AppVersion  string    `json:"appVersion"`
	IsPublished bool      `bun:",notnull" json:"isPublished"`
}

// Assign copies the client-mutable fields from other onto g. The id and
// timestamps are left alone.
func (g *Game) Assign(other *Game) {
	g.PublisherID = other.PublisherID
	g.Name = other.Name
	g.Platform = other.Platform
	g.StoreID = other.StoreID
	g.BundleID = other.BundleID
	g.AppVersion = other.AppVersion
	g.IsPublished = other.IsPublished
}

// MutableColumns are the columns an update overwrites.
var MutableColumns = []string{
	"publisher_id",
	"name",
	"platform",
	"store_id",
	"bundle_id",
	"app_version",
	"is_published",
}
