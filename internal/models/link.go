package models

import (
	"time"

	"github.com/google/uuid"
)

// Link короткая ссылка со счётчиками переходов по типам устройств
type Link struct {
	ID            int64     `json:"-"`
	ShortCode     string    `json:"short_code"`
	Target        string    `json:"target"`
	OwnerID       uuid.UUID `json:"owner_id"`
	TotalClicks   int64     `json:"total_clicks"`
	MobileClicks  int64     `json:"mobile_clicks"`
	TabletClicks  int64     `json:"tablet_clicks"`
	DesktopClicks int64     `json:"desktop_clicks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy сравнивает владельца по идентификатору, а не по строковому представлению
func (l *Link) OwnedBy(owner uuid.UUID) bool {
	return l.OwnerID == owner
}

type CreateLinkInput struct {
	Target string `json:"target" binding:"max=2048"`
}

type EditLinkInput struct {
	NewTarget string `json:"new_target" binding:"max=2048"`
}
