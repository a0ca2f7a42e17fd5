package models

import "time"

// Service is one entry in a contractor's price list. The suggestion assistant
// receives the full price list and is expected to price suggested items from
// it; items it prices outside the list come back with a zero price and are
// flagged accordingly on the quote.
type Service struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	Name string `gorm:"size:255;not null" json:"name"`
	// Unit of measure, e.g. m2, mb, szt, godz, ryczalt.
	Unit  string  `gorm:"size:50;not null" json:"unit"`
	Price float64 `gorm:"not null" json:"price"`
}

// GetUserID implements the Ownable interface for ownership scoping.
func (s *Service) GetUserID() uint {
	return s.UserID
}
