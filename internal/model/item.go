package model

// DateLayout is the format of last_update and return_schedule.
const DateLayout = "2006-01-02"

// Item is a lendable physical object. A nil BorrowerID means the item is
// available; ReturnSchedule and Note are only set while it is lent.
type Item struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Detail         string  `json:"detail,omitempty"`
	BorrowerID     *int64  `json:"user_id"`
	LastUpdate     string  `json:"last_update"`
	ReturnSchedule *string `json:"return_schedule"`
	Note           *string `json:"note"`

	// Joined field (not always populated).
	BorrowerName string `json:"borrower_name,omitempty"`
}

// ItemState is the lending state derived from the borrower field.
type ItemState string

// Item states.
const (
	StateAvailable ItemState = "available"
	StateLent      ItemState = "lent"
)

// State returns whether the item is available or lent.
func (i *Item) State() ItemState {
	if i.BorrowerID == nil {
		return StateAvailable
	}
	return StateLent
}

// Lent reports whether the item is currently borrowed.
func (i *Item) Lent() bool {
	return i.State() == StateLent
}

// BorrowedBy reports whether userID currently holds the item.
func (i *Item) BorrowedBy(userID int64) bool {
	return i.BorrowerID != nil && *i.BorrowerID == userID
}
