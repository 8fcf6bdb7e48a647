// AngelaMos | 2026
// dto.go

package cart

import (
	"time"
)

type AddItemRequest struct {
	MenuID string  `json:"menuId" validate:"required,uuid"`
	Email  string  `json:"email"  validate:"omitempty,email,max=255"`
	Name   string  `json:"name"   validate:"required,min=1,max=200"`
	Price  float64 `json:"price"  validate:"gte=0"`
	Image  string  `json:"image"  validate:"omitempty,max=2048"`
}

type EntryResponse struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	MenuID    string    `json:"menuId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

type InsertResult struct {
	InsertedID string `json:"insertedId"`
}

type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

func ToEntryResponse(e *Entry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Email:     e.Email,
		MenuID:    e.MenuID,
		Name:      e.Name,
		Price:     e.Price,
		Image:     e.Image,
		CreatedAt: e.CreatedAt,
	}
}

func ToEntryResponseList(entries []Entry) []EntryResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, ToEntryResponse(&e))
	}
	return responses
}
