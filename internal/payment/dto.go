// AngelaMos | 2026
// dto.go

package payment

import "time"

type CreateIntentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type RecordPaymentRequest struct {
	Email         string         `json:"email"         validate:"omitempty,email"`
	Price         float64        `json:"price"         validate:"gt=0"`
	Currency      string         `json:"currency"      validate:"omitempty,len=3,alpha"`
	TransactionID string         `json:"transactionId" validate:"required,max=255"`
	CartIDs       []string       `json:"cartIds"       validate:"required,min=1,dive,uuid"`
	MenuItemIDs   []string       `json:"menuItemIds"   validate:"omitempty,dive,uuid"`
	Status        string         `json:"status"        validate:"omitempty,oneof=pending succeeded"`
	Metadata      map[string]any `json:"metadata"`
}

type RecordResponse struct {
	ID            string         `json:"_id"`
	Email         string         `json:"email"`
	Price         float64        `json:"price"`
	Currency      string         `json:"currency"`
	TransactionID string         `json:"transactionId"`
	CartIDs       []string       `json:"cartIds"`
	MenuItemIDs   []string       `json:"menuItemIds"`
	Status        string         `json:"status"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Date          time.Time      `json:"date"`
}

type InsertResult struct {
	InsertedID string `json:"insertedId"`
}

type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

type SettlementResponse struct {
	Status       Outcome      `json:"status"`
	InsertResult InsertResult `json:"insertResult"`
	DeleteResult DeleteResult `json:"deleteResult"`
	MissingIDs   []string     `json:"missingIds,omitempty"`
	FailedIDs    []string     `json:"failedIds,omitempty"`
}

func ToRecordResponse(r *Record) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		Email:         r.Email,
		Price:         r.Price,
		Currency:      r.Currency,
		TransactionID: r.TransactionID,
		CartIDs:       []string(r.CartIDs),
		MenuItemIDs:   []string(r.MenuItemIDs),
		Status:        r.Status,
		Metadata:      map[string]any(r.Metadata),
		Date:          r.CreatedAt,
	}
}

func ToRecordResponseList(records []Record) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = ToRecordResponse(&records[i])
	}
	return out
}

func ToSettlementResponse(s *Settlement) SettlementResponse {
	return SettlementResponse{
		Status:       s.Outcome,
		InsertResult: InsertResult{InsertedID: s.Record.ID},
		DeleteResult: DeleteResult{DeletedCount: int64(len(s.DeletedIDs))},
		MissingIDs:   s.MissingIDs,
		FailedIDs:    s.FailedIDs,
	}
}
