package request

import "github.com/google/uuid"

// PrintKOTsRequest prints several tickets in one call
type PrintKOTsRequest struct {
	KOTIDs []uuid.UUID `json:"kot_ids" binding:"required,min=1,max=100"`
}
