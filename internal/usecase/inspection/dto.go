package inspection

import (
	"time"

	"yardcheck/internal/checklist"
	domainInspection "yardcheck/internal/domain/inspection"
)

// StartRequest opens an inspection, or joins the one already running
// for the same truck
type StartRequest struct {
	TruckNumber   string `json:"truckNumber" validate:"required"`
	InspectorName string `json:"inspectorName" validate:"required"`
}

// UpdateItemRequest answers one checklist item. Value is a pointer so
// an answer can be cleared again.
type UpdateItemRequest struct {
	Section string  `json:"section" validate:"required,oneof=interior exterior"`
	ItemID  string  `json:"itemId" validate:"required"`
	Value   *string `json:"value"`
}

// UpdateCommentRequest sets the free-text note on one item
type UpdateCommentRequest struct {
	Section string `json:"section" validate:"required,oneof=interior exterior"`
	ItemID  string `json:"itemId" validate:"required"`
	Comment string `json:"comment"`
}

// AdditionalDefectsRequest replaces the inspection-level defects text
type AdditionalDefectsRequest struct {
	Text string `json:"text"`
}

// AddDefectPhotoRequest attaches a standalone defect photo
type AddDefectPhotoRequest struct {
	Caption *string `json:"caption"`
}

// JoinRequest adds a second inspector to a running inspection
type JoinRequest struct {
	InspectorName string `json:"inspectorName" validate:"required"`
}

// ListRequest filters the inspection list
type ListRequest struct {
	Status      string     `form:"status"`
	TruckNumber string     `form:"truckNumber"`
	Inspector   string     `form:"inspector"`
	From        *time.Time `form:"from"`
	To          *time.Time `form:"to"`
	Page        int        `form:"page"`
	PageSize    int        `form:"pageSize"`
}

// Response is the full inspection document plus derived progress, sent
// both over HTTP and as the realtime snapshot payload
type Response struct {
	ID          string     `json:"id"`
	TruckNumber string     `json:"truckNumber"`
	Status      string     `json:"status"`
	Inspector1  string     `json:"inspector1"`
	Inspector2  *string    `json:"inspector2,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Interior map[string]domainInspection.ChecklistItemData `json:"interior"`
	Exterior map[string]domainInspection.ChecklistItemData `json:"exterior"`

	AdditionalDefects string                         `json:"additionalDefects"`
	DefectPhotos      []domainInspection.DefectPhoto `json:"defectPhotos"`

	CompletedItems int `json:"completedItems"`
	TotalItems     int `json:"totalItems"`
}

// ListResponse is a page of inspections
type ListResponse struct {
	Inspections []*Response `json:"inspections"`
	Total       int64       `json:"total"`
	Page        int         `json:"page"`
	PageSize    int         `json:"pageSize"`
}

// StartResponse reports whether the inspection was freshly created or
// an existing one was joined
type StartResponse struct {
	Inspection *Response `json:"inspection"`
	Created    bool      `json:"created"`
}

// ToResponse converts a domain inspection to its API shape
func ToResponse(i *domainInspection.Inspection) *Response {
	photos := i.DefectPhotos
	if photos == nil {
		photos = []domainInspection.DefectPhoto{}
	}
	return &Response{
		ID:                i.ID.String(),
		TruckNumber:       i.TruckNumber,
		Status:            string(i.Status),
		Inspector1:        i.Inspector1,
		Inspector2:        i.Inspector2,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		CompletedAt:       i.CompletedAt,
		Interior:          i.Interior,
		Exterior:          i.Exterior,
		AdditionalDefects: i.AdditionalDefects,
		DefectPhotos:      photos,
		CompletedItems:    i.CompletedItems(),
		TotalItems:        checklist.TotalItems,
	}
}
