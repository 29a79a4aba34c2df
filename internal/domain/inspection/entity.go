package inspection

import (
	"time"

	"github.com/google/uuid"

	"yardcheck/internal/checklist"
)

// Status represents the lifecycle state of an inspection
type Status string

const (
	StatusInProgress Status = "in-progress" // Walkthrough underway
	StatusComplete   Status = "complete"    // All done, terminal
	StatusGone       Status = "gone"        // Truck left the yard early, terminal
)

// Terminal reports whether the status permits no further transitions
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusGone
}

// ChecklistItemData is the answer record for one checklist item. Photo
// fields are optional on every item; historically only exterior items
// carried them, but the shape is uniform on purpose.
type ChecklistItemData struct {
	Value      *string    `json:"value"`
	Comment    string     `json:"comment"`
	AnsweredBy string     `json:"answeredBy"`
	AnsweredAt *time.Time `json:"answeredAt"`

	PhotoURL     *string    `json:"photoUrl,omitempty"`
	PhotoTakenBy *string    `json:"photoTakenBy,omitempty"`
	PhotoTakenAt *time.Time `json:"photoTakenAt,omitempty"`
}

// Completed reports whether the item has been answered
func (d ChecklistItemData) Completed() bool {
	return d.Value != nil
}

// DefectPhoto is a photo attached to the inspection as a whole rather
// than to a single checklist item. Caption is omitted entirely when the
// inspector left it blank.
type DefectPhoto struct {
	URL     string    `json:"url"`
	Caption *string   `json:"caption,omitempty"`
	TakenBy string    `json:"takenBy"`
	TakenAt time.Time `json:"takenAt"`
}

// Inspection is one truck's checklist pass, from creation to terminal
// status. It is the unit of shared mutable state between inspectors.
type Inspection struct {
	ID uuid.UUID

	TruckNumber string
	Status      Status

	// Inspector1 created the inspection and never changes.
	// Inspector2 is set at most once when a second inspector joins.
	Inspector1 string
	Inspector2 *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Interior map[string]ChecklistItemData
	Exterior map[string]ChecklistItemData

	AdditionalDefects string
	DefectPhotos      []DefectPhoto
}

// New builds a fresh in-progress inspection with every checklist item
// unanswered. truckNumber and inspectorName are assumed normalized.
func New(truckNumber, inspectorName string) *Inspection {
	now := time.Now()
	return &Inspection{
		TruckNumber: truckNumber,
		Status:      StatusInProgress,
		Inspector1:  inspectorName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Interior:    emptySection(checklist.SectionInterior),
		Exterior:    emptySection(checklist.SectionExterior),
	}
}

func emptySection(id checklist.SectionID) map[string]ChecklistItemData {
	items := make(map[string]ChecklistItemData)
	for _, section := range checklist.Config {
		if section.ID != id {
			continue
		}
		for _, item := range section.Items {
			items[item.ID] = ChecklistItemData{Comment: ""}
		}
	}
	return items
}

// Section returns the item map for a section id, nil for unknown ids
func (i *Inspection) Section(id checklist.SectionID) map[string]ChecklistItemData {
	switch id {
	case checklist.SectionInterior:
		return i.Interior
	case checklist.SectionExterior:
		return i.Exterior
	}
	return nil
}

// CompletedItems counts answered items across both sections
func (i *Inspection) CompletedItems() int {
	count := 0
	for _, item := range i.Interior {
		if item.Completed() {
			count++
		}
	}
	for _, item := range i.Exterior {
		if item.Completed() {
			count++
		}
	}
	return count
}

// IsComplete reports whether every configured item has been answered
func (i *Inspection) IsComplete() bool {
	return i.CompletedItems() == checklist.TotalItems
}

// HasParticipant reports whether name is inspector1 or inspector2
func (i *Inspection) HasParticipant(name string) bool {
	if i.Inspector1 == name {
		return true
	}
	return i.Inspector2 != nil && *i.Inspector2 == name
}

// DefectItem is a flattened view of a flagged checklist answer, used by
// report and email generation
type DefectItem struct {
	ID       string              `json:"id"` // "<section>.<itemId>"
	Section  checklist.SectionID `json:"section"`
	Label    string              `json:"label"`
	Value    string              `json:"value"`
	Comment  string              `json:"comment"`
	HasPhoto bool                `json:"hasPhoto"`
}

// Defects scans both sections in schema order and returns the items
// whose answers flag a defect
func (i *Inspection) Defects() []DefectItem {
	var defects []DefectItem
	for _, section := range checklist.Config {
		data := i.Section(section.ID)
		for _, item := range section.Items {
			itemData, ok := data[item.ID]
			if !ok || itemData.Value == nil {
				continue
			}
			if !checklist.IsDefectValue(*itemData.Value) {
				continue
			}
			defects = append(defects, DefectItem{
				ID:       string(section.ID) + "." + item.ID,
				Section:  section.ID,
				Label:    item.Label,
				Value:    *itemData.Value,
				Comment:  itemData.Comment,
				HasPhoto: itemData.PhotoURL != nil && *itemData.PhotoURL != "",
			})
		}
	}
	return defects
}
