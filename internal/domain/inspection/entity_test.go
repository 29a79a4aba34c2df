package inspection

import (
	"testing"
	"time"

	"yardcheck/internal/checklist"
)

func strPtr(s string) *string { return &s }

func TestNewInspection(t *testing.T) {
	insp := New("AB-123", "Maria")

	if insp.Status != StatusInProgress {
		t.Errorf("unexpected status %s", insp.Status)
	}
	if insp.Inspector1 != "Maria" || insp.Inspector2 != nil {
		t.Error("unexpected inspector seats")
	}
	if len(insp.Interior) != 6 || len(insp.Exterior) != 8 {
		t.Fatalf("unexpected section sizes %d/%d", len(insp.Interior), len(insp.Exterior))
	}
	for id, item := range insp.Interior {
		if item.Value != nil {
			t.Errorf("item %s should start unanswered", id)
		}
	}
	if insp.CompletedItems() != 0 || insp.IsComplete() {
		t.Error("fresh inspection cannot be complete")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusInProgress.Terminal() {
		t.Error("in-progress is not terminal")
	}
	if !StatusComplete.Terminal() || !StatusGone.Terminal() {
		t.Error("complete and gone are terminal")
	}
}

func TestCompletedItemsAndIsComplete(t *testing.T) {
	insp := New("AB-123", "Maria")

	for _, section := range checklist.Config {
		items := insp.Section(section.ID)
		for _, item := range section.Items {
			data := items[item.ID]
			data.Value = strPtr(item.Options[0])
			items[item.ID] = data
		}
	}

	if insp.CompletedItems() != checklist.TotalItems {
		t.Errorf("expected %d completed, got %d", checklist.TotalItems, insp.CompletedItems())
	}
	if !insp.IsComplete() {
		t.Error("all items answered but IsComplete is false")
	}
}

func TestHasParticipant(t *testing.T) {
	insp := New("AB-123", "Maria")
	if !insp.HasParticipant("Maria") {
		t.Error("inspector1 is a participant")
	}
	if insp.HasParticipant("Joe") {
		t.Error("Joe has not joined yet")
	}
	insp.Inspector2 = strPtr("Joe")
	if !insp.HasParticipant("Joe") {
		t.Error("inspector2 is a participant")
	}
}

func TestDefects(t *testing.T) {
	insp := New("AB-123", "Maria")
	now := time.Now()

	tires := insp.Exterior["tires"]
	tires.Value = strPtr("no")
	tires.Comment = "rear worn"
	tires.PhotoURL = strPtr("https://x/photos/p.jpg")
	tires.AnsweredAt = &now
	insp.Exterior["tires"] = tires

	dot := insp.Exterior["dotAnnual"]
	dot.Value = strPtr("out-of-date")
	insp.Exterior["dotAnnual"] = dot

	reg := insp.Interior["registration"]
	reg.Value = strPtr("yes")
	insp.Interior["registration"] = reg

	defects := insp.Defects()
	if len(defects) != 2 {
		t.Fatalf("expected 2 defects, got %d", len(defects))
	}
	// Schema order: exterior items appear in their configured sequence
	if defects[0].ID != "exterior.dotAnnual" || defects[1].ID != "exterior.tires" {
		t.Errorf("unexpected defect order: %s, %s", defects[0].ID, defects[1].ID)
	}
	if defects[1].Label != "Tires" || defects[1].Value != "no" || defects[1].Comment != "rear worn" {
		t.Errorf("unexpected defect fields %+v", defects[1])
	}
	if !defects[1].HasPhoto || defects[0].HasPhoto {
		t.Error("photo flags wrong")
	}
}
