package inspection

import (
	"regexp"
	"strings"

	"yardcheck/internal/checklist"
	domainInspection "yardcheck/internal/domain/inspection"
	"yardcheck/pkg/utils"
)

const (
	maxTruckNumberLen = 50
	maxInspectorLen   = 100
	maxCommentLen     = 1000
	maxDefectsLen     = 5000
	maxCaptionLen     = 200
)

var truckNumberStrip = regexp.MustCompile(`[^A-Za-z0-9\- ]`)

// NormalizeTruckNumber strips everything outside letters, digits,
// hyphens and spaces, trims, and uppercases. Truck numbers are typed on
// phone keyboards next to idling engines, so arbitrary noise is dropped
// silently rather than rejected.
func NormalizeTruckNumber(raw string) (string, error) {
	cleaned := strings.TrimSpace(truckNumberStrip.ReplaceAllString(raw, ""))
	if cleaned == "" || len(cleaned) > maxTruckNumberLen {
		return "", domainInspection.ErrInvalidTruckNumber
	}
	return strings.ToUpper(cleaned), nil
}

// NormalizeInspectorName trims and sanitizes a display name
func NormalizeInspectorName(raw string) (string, error) {
	cleaned := strings.TrimSpace(utils.SanitizeText(raw))
	if cleaned == "" || len(cleaned) > maxInspectorLen {
		return "", domainInspection.ErrInvalidInspectorName
	}
	return cleaned, nil
}

// ValidateItemPath checks that section and item id name a configured
// checklist item. The answer value itself is not checked against the
// item's option list: older app builds shipped with differing option
// spellings and their writes must still land.
func ValidateItemPath(section, itemID string) (checklist.SectionID, error) {
	sectionID := checklist.SectionID(section)
	if sectionID != checklist.SectionInterior && sectionID != checklist.SectionExterior {
		return "", domainInspection.ErrInvalidSection
	}
	if !checklist.ValidItemID(sectionID, itemID) {
		return "", domainInspection.ErrInvalidItemID
	}
	return sectionID, nil
}

// SanitizeComment cleans an item comment and enforces its length bound
func SanitizeComment(raw string) (string, error) {
	cleaned := utils.SanitizeText(raw)
	if len(cleaned) > maxCommentLen {
		return "", domainInspection.ErrCommentTooLong
	}
	return cleaned, nil
}

// SanitizeDefectsText cleans the inspection-level defects text
func SanitizeDefectsText(raw string) (string, error) {
	cleaned := utils.SanitizeText(raw)
	if len(cleaned) > maxDefectsLen {
		return "", domainInspection.ErrDefectsTooLong
	}
	return cleaned, nil
}

// SanitizeCaption cleans a defect photo caption, truncating rather than
// rejecting
func SanitizeCaption(raw *string) *string {
	if raw == nil {
		return nil
	}
	cleaned := strings.TrimSpace(utils.TruncateText(utils.SanitizeText(*raw), maxCaptionLen))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
