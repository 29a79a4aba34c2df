package inspection

import "errors"

var (
	ErrInspectionNotFound   = errors.New("inspection not found")
	ErrInvalidTruckNumber   = errors.New("invalid truck number")
	ErrInvalidInspectorName = errors.New("invalid inspector name")
	ErrInvalidItemID        = errors.New("invalid checklist item id")
	ErrInvalidSection       = errors.New("invalid checklist section")
	ErrCommentTooLong       = errors.New("comment exceeds maximum length")
	ErrDefectsTooLong       = errors.New("additional defects text exceeds maximum length")
	ErrInspectionClosed     = errors.New("inspection is already closed")
	ErrAlreadyJoined        = errors.New("inspection already has a second inspector")
)
