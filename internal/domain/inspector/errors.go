package inspector

import "errors"

var (
	ErrInspectorNotFound      = errors.New("inspector not found")
	ErrInspectorAlreadyExists = errors.New("inspector already exists")
	ErrInspectorInactive      = errors.New("inspector account is inactive")
	ErrInvalidRole            = errors.New("invalid inspector role")
)
