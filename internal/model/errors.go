package model

import "github.com/maxbolgarin/errm"

var (
	ErrAuthentication   = errm.New("authentication failed")
	ErrNotFound         = errm.New("not found")
	ErrInsufficientData = errm.New("insufficient data")
	ErrTransport        = errm.New("notification transport failed")
	ErrSameRevision     = errm.New("base and head revisions are the same")
)
