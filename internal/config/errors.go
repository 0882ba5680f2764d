package config

import "github.com/maxbolgarin/errm"

var (
	ErrInvalidProviderConfig = errm.New("invalid provider configuration")
	ErrInvalidSelectorConfig = errm.New("invalid selector configuration")
	ErrInvalidWatchConfig    = errm.New("invalid watch configuration")
	ErrInvalidNotifyConfig   = errm.New("invalid notify configuration")
	ErrInvalidMonitorConfig  = errm.New("invalid monitor configuration")
)
