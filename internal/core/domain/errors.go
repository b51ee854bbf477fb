package domain

import "errors"

// Authentication and authorization errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTenantInactive     = errors.New("cartorio or login token inactive")
	ErrTokenExpired       = errors.New("token expired")
	ErrRefreshFailed      = errors.New("refresh failed")
	ErrAccessDenied       = errors.New("access denied")
)

// Lookup errors.
var (
	ErrCartorioNotFound   = errors.New("cartorio not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrSystemNotFound     = errors.New("system not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrLessonNotFound     = errors.New("video lesson not found")
	ErrTrilhaNotFound     = errors.New("trilha not found")
	ErrLoginTokenNotFound = errors.New("login token not found")
	ErrGrantNotFound      = errors.New("access grant not found")
)

// ErrInvalidInput marks malformed or incomplete request data.
var ErrInvalidInput = errors.New("invalid input")

// Write-conflict errors.
var (
	ErrCartorioExists = errors.New("cartorio already exists")
	ErrUserExists     = errors.New("user already exists")
	ErrAdminExists    = errors.New("admin already exists")
	ErrTokenExists    = errors.New("login token already exists")
)
