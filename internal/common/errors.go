package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Inspection errors
	ErrTurbineNotFound    = errors.New("turbine not found")
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrAssessmentNotFound = errors.New("damage assessment not found")

	// Upload errors
	ErrArchiveTooLarge = errors.New("archive exceeds maximum upload size")
	ErrInvalidArchive  = errors.New("file is not a valid ZIP archive")
	ErrEmptyArchive    = errors.New("archive contains no images under the expected BladeX/Surface structure")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
