// Package database provides sentinel errors for repository operations,
// returned instead of a bare nil when a lookup finds no live row.
package database

import "errors"

var (
	ErrNotFound            = errors.New("entity not found")
	ErrAgentNotFound       = errors.New("agent not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrStandardNotFound    = errors.New("standard not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrBlockNotFound       = errors.New("block not found")

	// ErrForkDetected names the fork condition. No code in this module
	// returns it: the indexer detects a fork by comparing block ids and
	// rewinds without producing an error.
	ErrForkDetected = errors.New("fork detected")
)
