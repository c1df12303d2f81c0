package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// BalanceCacheTTL bounds staleness of cached balance reads
	BalanceCacheTTL = 5 * time.Second

	// DefaultListLimit and MaxListLimit bound pagination
	DefaultListLimit = 20
	MaxListLimit     = 100
)
