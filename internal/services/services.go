// Package services holds the store's business rules. Handlers call services; services own
// transactions and talk to repos.
package services

import "time"

// Clock is swapped in tests.
type Clock func() time.Time
