// Package id provides unique identifiers for job attempts.
package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generate creates a new unique attempt ID.
// Format: att-<timestamp>-<random>
// Example: att-1701432000-a1b2c3d4e5f6
func Generate() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("att-%d-%s", time.Now().Unix(), random)
}
