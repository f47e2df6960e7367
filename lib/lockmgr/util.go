package lockmgr

import "github.com/google/uuid"

// generateOwnerID creates a new unique owner ID.
// The owner ID is the textual form of a random (version 4) UUID, so it can be
// printed and passed back on the command line.
func generateOwnerID() []byte {
	return []byte(uuid.NewString())
}
