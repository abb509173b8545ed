package optimistic

import (
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks ids synthesized by the client. Server ids are UUIDs and
// can never carry it.
const TempIDPrefix = "tmp_"

// NewTempID returns a fresh client-side id.
func NewTempID() string { return TempIDPrefix + uuid.NewString() }

// IsTempID reports whether id was synthesized by NewTempID.
func IsTempID(id string) bool { return strings.HasPrefix(id, TempIDPrefix) }
