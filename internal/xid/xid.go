package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed, time-ordered identifier such as
// "req-0190f6c2-7b1e-7c3a-9f1d-2b4c5d6e7f80".
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return prefix + "-" + uuid.NewString()
	}
	return prefix + "-" + id.String()
}
