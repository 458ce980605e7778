package id

import (
	"strings"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

// NewID returns a random UUID rendered as 32 lowercase hex characters.
func (UUIDGenerator) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
