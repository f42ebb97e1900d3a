package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a persisted entity. Catalog rows are keyed by UUID.
type ID uuid.UUID

var ErrEmptyID = errors.New("empty ID")

func NewID() ID {
	return ID(uuid.New())
}

// ParseID validates s as a UUID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, ErrEmptyID
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid ID format %q: %w", s, err)
	}
	return ID(u), nil
}

func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// UUID exposes the underlying value for drivers that bind uuid.UUID natively.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
