// internal/database/convert.go
package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// nullUUID maps the zero UUID to NULL.
func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func colorString(c *models.Color) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func ownerPlayer(o models.Owner) *uuid.UUID {
	if o.Kind != models.OwnerPlayer {
		return nil
	}
	return &o.PlayerID
}

func parseUUIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
