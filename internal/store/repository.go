// File: internal/store/repository.go
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
)

// ErrNotFound is returned when no selector is stored under a name.
var ErrNotFound = errors.New("selector not found")

// SavedSelector is a named date selector with its bookkeeping timestamps.
type SavedSelector struct {
	Name      string
	Selector  schemas.DateSelector
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists named selectors.
type Repository interface {
	Save(ctx context.Context, s *SavedSelector) error
	Load(ctx context.Context, name string) (*SavedSelector, error)
	List(ctx context.Context) ([]SavedSelector, error)
	Delete(ctx context.Context, name string) error
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateName rejects names that cannot double as file names.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid selector name %q", name)
	}
	return nil
}

// stamp sets the update time and, for new records, the creation time.
func stamp(s *SavedSelector, now time.Time) {
	now = now.UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

func decode(name string, data []byte) (schemas.DateSelector, error) {
	ds, err := schemas.DecodeDateSelector(data)
	if err != nil {
		return schemas.DateSelector{}, fmt.Errorf("stored selector %q: %w", name, err)
	}
	return *ds, nil
}
