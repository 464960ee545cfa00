// Package common holds helpers shared by the GORM repositories.
package common

import (
	"errors"
	"fmt"

	"github.com/mywatercloset/api/pkg/domain"
	"gorm.io/gorm"
)

// Translate maps GORM sentinels anywhere in err's chain to domain errors.
// Anything else is returned unchanged.
func Translate(err error) error {
	return TranslateAs(err, domain.ErrNotFound)
}

// TranslateAs is Translate with a caller-chosen error for missing rows.
func TranslateAs(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	default:
		return err
	}
}

// Do runs a GORM call and translates its error.
func Do(op func() error) error {
	return Translate(op())
}
