package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mywatercloset/api/pkg/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"duplicate", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"wrapped duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"unmapped", other, other},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestTranslateAs(t *testing.T) {
	assert.Equal(t, domain.ErrBookingNotFound, TranslateAs(gorm.ErrRecordNotFound, domain.ErrBookingNotFound))
	assert.ErrorIs(t, TranslateAs(gorm.ErrDuplicatedKey, domain.ErrBookingNotFound), domain.ErrAlreadyExists)
}

func TestDo(t *testing.T) {
	assert.ErrorIs(t, Do(func() error { return gorm.ErrDuplicatedKey }), domain.ErrAlreadyExists)
	assert.NoError(t, Do(func() error { return nil }))
}
