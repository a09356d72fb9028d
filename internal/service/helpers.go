package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

func notFoundAs(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func roundScore(value float64) float64 {
	if value < 0 {
		return -float64(int64(-value*100+0.5)) / 100
	}
	return float64(int64(value*100+0.5)) / 100
}

// KindLabel returns a lower-case metric label for an error's kind.
func KindLabel(err error) string {
	return strings.ToLower(apperrors.KindOf(err))
}
