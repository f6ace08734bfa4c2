package service

import (
	"errors"
	"regexp"
	"testing"

	"gamesup-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{13}-[0-9a-f]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := newOrderNumber()
		assert.Regexp(t, pattern, n)
		assert.False(t, seen[n], "order numbers should not repeat")
		seen[n] = true
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "product_not_found", failureReason(&models.ProductNotFoundError{Name: "FIFA 24"}))
	assert.Equal(t, "out_of_stock", failureReason(&models.OutOfStockError{Name: "FIFA 24"}))
	assert.Equal(t, "order_number_conflict", failureReason(models.ErrOrderNumberTaken))
	assert.Equal(t, "db_error", failureReason(errors.New("connection refused")))
}
