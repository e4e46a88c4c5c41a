package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coffeehub/internal/validate"
)

func TestEmail(t *testing.T) {
	for _, good := range []string{"maya@coffeehub.test", "a.b+c@example.co.uk"} {
		_, ok := validate.Email(good)
		assert.True(t, ok, good)
	}
	for _, bad := range []string{"", "nope", "a@b", "spaces in@mail.com"} {
		_, ok := validate.Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestID(t *testing.T) {
	_, ok := validate.ID("house-blend")
	assert.True(t, ok)
	_, ok = validate.ID("ABCDEF1234567890ABCDEF1234567890")
	assert.True(t, ok)
	for _, bad := range []string{"", "has space", "semi;colon", "../../etc/passwd"} {
		_, ok := validate.ID(bad)
		assert.False(t, ok, bad)
	}
}

func TestSize(t *testing.T) {
	for _, good := range []string{"250g", "1kg", "500g"} {
		_, ok := validate.Size(good)
		assert.True(t, ok, good)
	}
	for _, bad := range []string{"", "250 g", "a-very-long-size-label", "250g;"} {
		_, ok := validate.Size(bad)
		assert.False(t, ok, bad)
	}
}

func TestQuantity(t *testing.T) {
	n, ok := validate.Quantity("3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	// zero is a valid absolute quantity (deletes the line on update)
	n, ok = validate.Quantity("0")
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	for _, bad := range []string{"", "-1", "1000", "two", "1.5"} {
		_, ok := validate.Quantity(bad)
		assert.False(t, ok, bad)
	}
}

func TestCountry(t *testing.T) {
	c, ok := validate.Country("us")
	assert.True(t, ok)
	assert.Equal(t, "US", c)

	for _, bad := range []string{"", "USA", "1A"} {
		_, ok := validate.Country(bad)
		assert.False(t, ok, bad)
	}
}

func TestOrderStatus(t *testing.T) {
	for _, good := range []string{"processing", "paid", "shipped", "cancelled"} {
		_, ok := validate.OrderStatus(good)
		assert.True(t, ok, good)
	}
	for _, bad := range []string{"", "PAID", "refunded"} {
		_, ok := validate.OrderStatus(bad)
		assert.False(t, ok, bad)
	}
}

func TestOptionalAndRequired(t *testing.T) {
	s, ok := validate.Optional("  trimmed  ", 10)
	assert.True(t, ok)
	assert.Equal(t, "trimmed", s)

	_, ok = validate.Optional("", 10)
	assert.True(t, ok)

	_, ok = validate.Required("", 10)
	assert.False(t, ok)

	_, ok = validate.Required("toolongvalue", 5)
	assert.False(t, ok)
}
