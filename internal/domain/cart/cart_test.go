package cart_test

import (
	"testing"

	"github.com/escabi/escabiapi/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSumsExistingLine(t *testing.T) {
	c := cart.New("u1")
	require.NoError(t, c.Add("p1", 2))
	require.NoError(t, c.Add("p1", 3))
	require.NoError(t, c.Add("p2", 1))

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Quantity("p1"))
	assert.ErrorIs(t, c.Add("p1", 0), cart.ErrInvalidQuantity)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		product string
		qty     int
		wantErr error
		wantLen int
	}{
		{"change quantity", "p1", 4, nil, 2},
		{"zero removes", "p1", 0, nil, 1},
		{"missing line", "p9", 1, cart.ErrItemNotFound, 2},
		{"negative", "p1", -1, cart.ErrInvalidQuantity, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cart.New("u1")
			require.NoError(t, c.Add("p1", 1))
			require.NoError(t, c.Add("p2", 1))

			err := c.Update(tt.product, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, c.Items, tt.wantLen)
		})
	}
}

func TestClearKeepsCart(t *testing.T) {
	c := cart.New("u1")
	require.NoError(t, c.Add("p1", 1))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Items)
}
