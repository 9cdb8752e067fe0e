package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUpdateCanonicalizesSign(t *testing.T) {
	sign := "sAgItTaRiUs"
	upd := ProfileUpdateRequest{ZodiacSign: &sign}.ToUpdate()
	require.NotNil(t, upd.ZodiacSign)
	assert.Equal(t, "Sagittarius", *upd.ZodiacSign)
}

func TestToUpdateDropsUnknownSign(t *testing.T) {
	for _, sign := range []string{"", "Ophiuchus"} {
		upd := ProfileUpdateRequest{ZodiacSign: &sign}.ToUpdate()
		assert.Nil(t, upd.ZodiacSign, "sign %q", sign)
	}
}
