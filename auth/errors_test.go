package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_LegacyCoversEveryCode(t *testing.T) {
	c := NewClassifier(nil)
	seen := map[Slot]bool{}
	for code := LegacyMethodNotAllowed; code <= LegacyUnknown; code++ {
		de, err := c.Legacy(code)
		require.NoError(t, err, "code %d", code)
		assert.NotEmpty(t, de.Title)
		assert.NotEmpty(t, de.Description)
		assert.False(t, seen[de.Slot], "slot %s mapped twice", de.Slot)
		seen[de.Slot] = true
	}
	assert.Len(t, seen, 14)
}

func TestClassifier_LegacyUnknownCodeIsAnError(t *testing.T) {
	c := NewClassifier(nil)
	for _, code := range []LegacyErrorCode{0, LegacyUnknown + 1, -3} {
		de, err := c.Legacy(code)
		assert.Nil(t, de)
		assert.ErrorIs(t, err, ErrUnclassifiedCode)
	}
}

func TestClassifier_Federated(t *testing.T) {
	c := NewClassifier(nil)
	assert.Equal(t, SlotFederatedNoProfile, c.Federated(FederatedNoProfile).Slot)
	assert.Equal(t, SlotFederatedNoXboxAccount, c.Federated(FederatedNoXboxAccount).Slot)
	assert.Equal(t, SlotFederatedXblBanned, c.Federated(FederatedXblBanned).Slot)
	assert.Equal(t, SlotFederatedUnder18, c.Federated(FederatedUnder18).Slot)
	assert.Equal(t, SlotFederatedUnknown, c.Federated(FederatedUnknown).Slot)
	assert.Equal(t, SlotFederatedUnknown, c.Federated(FederatedErrorCode(0)).Slot)
	assert.Equal(t, SlotFederatedUnknown, c.Federated(FederatedErrorCode(99)).Slot)
}

func TestClassifier_CustomCatalogFallsBackToDefault(t *testing.T) {
	c := NewClassifier(Catalog{SlotFederatedUnder18: {Title: "Menor de edad", Description: "Cuenta infantil."}})

	assert.Equal(t, "Menor de edad", c.Federated(FederatedUnder18).Title)
	assert.Equal(t, defaultMessages[SlotFederatedXblBanned].Title, c.Federated(FederatedXblBanned).Title)
}

func TestDefaultCatalogIsACopy(t *testing.T) {
	c := DefaultCatalog()
	c[SlotLegacyGone] = Message{Title: "changed"}
	assert.NotEqual(t, "changed", defaultMessages[SlotLegacyGone].Title)
}

func TestDisplayableError(t *testing.T) {
	de := NewClassifier(nil).Federated(FederatedNoProfile)
	wrapped := fmt.Errorf("adding account: %w", de)

	assert.True(t, errors.Is(wrapped, &DisplayableError{Slot: SlotFederatedNoProfile}))
	assert.False(t, errors.Is(wrapped, &DisplayableError{Slot: SlotFederatedUnknown}))

	slot, ok := SlotOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, SlotFederatedNoProfile, slot)

	_, ok = SlotOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Contains(t, de.Error(), de.Title)
}

func TestProviderErrorsUnwrap(t *testing.T) {
	cause := errors.New("http 429")
	err := error(&LegacyProviderError{Code: LegacyRateLimit, Err: cause})
	assert.ErrorIs(t, err, cause)

	err = &FederatedProviderError{Code: FederatedXblBanned, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "http 429")
}
