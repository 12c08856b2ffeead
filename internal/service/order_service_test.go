package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCheckout() *CheckoutRequest {
	return &CheckoutRequest{
		Name:       "A Bride",
		Email:      "bride@example.com",
		Phone:      "555-0100",
		Address:    "1 Lace Lane",
		City:       "Jaipur",
		State:      "RJ",
		PostalCode: "302001",
	}
}

func TestCheckoutRequestValidate(t *testing.T) {
	assert.NoError(t, validCheckout().validate())

	missingPhone := validCheckout()
	missingPhone.Phone = ""
	err := missingPhone.validate()
	assert.True(t, errors.Is(err, ErrMissingShipping))
	assert.Contains(t, err.Error(), "phone")

	missingCity := validCheckout()
	missingCity.City = ""
	assert.True(t, errors.Is(missingCity.validate(), ErrMissingShipping))
}

func TestCheckoutRejectsIncompleteShippingBeforePersisting(t *testing.T) {
	// nil store: the request must be rejected before any database access
	s := NewOrderService(nil, &fakePublisher{}, NewAlerter(nil))

	req := validCheckout()
	req.Address = ""

	_, err := s.Checkout(context.Background(), 7, req)
	assert.True(t, errors.Is(err, ErrMissingShipping))
}
