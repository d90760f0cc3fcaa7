package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := AddItemRequest{
		Amount:      " 10.00 ",
		Currency:    " eur ",
		Description: "  Cookbook  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "10.00", req.Amount)
	assert.Equal(t, "eur", req.Currency)
	assert.Equal(t, "Cookbook", req.Description)
}

func TestSanitizeStruct_KeepsTextVerbatim(t *testing.T) {
	req := AddItemRequest{
		Description:  "Fish & Chips <large>",
		Instructions: "Salt \"and\" vinegar",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Fish & Chips <large>", req.Description)
	assert.Equal(t, "Salt \"and\" vinegar", req.Instructions)
}

func TestSanitizeStruct_DropsControlCharacters(t *testing.T) {
	req := AddItemRequest{
		Description:  "Cook\x00book\x1b[31m",
		Instructions: "ring twice\nleave at door\r",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Cookbook[31m", req.Description)
	assert.Equal(t, "ring twice\nleave at door", req.Instructions)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	type withPtr struct {
		Note *string
		None *string
	}
	note := "  leave at door  "
	v := withPtr{Note: &note}
	SanitizeStruct(&v)

	assert.Equal(t, "leave at door", *v.Note)
	assert.Nil(t, v.None)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID(t *testing.T) {
	for _, tc := range []string{"CB-1", "SKU_002", "a.b.c", "ABC-def_GHI.123"} {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
	for _, tc := range []string{"sku 001", "sku<001>", "sku;DROP", "", "sku\n001"} {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestAddItemRequest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   AddItemRequest
		valid bool
	}{
		{"minimal", AddItemRequest{Amount: "10.00", Description: "Cookbook"}, true},
		{"lower-case currency", AddItemRequest{Amount: "5", Currency: "usd", Description: "Spice box"}, true},
		{"with sku and count", AddItemRequest{Amount: "1.5", Count: 3, SKU: "CB-1", Description: "Tea"}, true},
		{"zero amount", AddItemRequest{Amount: "0", Description: "Free sample"}, true},
		{"missing amount", AddItemRequest{Description: "Cookbook"}, false},
		{"negative amount", AddItemRequest{Amount: "-1", Description: "Cookbook"}, false},
		{"not a number", AddItemRequest{Amount: "ten", Description: "Cookbook"}, false},
		{"unknown currency", AddItemRequest{Amount: "1", Currency: "ZZZ", Description: "Cookbook"}, false},
		{"missing description", AddItemRequest{Amount: "1"}, false},
		{"unsafe sku", AddItemRequest{Amount: "1", SKU: "a b", Description: "Cookbook"}, false},
		{"negative count", AddItemRequest{Amount: "1", Count: -2, Description: "Cookbook"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCheckoutRequests_Validation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&CheckoutRequest{Email: "ada@example.com"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CheckoutRequest{Email: "not-an-email"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CheckoutRequest{}))

	assert.NoError(t, binding.Validator.ValidateStruct(&CompleteRequest{OrderNum: "1A2B3C418BCFE56800"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CompleteRequest{OrderNum: "1A2B3C4"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CompleteRequest{OrderNum: "ZZZZZZZZZZZZZZZZZZ"}))
}

func TestSetCurrencyRequest_Validation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&SetCurrencyRequest{Currency: "JPY"}))
	assert.Error(t, binding.Validator.ValidateStruct(&SetCurrencyRequest{Currency: "EURO"}))
	assert.Error(t, binding.Validator.ValidateStruct(&SetCurrencyRequest{}))
}
