package carts

import "github.com/google/uuid"

// AddItemRequest references a catalog product; price, stock and display
// fields are captured server-side at add-time.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type SetCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
}

type SetTermsRequest struct {
	Timing       string `json:"timing" validate:"required,oneof=immediate deferred"`
	DeferredDays int    `json:"deferred_days" validate:"min=0"`
}

type SetDocumentKindRequest struct {
	Kind string `json:"kind" validate:"required,oneof=order invoice"`
}

type SetSaleKindRequest struct {
	Kind string `json:"kind" validate:"required,oneof=sale quote"`
}

type AddPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type UpdatePaymentRequest struct {
	Amount    float64 `json:"amount" validate:"min=0"`
	Reference string  `json:"reference"`
}

type CombinedPaymentRequest struct {
	BaseMethod         string  `json:"base_method" validate:"required"`
	SecondaryMethod    string  `json:"secondary_method" validate:"required"`
	BaseAmount         float64 `json:"base_amount" validate:"min=0"`
	BaseReference      string  `json:"base_reference"`
	SecondaryReference string  `json:"secondary_reference"`
	Confirm            bool    `json:"confirm"`
}

type CombinedBaseRequest struct {
	BaseAmount float64 `json:"base_amount" validate:"min=0"`
}

type SetPaymentModeRequest struct {
	Mode    string `json:"mode" validate:"required,oneof=single combined"`
	Confirm bool   `json:"confirm"`
}

type JumpRequest struct {
	Step int `json:"step" validate:"required,min=1"`
}
