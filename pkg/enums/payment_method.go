package enums

import "fmt"

// PaymentMethod is the closed catalog of ways a customer can settle a sale.
// Each method is tagged with the currency it is natively denominated in and
// whether the cashier must capture a reference code for it.
type PaymentMethod string

const (
	PaymentMethodCashUSD     PaymentMethod = "cash_usd"
	PaymentMethodCashVES     PaymentMethod = "cash_ves"
	PaymentMethodCardVES     PaymentMethod = "card_ves"
	PaymentMethodPagoMovil   PaymentMethod = "pago_movil"
	PaymentMethodTransferVES PaymentMethod = "transfer_ves"
	PaymentMethodZelle       PaymentMethod = "zelle"
)

type paymentMethodMeta struct {
	currency          Currency
	requiresReference bool
}

var paymentMethodCatalog = map[PaymentMethod]paymentMethodMeta{
	PaymentMethodCashUSD:     {currency: CurrencyUSD, requiresReference: false},
	PaymentMethodCashVES:     {currency: CurrencyVES, requiresReference: false},
	PaymentMethodCardVES:     {currency: CurrencyVES, requiresReference: true},
	PaymentMethodPagoMovil:   {currency: CurrencyVES, requiresReference: true},
	PaymentMethodTransferVES: {currency: CurrencyVES, requiresReference: true},
	PaymentMethodZelle:       {currency: CurrencyUSD, requiresReference: true},
}

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashUSD,
	PaymentMethodCashVES,
	PaymentMethodCardVES,
	PaymentMethodPagoMovil,
	PaymentMethodTransferVES,
	PaymentMethodZelle,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethodCatalog[p]
	return ok
}

// NativeCurrency returns the currency the method is denominated in.
// Unknown methods default to the base currency.
func (p PaymentMethod) NativeCurrency() Currency {
	if meta, ok := paymentMethodCatalog[p]; ok {
		return meta.currency
	}
	return CurrencyUSD
}

// RequiresReference reports whether a reference code is mandatory for the method.
func (p PaymentMethod) RequiresReference() bool {
	if meta, ok := paymentMethodCatalog[p]; ok {
		return meta.requiresReference
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
