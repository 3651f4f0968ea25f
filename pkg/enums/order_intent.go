package enums

// OrderIntent is the PayPal order intent. Only immediate capture is supported.
type OrderIntent string

const OrderIntentCapture OrderIntent = "CAPTURE"

// String implements fmt.Stringer.
func (i OrderIntent) String() string {
	return string(i)
}
