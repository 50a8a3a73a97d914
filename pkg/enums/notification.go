package enums

import "fmt"

// NotificationKind selects the mail template rendered for a customer.
type NotificationKind string

const (
	NotificationOrderConfirmation    NotificationKind = "order_confirmation"
	NotificationShippingNotification NotificationKind = "shipping_notification"
	NotificationOrderStatusUpdate    NotificationKind = "order_status_update"
	NotificationInvoice              NotificationKind = "invoice"
	NotificationRefundConfirmation   NotificationKind = "refund_confirmation"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderConfirmation,
	NotificationShippingNotification,
	NotificationOrderStatusUpdate,
	NotificationInvoice,
	NotificationRefundConfirmation,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
