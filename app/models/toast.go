package models

import "time"

// ToastKind selects the styling of a notification
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastDanger  ToastKind = "danger"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

// Toast is a transient, self-expiring user notification
type Toast struct {
	ID        string    `json:"id"`
	Kind      ToastKind `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
