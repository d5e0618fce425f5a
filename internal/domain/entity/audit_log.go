package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la bitácora.
const (
	AuditSaleCreate     = "SALE_CREATE"
	AuditSaleCancel     = "SALE_CANCEL"
	AuditSaleRefund     = "SALE_REFUND"
	AuditProductRestock = "PRODUCT_RESTOCK"
	AuditProductAdjust  = "PRODUCT_ADJUST"
	AuditDayClose       = "DAY_CLOSE"
)

// Entidades afectadas.
const (
	AuditEntitySale    = "Sale"
	AuditEntityProduct = "Product"
	AuditEntityDay     = "DailyClose"
)

// AuditLog registro inmutable de una mutación. Solo se inserta; nunca se actualiza ni se borra.
type AuditLog struct {
	ID          string
	Action      string
	Entity      string
	EntityID    string
	FranchiseID string
	UserID      string
	Role        Role
	Payload     json.RawMessage
	CreatedAt   time.Time
}
