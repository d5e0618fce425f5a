package access

import (
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// Action operación sujeta a autorización.
type Action string

const (
	ActionSaleCreate  Action = "sale:create"
	ActionSaleRead    Action = "sale:read"
	ActionSaleReverse Action = "sale:reverse"
	ActionStockMutate Action = "stock:mutate"
	ActionReportRead  Action = "report:read"
	ActionAuditRead   Action = "audit:read"
	ActionDayClose    Action = "report:close-day"
	ActionGlobalRead  Action = "report:global"
)

var allowedRoles = map[Action][]entity.Role{
	ActionSaleCreate:  {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner, entity.RoleSeller},
	ActionSaleRead:    {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner, entity.RoleSeller},
	ActionSaleReverse: {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner},
	ActionStockMutate: {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner},
	ActionReportRead:  {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner, entity.RoleSeller},
	ActionAuditRead:   {entity.RoleOwner, entity.RolePartner},
	ActionDayClose:    {entity.RoleOwner, entity.RolePartner, entity.RoleFranchiseOwner, entity.RoleSeller},
	ActionGlobalRead:  {entity.RoleOwner, entity.RolePartner},
}

// Authorize decide si el actor puede ejecutar action sobre un recurso de resourceFranchiseID.
// resourceFranchiseID vacío significa que la acción no está atada a una franquicia concreta
// (por ejemplo, listar la bitácora completa).
func Authorize(actor entity.Actor, action Action, resourceFranchiseID string) error {
	if !roleAllowed(actor.Role, action) {
		return domain.Forbidden("el rol %s no puede ejecutar %s", actor.Role, action)
	}
	if resourceFranchiseID == "" {
		return nil
	}
	if !InScope(actor, resourceFranchiseID) {
		return domain.Forbidden("recurso de otra franquicia")
	}
	return nil
}

func roleAllowed(role entity.Role, action Action) bool {
	for _, r := range allowedRoles[action] {
		if r == role {
			return true
		}
	}
	return false
}
