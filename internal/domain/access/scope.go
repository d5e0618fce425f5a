// Package access resuelve sobre qué franquicia puede operar un actor y si una acción le está permitida.
// No consulta la base de datos ni modifica estado; lo invocan los casos de uso antes de tocar
// inventario o ventas.
package access

import (
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// ResolveFranchise devuelve la franquicia sobre la que opera el actor.
//
//   - OWNER/PARTNER: deben enviar la franquicia explícita; si falta, se rechaza
//     para evitar operaciones sin alcance.
//   - Resto de roles: siempre su propia franquicia; pedir otra distinta se rechaza.
//   - Sin franquicia asignada y sin autoridad global: Forbidden.
func ResolveFranchise(actor entity.Actor, requested string) (string, error) {
	if actor.Role.IsOrgWide() {
		if requested == "" {
			return "", domain.Forbidden("debes enviar franchiseId")
		}
		return requested, nil
	}
	if !actor.HasFranchise() {
		return "", domain.ErrNoFranchise
	}
	if requested != "" && requested != actor.FranchiseID {
		return "", domain.Forbidden("no puedes operar sobre otra franquicia")
	}
	return actor.FranchiseID, nil
}

// InScope indica si la franquicia del recurso está dentro del alcance del actor.
func InScope(actor entity.Actor, resourceFranchiseID string) bool {
	if actor.Role.IsOrgWide() {
		return true
	}
	return actor.HasFranchise() && actor.FranchiseID == resourceFranchiseID
}
