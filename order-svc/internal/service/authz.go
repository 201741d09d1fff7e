package service

import (
	"qrmenu/order-svc/internal/domain"
	"qrmenu/session"
)

// Authorize decides staff access to a restaurant's orders, codes and menu.
// Owners must be approved and own the restaurant; kitchen managers must be
// assigned to it.
func Authorize(s session.Session, rest *domain.Restaurant) error {
	const op = "authorize"
	if rest == nil {
		return domain.Forbidden(op, "unknown restaurant")
	}
	switch s.Role {
	case session.RoleSuperAdmin:
		return nil
	case session.RoleRestaurantOwner:
		if !s.Approved {
			return domain.Forbidden(op, "owner account is pending approval")
		}
		if rest.OwnerID == s.UserID {
			return nil
		}
	case session.RoleKitchenManager:
		if s.RestaurantID == rest.ID {
			return nil
		}
	}
	return domain.Forbidden(op, "no access to restaurant "+rest.ID)
}
