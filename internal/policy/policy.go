// Package policy decides which roles may perform which actions.
package policy

import (
	"github.com/google/uuid"
	"github.com/shadestock/api/internal/enum"
)

// Context carries the resource facts ownership rules need.
// OwnerID is the creator of the order being acted on; Creating is set
// while an order is being composed and has no owner yet.
type Context struct {
	ActorID  uuid.UUID
	OwnerID  uuid.UUID
	Creating bool
}

type rule func(ctx Context) bool

func allow(Context) bool { return true }

func ownsOrder(ctx Context) bool {
	return ctx.ActorID != uuid.Nil && ctx.ActorID == ctx.OwnerID
}

func ownsOrCreating(ctx Context) bool {
	return ctx.Creating || ownsOrder(ctx)
}

// matrix lists the granted (role, action) pairs. Anything absent is denied.
var matrix = map[string]map[string]rule{
	enum.UserRoleAdmin: {
		enum.ActionManageUsers:               allow,
		enum.ActionManageClients:             allow,
		enum.ActionManageItems:               allow,
		enum.ActionToggleFulfillment:         allow,
		enum.ActionForceCloseOrder:           allow,
		enum.ActionAuthorizeOrder:            allow,
		enum.ActionViewAllOrders:             allow,
		enum.ActionReceiveOrderNotifications: allow,
		enum.ActionViewFulfiller:             allow,
		enum.ActionViewClients:               allow,
		enum.ActionViewItems:                 allow,
	},
	enum.UserRoleManager: {
		enum.ActionCreateOrder:               allow,
		enum.ActionToggleFulfillment:         allow,
		enum.ActionViewAllOrders:             allow,
		enum.ActionReceiveOrderNotifications: allow,
		enum.ActionViewClients:               allow,
		enum.ActionViewItems:                 allow,
	},
	enum.UserRoleClerk: {
		enum.ActionToggleFulfillment:         allow,
		enum.ActionViewAllOrders:             allow,
		enum.ActionReceiveOrderNotifications: allow,
		enum.ActionViewClients:               allow,
		enum.ActionViewItems:                 allow,
	},
	enum.UserRoleSales: {
		enum.ActionCreateOrder:       allow,
		enum.ActionEditOrder:         ownsOrCreating,
		enum.ActionToggleFulfillment: ownsOrder,
		enum.ActionViewClients:       allow,
		enum.ActionViewItems:         allow,
	},
}

// CanPerform reports whether role may perform action in ctx. It is
// total: unknown roles and actions are denied.
func CanPerform(role, action string, ctx Context) bool {
	r, ok := matrix[role][action]
	if !ok {
		return false
	}
	return r(ctx)
}

// RoleOnly reports whether the action is granted to role for at least
// some context. Used to gate routes before the resource is loaded.
func RoleOnly(role, action string) bool {
	_, ok := matrix[role][action]
	return ok
}

// Actions lists every action known to the policy.
var Actions = []string{
	enum.ActionManageUsers,
	enum.ActionManageClients,
	enum.ActionManageItems,
	enum.ActionCreateOrder,
	enum.ActionEditOrder,
	enum.ActionToggleFulfillment,
	enum.ActionForceCloseOrder,
	enum.ActionAuthorizeOrder,
	enum.ActionViewAllOrders,
	enum.ActionReceiveOrderNotifications,
	enum.ActionViewFulfiller,
	enum.ActionViewClients,
	enum.ActionViewItems,
}

// LandingPage is the page a role sees first after sign-in.
func LandingPage(role string) string {
	switch role {
	case enum.UserRoleSales, enum.UserRoleClerk, enum.UserRoleManager:
		return enum.PageOrders
	default:
		return enum.PageInventory
	}
}

// Menu returns the navigation entries visible to role, in display order.
func Menu(role string) []string {
	menu := []string{enum.PageInventory, enum.PageCatalogue, enum.PageOrders}
	if CanPerform(role, enum.ActionManageClients, Context{}) {
		menu = append(menu, enum.PageClients)
	}
	if CanPerform(role, enum.ActionManageUsers, Context{}) {
		menu = append(menu, enum.PageUsers)
	}
	return menu
}
