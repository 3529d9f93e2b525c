package enum

// ── Group A: State machines (enum typed in DB) ──

const (
	OrderStatusOpen      = "open"
	OrderStatusPending   = "pending"
	OrderStatusClosed    = "closed"
	OrderStatusCancelled = "cancelled"
)

// ── Group C: Borderline (enum typed in DB) ──

const (
	UserRoleAdmin   = "Admin"
	UserRoleManager = "MANG"
	UserRoleClerk   = "CLK"
	UserRoleSales   = "FSSALE"
)

// ── Group B: Policy vocabulary (no DB constraint) ──

const (
	ActionManageUsers               = "manage_users"
	ActionManageClients             = "manage_clients"
	ActionManageItems               = "manage_items"
	ActionCreateOrder               = "create_order"
	ActionEditOrder                 = "edit_order"
	ActionToggleFulfillment         = "toggle_fulfillment"
	ActionForceCloseOrder           = "force_close_order"
	ActionAuthorizeOrder            = "authorize_order"
	ActionViewAllOrders             = "view_all_orders"
	ActionReceiveOrderNotifications = "receive_order_notifications"
	ActionViewFulfiller             = "view_fulfiller"
	ActionViewClients               = "view_clients"
	ActionViewItems                 = "view_items"
)

const (
	PageInventory = "inventory"
	PageCatalogue = "catalogue"
	PageOrders    = "orders"
	PageClients   = "clients"
	PageUsers     = "users"
)

// Roles lists every role in display order.
var Roles = []string{UserRoleAdmin, UserRoleManager, UserRoleClerk, UserRoleSales}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
