// Package permissions holds the static role→capability matrix.
// It is the server-side source of truth: every protected route checks a
// flag from this table, and /api/auth/me serves the same record to the UI
// so both layers render from one definition.
package permissions

import "github.com/remfix/remfix/internal/models"

// Set is the complete capability record for one role. The zero value grants
// nothing, which is what unknown roles receive.
type Set struct {
	CanViewDashboard        bool `json:"can_view_dashboard"`
	CanCreateTicket         bool `json:"can_create_ticket"`
	CanEditTicket           bool `json:"can_edit_ticket"`
	CanDeleteTicket         bool `json:"can_delete_ticket"`
	CanChangeTicketStatus   bool `json:"can_change_ticket_status"`
	CanAssignMaster         bool `json:"can_assign_master"`
	CanViewAllTickets       bool `json:"can_view_all_tickets"`
	CanViewOwnTickets       bool `json:"can_view_own_tickets"`
	CanViewMasters          bool `json:"can_view_masters"`
	CanManageMasters        bool `json:"can_manage_masters"`
	CanTrackMasters         bool `json:"can_track_masters"`
	CanViewCustomers        bool `json:"can_view_customers"`
	CanViewCalls            bool `json:"can_view_calls"`
	CanAcceptCalls          bool `json:"can_accept_calls"`
	CanMakeCalls            bool `json:"can_make_calls"`
	CanViewCallHistory      bool `json:"can_view_call_history"`
	CanViewStats            bool `json:"can_view_stats"`
	CanViewFinance          bool `json:"can_view_finance"`
	CanEditCosts            bool `json:"can_edit_costs"`
	CanViewFraudAlerts      bool `json:"can_view_fraud_alerts"`
	CanResolveFraudAlerts   bool `json:"can_resolve_fraud_alerts"`
	CanManageUsers          bool `json:"can_manage_users"`
	CanViewServiceCenters   bool `json:"can_view_service_centers"`
	CanManageServiceCenters bool `json:"can_manage_service_centers"`
	CanReceiveNotifications bool `json:"can_receive_notifications"`
	CanUpdateLocation       bool `json:"can_update_location"`
	CanViewMap              bool `json:"can_view_map"`
	CanExportData           bool `json:"can_export_data"`
}

// matrix is the declarative role table. Keep this flat: call sites read
// single flags, there is no rule composition.
var matrix = map[string]Set{
	models.RoleAdmin: {
		CanViewDashboard:        true,
		CanCreateTicket:         true,
		CanEditTicket:           true,
		CanDeleteTicket:         true,
		CanChangeTicketStatus:   true,
		CanAssignMaster:         true,
		CanViewAllTickets:       true,
		CanViewOwnTickets:       true,
		CanViewMasters:          true,
		CanManageMasters:        true,
		CanTrackMasters:         true,
		CanViewCustomers:        true,
		CanViewCalls:            true,
		CanAcceptCalls:          true,
		CanMakeCalls:            true,
		CanViewCallHistory:      true,
		CanViewStats:            true,
		CanViewFinance:          true,
		CanEditCosts:            true,
		CanViewFraudAlerts:      true,
		CanResolveFraudAlerts:   true,
		CanManageUsers:          true,
		CanViewServiceCenters:   true,
		CanManageServiceCenters: true,
		CanReceiveNotifications: true,
		CanUpdateLocation:       false,
		CanViewMap:              true,
		CanExportData:           true,
	},
	models.RoleOperator: {
		CanViewDashboard:        true,
		CanCreateTicket:         true,
		CanEditTicket:           true,
		CanChangeTicketStatus:   true,
		CanAssignMaster:         true,
		CanViewAllTickets:       true,
		CanViewOwnTickets:       true,
		CanViewMasters:          true,
		CanTrackMasters:         true,
		CanViewCustomers:        true,
		CanViewCalls:            true,
		CanAcceptCalls:          true,
		CanMakeCalls:            true,
		CanViewCallHistory:      true,
		CanViewStats:            true,
		CanViewFraudAlerts:      true,
		CanViewServiceCenters:   true,
		CanReceiveNotifications: true,
		CanViewMap:              true,
	},
	models.RoleMaster: {
		CanViewDashboard:        true,
		CanViewOwnTickets:       true,
		CanChangeTicketStatus:   true,
		CanReceiveNotifications: true,
		CanUpdateLocation:       true,
		CanViewMap:              true,
	},
}

// ForRole returns the capability record for a role. Unknown roles get the
// zero value: fail closed, never fail open.
func ForRole(role string) Set {
	return matrix[role]
}
