package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/api/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetTicket(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)

	w := env.request(t, http.MethodPost, "/api/tickets", operator, map[string]interface{}{
		"customer_name":  "Olim Karimov",
		"customer_phone": "+998935554433",
		"device_type":    "fridge",
		"issue":          "not cooling",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID     int64  `json:"id"`
			Number string `json:"number"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "created", created.Data.Status)
	assert.NotEmpty(t, created.Data.Number)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d", created.Data.ID), operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)

	// customer name and phone are required
	w := env.request(t, http.MethodPost, "/api/tickets", operator, map[string]interface{}{
		"device_type": "fridge",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTicketIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)
	admin := env.seedSession(t, "admin", nil)
	ticket := env.createTicket(t)

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/tickets/%d", ticket.ID), operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/tickets/%d", ticket.ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d", ticket.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangeTicketStatus(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)
	ticket := env.createTicket(t)

	path := fmt.Sprintf("/api/tickets/%d/status", ticket.ID)

	w := env.request(t, http.MethodPatch, path, operator, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	// legacy alias is normalized
	w = env.request(t, http.MethodPatch, path, operator, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Data.Status)

	w = env.request(t, http.MethodPatch, path, operator, map[string]string{"status": "vanished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTicketPatchesFields(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)
	ticket := env.createTicket(t)

	w := env.request(t, http.MethodPatch, fmt.Sprintf("/api/tickets/%d", ticket.ID), operator, map[string]interface{}{
		"cost_actual": 150000.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			CostActual   float64 `json:"cost_actual"`
			CustomerName string  `json:"customer_name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 150000.0, resp.Data.CostActual)
	assert.Equal(t, "Olim Karimov", resp.Data.CustomerName)
}

func TestTicketHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	operator := env.seedSession(t, "operator", nil)
	ticket := env.createTicket(t)

	env.request(t, http.MethodPatch, fmt.Sprintf("/api/tickets/%d/status", ticket.ID), operator, map[string]string{"status": "assigned"})

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/tickets/%d/history", ticket.ID), operator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Action string `json:"action"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
}

func TestMasterSeesOnlyOwnTickets(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedSession(t, "admin", nil)

	// two tickets, one assigned to the master
	mine := env.createTicket(t)
	env.createTicket(t)

	var masterID int64
	{
		w := env.request(t, http.MethodPost, "/api/masters", admin, map[string]interface{}{"name": "Bobur Alimov"})
		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Data struct {
				ID int64 `json:"id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		masterID = resp.Data.ID
	}

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/tickets/%d/assign", mine.ID), admin, map[string]interface{}{"master_id": masterID})
	require.Equal(t, http.StatusOK, w.Code)

	masterSession := env.seedSession(t, "master", &masterID)
	w = env.request(t, http.MethodGet, "/api/tickets", masterSession, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Tickets []struct {
				ID int64 `json:"id"`
			} `json:"tickets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Tickets, 1)
	assert.Equal(t, mine.ID, resp.Data.Tickets[0].ID)
}

func TestMasterCannotCreateTickets(t *testing.T) {
	env := newTestEnv(t)
	master := env.seedSession(t, "master", nil)

	w := env.request(t, http.MethodPost, "/api/tickets", master, map[string]interface{}{
		"customer_name":  "Olim Karimov",
		"customer_phone": "+998935554433",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnknownRoleGetsNothing(t *testing.T) {
	env := newTestEnv(t)
	ghost := env.seedSession(t, "intern", nil)

	w := env.request(t, http.MethodGet, "/api/tickets", ghost, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
