package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/database"
	"ipamcore/internal/domain"
)

// reserveAddress pins an existing row as reserved. Reserved addresses
// keep their slot through release cycles until someone deletes them.
func reserveAddress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid address id", http.StatusBadRequest)
		return
	}

	if _, err := database.GetIPFromId(id); err != nil {
		writeError(w, "Address not found", http.StatusNotFound)
		return
	}

	var req dto.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.DeviceID != nil {
		if _, err := database.GetDeviceFromId(*req.DeviceID); err != nil {
			writeError(w, "Device not found", http.StatusNotFound)
			return
		}
	}

	updates := map[string]any{"status": domain.IPStatusReserved}
	if hostname := strings.TrimSpace(req.Hostname); hostname != "" {
		updates["hostname"] = hostname
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		updates["description"] = description
	}
	if req.DeviceID != nil {
		updates["device_id"] = *req.DeviceID
	}

	if err := database.UpdateIPFields(id, updates); err != nil {
		log.Error("Failed to reserve address", "address", id, "error", err)
		writeError(w, "Failed to reserve address", http.StatusInternalServerError)
		return
	}

	ip, err := database.GetIPFromId(id)
	if err != nil {
		log.Error("Failed to reload address", "address", id, "error", err)
		writeError(w, "Failed to reserve address", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dto.IPAddressInfo{
		ID:          ip.ID,
		SubnetID:    ip.SubnetID,
		Address:     ip.Address,
		Status:      ip.Status,
		Hostname:    ip.Hostname,
		Description: ip.Description,
		DeviceID:    ip.DeviceID,
		CreatedAt:   ip.CreatedAt,
		UpdatedAt:   ip.UpdatedAt,
	})
}

// releaseAddress marks a row deprecated without freeing its slot. The
// address stays occupied so it cannot be handed out again while stale
// DNS or neighbor caches might still point at it.
func releaseAddress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid address id", http.StatusBadRequest)
		return
	}

	if _, err := database.GetIPFromId(id); err != nil {
		writeError(w, "Address not found", http.StatusNotFound)
		return
	}

	updates := map[string]any{
		"status":   domain.IPStatusDeprecated,
		"hostname": "",
	}
	if err := database.UpdateIPFields(id, updates); err != nil {
		log.Error("Failed to release address", "address", id, "error", err)
		writeError(w, "Failed to release address", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteAddress removes the row entirely, returning the address to the
// subnet's free pool.
func deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid address id", http.StatusBadRequest)
		return
	}

	ip, err := database.GetIPFromId(id)
	if err != nil {
		writeError(w, "Address not found", http.StatusNotFound)
		return
	}

	if err := database.DeleteIP(id); err != nil {
		log.Error("Failed to delete address", "address", id, "error", err)
		writeError(w, "Failed to delete address", http.StatusInternalServerError)
		return
	}

	log.Info("Deleted address", "address", ip.Address, "subnet", ip.SubnetID)
	w.WriteHeader(http.StatusNoContent)
}
