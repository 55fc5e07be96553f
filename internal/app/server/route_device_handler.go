package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/database"
	"ipamcore/internal/domain"
)

func listDevices(w http.ResponseWriter, r *http.Request) {
	infos, err := database.GetDeviceInfos()
	if err != nil {
		log.Error("Failed to list devices", "error", err)
		writeError(w, "Failed to list devices", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, infos)
}

func createDevice(w http.ResponseWriter, r *http.Request) {
	var req dto.DeviceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, "Device name is required", http.StatusBadRequest)
		return
	}

	taken, err := database.DeviceNameTaken(req.Name)
	if err != nil {
		log.Error("Failed to check device name", "error", err)
		writeError(w, "Failed to create device", http.StatusInternalServerError)
		return
	}
	if taken {
		writeError(w, "Device name already exists", http.StatusConflict)
		return
	}

	device := domain.Device{
		Name:     req.Name,
		Type:     strings.TrimSpace(req.Type),
		Location: strings.TrimSpace(req.Location),
	}
	if err := database.CreateDevice(&device); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeError(w, "Device name already exists", http.StatusConflict)
			return
		}
		log.Error("Failed to create device", "name", req.Name, "error", err)
		writeError(w, "Failed to create device", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DeviceInfo{
		ID:        device.ID,
		Name:      device.Name,
		Type:      device.Type,
		Location:  device.Location,
		CreatedAt: device.CreatedAt,
	})
}

func getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid device id", http.StatusBadRequest)
		return
	}

	detail, err := database.GetDeviceDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, "Device not found", http.StatusNotFound)
			return
		}
		log.Error("Failed to load device", "device", id, "error", err)
		writeError(w, "Failed to load device", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
