package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/config"
	"ipamcore/internal/database"
	"ipamcore/internal/domain"
	"ipamcore/internal/ipam"
	"ipamcore/internal/support"
)

func listSubnets(w http.ResponseWriter, r *http.Request) {
	var namespaceID uint
	if raw := r.URL.Query().Get("namespace_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, "Invalid namespace_id", http.StatusBadRequest)
			return
		}
		namespaceID = uint(id)
	}

	summaries, err := database.GetSubnetSummaries(namespaceID)
	if err != nil {
		log.Error("Failed to list subnets", "error", err)
		writeError(w, "Failed to list subnets", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// createSubnet validates the requested block against policy, reserved
// ranges and the namespace's existing subnets, then stores it. The
// overlap check and the insert run under the namespace lock so two
// concurrent requests cannot both pass validation.
func createSubnet(w http.ResponseWriter, r *http.Request) {
	var req dto.SubnetCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.NamespaceID == 0 {
		writeError(w, "namespace_id is required", http.StatusBadRequest)
		return
	}

	if _, err := database.GetNamespaceFromId(req.NamespaceID); err != nil {
		writeError(w, "Namespace not found", http.StatusNotFound)
		return
	}

	block, err := ipam.ParseCIDR(strings.TrimSpace(req.CIDR))
	if err != nil {
		writeError(w, "Invalid subnet CIDR", http.StatusBadRequest)
		return
	}

	cfg := config.GetConfig()
	minPrefix, maxPrefix := cfg.SubnetPrefixBounds()
	if block.Prefix < minPrefix || block.Prefix > maxPrefix {
		writeError(w, fmt.Sprintf("Prefix must be between /%d and /%d", minPrefix, maxPrefix), http.StatusBadRequest)
		return
	}

	if conflicts := config.FindReservedConflicts(block, config.ReservedBlocks()); len(conflicts) > 0 {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "Subnet overlaps reserved ranges",
			"conflicting_cidrs": conflicts,
		})
		return
	}

	subnet := domain.Subnet{
		NamespaceID: req.NamespaceID,
		CIDR:        block.String(),
		Label:       strings.TrimSpace(req.Label),
		VlanID:      req.VlanID,
		Location:    strings.TrimSpace(req.Location),
	}

	err = support.WithNamespaceLock(r.Context(), req.NamespaceID, func() error {
		existing, err := database.GetSubnetBlocksForNamespace(req.NamespaceID)
		if err != nil {
			return err
		}
		if err := ipam.CheckOverlap(block, existing); err != nil {
			return err
		}
		return database.CreateSubnets([]*domain.Subnet{&subnet}, cfg.Allocation.AutoReserveGateway)
	})
	if err != nil {
		var overlapErr *ipam.OverlapError
		switch {
		case errors.As(err, &overlapErr):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":             "Subnet overlaps existing subnets",
				"conflicting_cidrs": overlapErr.ConflictCIDRs(),
			})
		case errors.Is(err, support.ErrLockBusy):
			writeError(w, "Namespace is busy, retry shortly", http.StatusServiceUnavailable)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			writeError(w, "Subnet already exists in this namespace", http.StatusConflict)
		default:
			log.Error("Failed to create subnet", "cidr", block.String(), "error", err)
			writeError(w, "Failed to create subnet", http.StatusInternalServerError)
		}
		return
	}

	allocated := 0
	if cfg.Allocation.AutoReserveGateway && block.Prefix <= 30 {
		allocated = 1
	}

	writeJSON(w, http.StatusCreated, dto.SubnetSummary{
		ID:             subnet.ID,
		NamespaceID:    subnet.NamespaceID,
		CIDR:           subnet.CIDR,
		Label:          subnet.Label,
		VlanID:         subnet.VlanID,
		Location:       subnet.Location,
		AllocatedCount: int64(allocated),
		UsableHosts:    block.UsableHosts(),
		Utilization:    ipam.Utilization(allocated, block),
		CreatedAt:      subnet.CreatedAt,
	})
}

func getSubnet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid subnet id", http.StatusBadRequest)
		return
	}

	detail, err := database.GetSubnetDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, "Subnet not found", http.StatusNotFound)
			return
		}
		log.Error("Failed to load subnet", "subnet", id, "error", err)
		writeError(w, "Failed to load subnet", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func deleteSubnet(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid subnet id", http.StatusBadRequest)
		return
	}

	if _, err := database.GetSubnetFromId(id); err != nil {
		writeError(w, "Subnet not found", http.StatusNotFound)
		return
	}

	if err := database.DeleteSubnet(id); err != nil {
		log.Error("Failed to delete subnet", "subnet", id, "error", err)
		writeError(w, "Failed to delete subnet", http.StatusInternalServerError)
		return
	}

	log.Info("Deleted subnet", "subnet", id)
	w.WriteHeader(http.StatusNoContent)
}

// allocateAddress hands out the lowest free host address in the subnet.
// The scan over used addresses and the insert run under the namespace
// lock so concurrent allocations never pick the same address.
func allocateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid subnet id", http.StatusBadRequest)
		return
	}

	subnet, err := database.GetSubnetFromId(id)
	if err != nil {
		writeError(w, "Subnet not found", http.StatusNotFound)
		return
	}

	var req dto.AllocateRequest
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

	block, err := subnet.Block()
	if err != nil {
		log.Error("Subnet has unusable CIDR", "subnet", id, "cidr", subnet.CIDR, "error", err)
		writeError(w, "Subnet block is not usable", http.StatusInternalServerError)
		return
	}

	ip := domain.IPAddress{
		SubnetID:    subnet.ID,
		Status:      domain.IPStatusActive,
		Hostname:    strings.TrimSpace(req.Hostname),
		Description: strings.TrimSpace(req.Description),
		DeviceID:    req.DeviceID,
	}

	err = support.WithNamespaceLock(r.Context(), subnet.NamespaceID, func() error {
		used, err := database.GetUsedAddressSet(subnet.ID)
		if err != nil {
			return err
		}
		addr, ok := ipam.NextAvailable(block, used)
		if !ok {
			return ipam.ErrSubnetFull
		}
		ip.Address = addr.String()
		return database.CreateIPAddress(&ip)
	})
	if err != nil {
		switch {
		case errors.Is(err, ipam.ErrSubnetFull):
			writeError(w, "Subnet has no free addresses", http.StatusInsufficientStorage)
		case errors.Is(err, support.ErrLockBusy):
			writeError(w, "Namespace is busy, retry shortly", http.StatusServiceUnavailable)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			writeError(w, "Address was just taken, retry", http.StatusConflict)
		default:
			log.Error("Failed to allocate address", "subnet", id, "error", err)
			writeError(w, "Failed to allocate address", http.StatusInternalServerError)
		}
		return
	}

	log.Info("Allocated address", "subnet", id, "address", ip.Address)
	writeJSON(w, http.StatusCreated, dto.IPAddressInfo{
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

func listSubnetIPs(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid subnet id", http.StatusBadRequest)
		return
	}

	if _, err := database.GetSubnetFromId(id); err != nil {
		writeError(w, "Subnet not found", http.StatusNotFound)
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !domain.ValidIPStatus(status) {
		writeError(w, "Unknown status filter", http.StatusBadRequest)
		return
	}

	infos, err := database.GetIPsBySubnet(id, status)
	if err != nil {
		log.Error("Failed to list addresses", "subnet", id, "error", err)
		writeError(w, "Failed to list addresses", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, infos)
}
