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
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/config"
	"ipamcore/internal/database"
	"ipamcore/internal/domain"
	"ipamcore/internal/ipam"
	"ipamcore/internal/support"
)

// importPlanMaxBytes caps YAML plan uploads. A plan describing thousands
// of subnets still fits comfortably below this.
const importPlanMaxBytes = 1 << 20

func parseIDParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

func listNamespaces(w http.ResponseWriter, r *http.Request) {
	summaries, err := database.GetNamespaceSummaries()
	if err != nil {
		log.Error("Failed to list namespaces", "error", err)
		writeError(w, "Failed to list namespaces", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func createNamespace(w http.ResponseWriter, r *http.Request) {
	var req dto.NamespaceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, "Namespace name is required", http.StatusBadRequest)
		return
	}

	if req.CIDR != "" {
		if _, err := ipam.ParseCIDR(req.CIDR); err != nil {
			writeError(w, "Invalid namespace CIDR", http.StatusBadRequest)
			return
		}
	} else {
		req.CIDR = config.GetConfig().Allocation.DefaultNamespaceCIDR
	}

	taken, err := database.NamespaceNameTaken(req.Name)
	if err != nil {
		log.Error("Failed to check namespace name", "error", err)
		writeError(w, "Failed to create namespace", http.StatusInternalServerError)
		return
	}
	if taken {
		writeError(w, "Namespace name already exists", http.StatusConflict)
		return
	}

	namespace := domain.Namespace{
		Name:        req.Name,
		CIDR:        req.CIDR,
		Description: req.Description,
	}
	if err := database.CreateNamespace(&namespace); err != nil {
		log.Error("Failed to create namespace", "name", req.Name, "error", err)
		writeError(w, "Failed to create namespace", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NamespaceSummary{
		ID:          namespace.ID,
		Name:        namespace.Name,
		CIDR:        namespace.CIDR,
		Description: namespace.Description,
		CreatedAt:   namespace.CreatedAt,
	})
}

func getNamespace(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid namespace id", http.StatusBadRequest)
		return
	}

	namespace, err := database.GetNamespaceFromId(id)
	if err != nil {
		writeError(w, "Namespace not found", http.StatusNotFound)
		return
	}

	subnets, err := database.GetSubnetSummaries(id)
	if err != nil {
		log.Error("Failed to load namespace subnets", "namespace", id, "error", err)
		writeError(w, "Failed to load namespace", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          namespace.ID,
		"name":        namespace.Name,
		"cidr":        namespace.CIDR,
		"description": namespace.Description,
		"created_at":  namespace.CreatedAt,
		"subnets":     subnets,
	})
}

// suggestCIDR proposes the lowest-addressed free block of the requested
// size inside the namespace scope, skipping existing subnets and the
// globally reserved ranges.
func suggestCIDR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid namespace id", http.StatusBadRequest)
		return
	}

	namespace, err := database.GetNamespaceFromId(id)
	if err != nil {
		writeError(w, "Namespace not found", http.StatusNotFound)
		return
	}

	scope, err := namespace.Scope()
	if err != nil {
		log.Error("Namespace has unusable scope", "namespace", id, "cidr", namespace.CIDR, "error", err)
		writeError(w, "Namespace scope is not usable", http.StatusInternalServerError)
		return
	}

	cfg := config.GetConfig()
	prefix := cfg.SuggestPrefix()
	if raw := r.URL.Query().Get("prefix"); raw != "" {
		prefix, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, "Invalid prefix", http.StatusBadRequest)
			return
		}
	}

	minPrefix, maxPrefix := cfg.SubnetPrefixBounds()
	if prefix < minPrefix || prefix > maxPrefix {
		writeError(w, fmt.Sprintf("Prefix must be between /%d and /%d", minPrefix, maxPrefix), http.StatusBadRequest)
		return
	}

	existing, err := database.GetSubnetBlocksForNamespace(id)
	if err != nil {
		log.Error("Failed to load subnet blocks", "namespace", id, "error", err)
		writeError(w, "Failed to compute suggestion", http.StatusInternalServerError)
		return
	}
	existing = append(existing, config.ReservedBlocks()...)

	block, err := ipam.FindFreeBlock(scope, prefix, existing)
	if err != nil {
		switch {
		case errors.Is(err, ipam.ErrInvalidPrefix):
			writeError(w, "Prefix does not fit the namespace scope", http.StatusBadRequest)
		case errors.Is(err, ipam.ErrNoSpace):
			writeError(w, "No free block of the requested size", http.StatusInsufficientStorage)
		default:
			log.Error("Failed to find free block", "namespace", id, "prefix", prefix, "error", err)
			writeError(w, "Failed to compute suggestion", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuggestedBlock{
		NamespaceID: id,
		CIDR:        block.String(),
		Prefix:      block.Prefix,
	})
}

// exportNamespace streams the namespace inventory as an xlsx workbook
// with one sheet for subnets and one for addresses.
func exportNamespace(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid namespace id", http.StatusBadRequest)
		return
	}

	namespace, err := database.GetNamespaceInventory(id)
	if err != nil {
		writeError(w, "Namespace not found", http.StatusNotFound)
		return
	}

	workbook, err := buildInventoryWorkbook(namespace)
	if err != nil {
		log.Error("Failed to build export workbook", "namespace", id, "error", err)
		writeError(w, "Failed to build export", http.StatusInternalServerError)
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("namespace-%s.xlsx", exportFileSlug(namespace.Name))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := workbook.Write(w); err != nil {
		log.Error("Failed to stream export workbook", "namespace", id, "error", err)
	}
}

func buildInventoryWorkbook(namespace domain.Namespace) (*excelize.File, error) {
	workbook := excelize.NewFile()

	const subnetSheet = "Subnets"
	const addressSheet = "Addresses"

	if err := workbook.SetSheetName("Sheet1", subnetSheet); err != nil {
		return nil, err
	}
	if _, err := workbook.NewSheet(addressSheet); err != nil {
		return nil, err
	}

	subnetHeader := []any{"CIDR", "Label", "VLAN", "Location", "Usable Hosts", "Allocated", "Utilization %"}
	if err := workbook.SetSheetRow(subnetSheet, "A1", &subnetHeader); err != nil {
		return nil, err
	}
	addressHeader := []any{"Subnet", "Address", "Status", "Hostname", "Description"}
	if err := workbook.SetSheetRow(addressSheet, "A1", &addressHeader); err != nil {
		return nil, err
	}

	addressRow := 2
	for i, subnet := range namespace.Subnets {
		var usable int64
		utilization := 0.0
		if block, err := subnet.Block(); err == nil {
			usable = block.UsableHosts()
			utilization = ipam.Utilization(len(subnet.IPAddresses), block)
		}

		vlan := ""
		if subnet.VlanID != nil {
			vlan = strconv.Itoa(*subnet.VlanID)
		}

		row := []any{subnet.CIDR, subnet.Label, vlan, subnet.Location, usable, len(subnet.IPAddresses), utilization}
		cell := fmt.Sprintf("A%d", i+2)
		if err := workbook.SetSheetRow(subnetSheet, cell, &row); err != nil {
			return nil, err
		}

		for _, ip := range subnet.IPAddresses {
			row := []any{subnet.CIDR, ip.Address, ip.Status, ip.Hostname, ip.Description}
			cell := fmt.Sprintf("A%d", addressRow)
			if err := workbook.SetSheetRow(addressSheet, cell, &row); err != nil {
				return nil, err
			}
			addressRow++
		}
	}

	_ = workbook.SetColWidth(subnetSheet, "A", "G", 18)
	_ = workbook.SetColWidth(addressSheet, "A", "E", 22)

	return workbook, nil
}

func exportFileSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, slug)
	if slug == "" {
		return "inventory"
	}
	return slug
}

// importNamespacePlan creates every subnet of an uploaded plan in one
// transaction. YAML plans carry labels and metadata and reject the
// whole upload on any invalid entry; text/plain bodies are treated as a
// pasted flat list where malformed lines are skipped.
func importNamespacePlan(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, "Invalid namespace id", http.StatusBadRequest)
		return
	}

	if _, err := database.GetNamespaceFromId(id); err != nil {
		writeError(w, "Namespace not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, importPlanMaxBytes))
	if err != nil {
		writeError(w, "Plan is too large or unreadable", http.StatusBadRequest)
		return
	}

	var plan dto.NamespacePlan
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") {
		for _, cidr := range support.ParseTextToCIDRs(string(body)) {
			plan.Subnets = append(plan.Subnets, dto.SubnetPlan{CIDR: cidr})
		}
	} else if err := yaml.Unmarshal(body, &plan); err != nil {
		writeError(w, "Invalid YAML plan", http.StatusBadRequest)
		return
	}
	if len(plan.Subnets) == 0 {
		writeError(w, "Plan contains no subnets", http.StatusBadRequest)
		return
	}

	blocks, invalid := parsePlanBlocks(plan.Subnets)
	if len(invalid) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":         "Plan contains invalid CIDRs",
			"invalid_cidrs": invalid,
		})
		return
	}

	cfg := config.GetConfig()
	minPrefix, maxPrefix := cfg.SubnetPrefixBounds()
	for _, block := range blocks {
		if block.Prefix < minPrefix || block.Prefix > maxPrefix {
			writeError(w, fmt.Sprintf("Plan subnet %s is outside the allowed /%d-/%d range", block, minPrefix, maxPrefix), http.StatusBadRequest)
			return
		}
	}

	if conflicts := planReservedConflicts(blocks); len(conflicts) > 0 {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "Plan overlaps reserved ranges",
			"conflicting_cidrs": conflicts,
		})
		return
	}

	for i, block := range blocks {
		if hits := ipam.Conflicts(block, blocks[:i]); len(hits) > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":             "Plan subnets overlap each other",
				"conflicting_cidrs": []string{block.String(), hits[0].String()},
			})
			return
		}
	}

	subnets := make([]*domain.Subnet, 0, len(plan.Subnets))
	for i, entry := range plan.Subnets {
		subnets = append(subnets, &domain.Subnet{
			NamespaceID: id,
			CIDR:        blocks[i].String(),
			Label:       strings.TrimSpace(entry.Label),
			VlanID:      entry.VlanID,
			Location:    strings.TrimSpace(entry.Location),
		})
	}

	err = support.WithNamespaceLock(r.Context(), id, func() error {
		existing, err := database.GetSubnetBlocksForNamespace(id)
		if err != nil {
			return err
		}
		for _, block := range blocks {
			if err := ipam.CheckOverlap(block, existing); err != nil {
				return err
			}
		}
		return database.CreateSubnets(subnets, cfg.Allocation.AutoReserveGateway)
	})
	if err != nil {
		var overlapErr *ipam.OverlapError
		switch {
		case errors.As(err, &overlapErr):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":             "Plan overlaps existing subnets",
				"conflicting_cidrs": overlapErr.ConflictCIDRs(),
			})
		case errors.Is(err, support.ErrLockBusy):
			writeError(w, "Namespace is busy, retry shortly", http.StatusServiceUnavailable)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			writeError(w, "Plan duplicates an existing subnet", http.StatusConflict)
		default:
			log.Error("Failed to import namespace plan", "namespace", id, "error", err)
			writeError(w, "Failed to import plan", http.StatusInternalServerError)
		}
		return
	}

	result := dto.ImportResult{Created: len(subnets)}
	for i, subnet := range subnets {
		allocated := 0
		if cfg.Allocation.AutoReserveGateway && blocks[i].Prefix <= 30 {
			allocated = 1
		}
		result.Subnets = append(result.Subnets, dto.SubnetSummary{
			ID:             subnet.ID,
			NamespaceID:    subnet.NamespaceID,
			CIDR:           subnet.CIDR,
			Label:          subnet.Label,
			VlanID:         subnet.VlanID,
			Location:       subnet.Location,
			AllocatedCount: int64(allocated),
			UsableHosts:    blocks[i].UsableHosts(),
			Utilization:    ipam.Utilization(allocated, blocks[i]),
			CreatedAt:      subnet.CreatedAt,
		})
	}

	log.Info("Imported namespace plan", "namespace", id, "subnets", len(subnets))
	writeJSON(w, http.StatusCreated, result)
}

func parsePlanBlocks(entries []dto.SubnetPlan) ([]ipam.Block, []string) {
	blocks := make([]ipam.Block, 0, len(entries))
	var invalid []string
	for _, entry := range entries {
		block, err := ipam.ParseCIDR(strings.TrimSpace(entry.CIDR))
		if err != nil {
			invalid = append(invalid, entry.CIDR)
			continue
		}
		blocks = append(blocks, block)
	}
	if len(invalid) > 0 {
		return nil, dedupe(invalid)
	}
	return blocks, nil
}

func planReservedConflicts(blocks []ipam.Block) []string {
	reserved := config.ReservedBlocks()
	var conflicts []string
	for _, block := range blocks {
		conflicts = append(conflicts, config.FindReservedConflicts(block, reserved)...)
	}
	return dedupe(conflicts)
}
