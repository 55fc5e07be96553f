package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/config"
	"ipamcore/internal/domain"
)

func TestCreateNamespace_AppliesDefaultScope(t *testing.T) {
	setupServerTestDB(t)

	request := jsonRequest(t, http.MethodPost, "/api/namespaces", dto.NamespaceCreateRequest{
		Name: "Lab",
	})
	recorder := httptest.NewRecorder()

	createNamespace(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var summary dto.NamespaceSummary
	if err := json.NewDecoder(recorder.Body).Decode(&summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.Name != "Lab" {
		t.Fatalf("name = %q, want Lab", summary.Name)
	}
	if summary.CIDR != "10.0.0.0/8" {
		t.Fatalf("cidr = %q, want the 10.0.0.0/8 default", summary.CIDR)
	}
}

func TestCreateNamespace_RejectsDuplicateAndBadInput(t *testing.T) {
	db := setupServerTestDB(t)
	seedNamespace(t, db, "Prod", "10.0.0.0/8")

	recorder := httptest.NewRecorder()
	createNamespace(recorder, jsonRequest(t, http.MethodPost, "/api/namespaces", dto.NamespaceCreateRequest{
		Name: "Prod",
	}))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate name: expected status %d, got %d", http.StatusConflict, recorder.Code)
	}

	recorder = httptest.NewRecorder()
	createNamespace(recorder, jsonRequest(t, http.MethodPost, "/api/namespaces", dto.NamespaceCreateRequest{
		Name: "   ",
	}))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	recorder = httptest.NewRecorder()
	createNamespace(recorder, jsonRequest(t, http.MethodPost, "/api/namespaces", dto.NamespaceCreateRequest{
		Name: "Broken",
		CIDR: "500.1.2.3/8",
	}))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid cidr: expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetNamespace_IncludesSubnets(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")
	seedSubnet(t, db, namespace.ID, "10.0.0.0/24")
	seedSubnet(t, db, namespace.ID, "10.0.1.0/24")

	request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1", nil)
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	getNamespace(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var resp struct {
		ID      uint                `json:"id"`
		Name    string              `json:"name"`
		Subnets []dto.SubnetSummary `json:"subnets"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != namespace.ID || resp.Name != "prod" {
		t.Fatalf("namespace = %d %q, want %d prod", resp.ID, resp.Name, namespace.ID)
	}
	if len(resp.Subnets) != 2 {
		t.Fatalf("subnet list has %d entries, want 2", len(resp.Subnets))
	}
}

func TestSuggestCIDR_SkipsExistingSubnets(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")
	seedSubnet(t, db, namespace.ID, "10.0.0.0/24")

	request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1/suggest", nil)
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	suggestCIDR(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var suggestion dto.SuggestedBlock
	if err := json.NewDecoder(recorder.Body).Decode(&suggestion); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if suggestion.CIDR != "10.0.1.0/24" {
		t.Fatalf("suggested cidr = %q, want the next free /24 10.0.1.0/24", suggestion.CIDR)
	}
	if suggestion.Prefix != 24 {
		t.Fatalf("suggested prefix = %d, want the default 24", suggestion.Prefix)
	}
}

func TestSuggestCIDR_AvoidsReservedRanges(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")
	seedSubnet(t, db, namespace.ID, "10.0.0.0/24")

	overrideConfig(t, func(cfg *config.Config) {
		cfg.ReservedRanges = []string{"10.0.1.0/24"}
	})

	request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1/suggest", nil)
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	suggestCIDR(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var suggestion dto.SuggestedBlock
	if err := json.NewDecoder(recorder.Body).Decode(&suggestion); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if suggestion.CIDR != "10.0.2.0/24" {
		t.Fatalf("suggested cidr = %q, want 10.0.2.0/24 past the reserved block", suggestion.CIDR)
	}
}

func TestSuggestCIDR_RejectsBadPrefix(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")

	for _, raw := range []string{"abc", "8", "33"} {
		request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1/suggest?prefix="+raw, nil)
		request.SetPathValue("id", fmt.Sprint(namespace.ID))
		recorder := httptest.NewRecorder()

		suggestCIDR(recorder, request)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("prefix %q: expected status %d, got %d", raw, http.StatusBadRequest, recorder.Code)
		}
	}
}

func TestSuggestCIDR_ReportsExhaustedScope(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "small", "10.42.0.0/23")
	seedSubnet(t, db, namespace.ID, "10.42.0.0/24")
	seedSubnet(t, db, namespace.ID, "10.42.1.0/24")

	request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1/suggest", nil)
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	suggestCIDR(recorder, request)

	if recorder.Code != http.StatusInsufficientStorage {
		t.Fatalf("expected status %d, got %d: %s", http.StatusInsufficientStorage, recorder.Code, recorder.Body.String())
	}
}

func TestImportNamespacePlan_CreatesAllSubnets(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")

	plan := strings.Join([]string{
		"subnets:",
		"  - cidr: 10.10.0.0/24",
		"    label: app",
		"    vlan_id: 110",
		"  - cidr: 10.10.1.0/24",
		"    label: db",
		"    location: rack-4",
	}, "\n")

	request := httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import", strings.NewReader(plan))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var result dto.ImportResult
	if err := json.NewDecoder(recorder.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("created = %d, want 2", result.Created)
	}
	if len(result.Subnets) != 2 {
		t.Fatalf("result has %d subnets, want 2", len(result.Subnets))
	}
	if result.Subnets[0].CIDR != "10.10.0.0/24" || result.Subnets[0].Label != "app" {
		t.Fatalf("first subnet = %+v, want 10.10.0.0/24 app", result.Subnets[0])
	}
	if result.Subnets[0].VlanID == nil || *result.Subnets[0].VlanID != 110 {
		t.Fatalf("first subnet vlan = %v, want 110", result.Subnets[0].VlanID)
	}
	if result.Subnets[1].Location != "rack-4" {
		t.Fatalf("second subnet location = %q, want rack-4", result.Subnets[1].Location)
	}

	var count int64
	db.Model(&domain.Subnet{}).Where("namespace_id = ?", namespace.ID).Count(&count)
	if count != 2 {
		t.Fatalf("stored subnet count = %d, want 2", count)
	}
}

func TestImportNamespacePlan_AcceptsPastedList(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")

	// Flat lists tolerate garbage lines; only the valid blocks import.
	pasted := "10.50.0.0/24\nnot-a-cidr\n10.50.1.0/24, 10.50.1.0/24\n"

	request := httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import", strings.NewReader(pasted))
	request.Header.Set("Content-Type", "text/plain")
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var result dto.ImportResult
	if err := json.NewDecoder(recorder.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("created = %d, want the 2 valid deduplicated blocks", result.Created)
	}
	if result.Subnets[0].CIDR != "10.50.0.0/24" || result.Subnets[1].CIDR != "10.50.1.0/24" {
		t.Fatalf("imported cidrs = [%s %s], want [10.50.0.0/24 10.50.1.0/24]",
			result.Subnets[0].CIDR, result.Subnets[1].CIDR)
	}
}

func TestImportNamespacePlan_AllOrNothing(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")
	seedSubnet(t, db, namespace.ID, "10.20.0.0/24")

	plan := strings.Join([]string{
		"subnets:",
		"  - cidr: 10.20.5.0/24",
		"  - cidr: 10.20.0.128/25",
	}, "\n")

	request := httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import", strings.NewReader(plan))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, recorder.Code, recorder.Body.String())
	}

	var resp conflictResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.ConflictingCIDRs) != 1 || resp.ConflictingCIDRs[0] != "10.20.0.0/24" {
		t.Fatalf("conflicting cidrs = %v, want [10.20.0.0/24]", resp.ConflictingCIDRs)
	}

	// The clean entry must not survive the rejected plan.
	var count int64
	db.Model(&domain.Subnet{}).Where("namespace_id = ?", namespace.ID).Count(&count)
	if count != 1 {
		t.Fatalf("stored subnet count = %d, want the original 1", count)
	}
}

func TestImportNamespacePlan_RejectsInvalidEntries(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")

	request := httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import",
		strings.NewReader("subnets:\n  - cidr: 10.300.0.0/24\n"))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid cidr: expected status %d, got %d: %s", http.StatusBadRequest, recorder.Code, recorder.Body.String())
	}

	var resp conflictResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.InvalidCIDRs) != 1 || resp.InvalidCIDRs[0] != "10.300.0.0/24" {
		t.Fatalf("invalid cidrs = %v, want [10.300.0.0/24]", resp.InvalidCIDRs)
	}

	request = httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import",
		strings.NewReader("subnets: []\n"))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder = httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("empty plan: expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	request = httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import",
		strings.NewReader("subnets: [10.30.0.0/24"))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder = httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("malformed yaml: expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestImportNamespacePlan_RejectsOverlapWithinPlan(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "prod", "10.0.0.0/8")

	plan := strings.Join([]string{
		"subnets:",
		"  - cidr: 10.30.0.0/24",
		"  - cidr: 10.30.0.0/25",
	}, "\n")

	request := httptest.NewRequest(http.MethodPost, "/api/namespaces/1/import", strings.NewReader(plan))
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	importNamespacePlan(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, recorder.Code, recorder.Body.String())
	}

	var resp conflictResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.ConflictingCIDRs) != 2 {
		t.Fatalf("conflicting cidrs = %v, want the overlapping pair", resp.ConflictingCIDRs)
	}

	var count int64
	db.Model(&domain.Subnet{}).Count(&count)
	if count != 0 {
		t.Fatalf("stored subnet count = %d, want 0", count)
	}
}

func TestExportNamespace_WorkbookRoundTrip(t *testing.T) {
	db := setupServerTestDB(t)
	namespace := seedNamespace(t, db, "Prod Net", "192.168.0.0/16")
	subnet := seedSubnet(t, db, namespace.ID, "192.168.1.0/24")
	seedAddress(t, db, subnet.ID, "192.168.1.1", domain.IPStatusReserved)
	seedAddress(t, db, subnet.ID, "192.168.1.10", domain.IPStatusActive)

	request := httptest.NewRequest(http.MethodGet, "/api/namespaces/1/export", nil)
	request.SetPathValue("id", fmt.Sprint(namespace.ID))
	recorder := httptest.NewRecorder()

	exportNamespace(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q, want the xlsx MIME type", ct)
	}
	if cd := recorder.Header().Get("Content-Disposition"); !strings.Contains(cd, "namespace-prod-net.xlsx") {
		t.Fatalf("content disposition = %q, want the slugged filename", cd)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(recorder.Body.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer workbook.Close()

	subnetRows, err := workbook.GetRows("Subnets")
	if err != nil {
		t.Fatalf("read subnet sheet: %v", err)
	}
	if len(subnetRows) != 2 {
		t.Fatalf("subnet sheet has %d rows, want header plus 1", len(subnetRows))
	}
	if subnetRows[0][0] != "CIDR" {
		t.Fatalf("subnet header = %q, want CIDR", subnetRows[0][0])
	}
	if subnetRows[1][0] != "192.168.1.0/24" {
		t.Fatalf("subnet row cidr = %q, want 192.168.1.0/24", subnetRows[1][0])
	}

	addressRows, err := workbook.GetRows("Addresses")
	if err != nil {
		t.Fatalf("read address sheet: %v", err)
	}
	if len(addressRows) != 3 {
		t.Fatalf("address sheet has %d rows, want header plus 2", len(addressRows))
	}
	if addressRows[1][1] != "192.168.1.1" || addressRows[2][1] != "192.168.1.10" {
		t.Fatalf("address rows = [%s %s], want ordered 192.168.1.1 192.168.1.10",
			addressRows[1][1], addressRows[2][1])
	}
	if addressRows[1][2] != domain.IPStatusReserved {
		t.Fatalf("first address status = %q, want %q", addressRows[1][2], domain.IPStatusReserved)
	}
}
