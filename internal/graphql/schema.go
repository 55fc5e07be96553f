package graphql

import (
	"context"
	"fmt"

	gql "github.com/graphql-go/graphql"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/database"
	"ipamcore/internal/domain"
)

type viewerData struct {
	user domain.User
}

// NewSchema builds the read-only query schema. Writes go through the
// REST routes so every mutation shares the same locking and validation.
func NewSchema() (gql.Schema, error) {
	addressType := gql.NewObject(gql.ObjectConfig{
		Name: "Address",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"address":     &gql.Field{Type: gql.NewNonNull(gql.String)},
			"status":      &gql.Field{Type: gql.NewNonNull(gql.String)},
			"hostname":    &gql.Field{Type: gql.NewNonNull(gql.String)},
			"description": &gql.Field{Type: gql.NewNonNull(gql.String)},
			"deviceName":  &gql.Field{Type: gql.NewNonNull(gql.String)},
			"createdAt":   &gql.Field{Type: gql.DateTime},
		},
	})

	subnetType := gql.NewObject(gql.ObjectConfig{
		Name: "Subnet",
		Fields: gql.Fields{
			"id":             &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"cidr":           &gql.Field{Type: gql.NewNonNull(gql.String)},
			"label":          &gql.Field{Type: gql.NewNonNull(gql.String)},
			"vlanId":         &gql.Field{Type: gql.Int},
			"location":       &gql.Field{Type: gql.NewNonNull(gql.String)},
			"allocatedCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"usableHosts":    &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"utilization":    &gql.Field{Type: gql.NewNonNull(gql.Float)},
			"addresses": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(addressType))),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					source, ok := p.Source.(map[string]interface{})
					if !ok {
						return []map[string]interface{}{}, nil
					}
					subnetID, ok := source["id"].(int)
					if !ok {
						return []map[string]interface{}{}, nil
					}
					return buildAddressList(uint(subnetID))
				},
			},
		},
	})

	namespaceType := gql.NewObject(gql.ObjectConfig{
		Name: "Namespace",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"name":        &gql.Field{Type: gql.NewNonNull(gql.String)},
			"cidr":        &gql.Field{Type: gql.NewNonNull(gql.String)},
			"description": &gql.Field{Type: gql.NewNonNull(gql.String)},
			"subnetCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"subnets": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(subnetType))),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					source, ok := p.Source.(map[string]interface{})
					if !ok {
						return []map[string]interface{}{}, nil
					}
					namespaceID, ok := source["id"].(int)
					if !ok {
						return []map[string]interface{}{}, nil
					}
					return buildSubnetList(uint(namespaceID))
				},
			},
		},
	})

	deviceType := gql.NewObject(gql.ObjectConfig{
		Name: "Device",
		Fields: gql.Fields{
			"id":           &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"name":         &gql.Field{Type: gql.NewNonNull(gql.String)},
			"type":         &gql.Field{Type: gql.NewNonNull(gql.String)},
			"location":     &gql.Field{Type: gql.NewNonNull(gql.String)},
			"addressCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
		},
	})

	statusCountType := gql.NewObject(gql.ObjectConfig{
		Name: "StatusCount",
		Fields: gql.Fields{
			"status": &gql.Field{Type: gql.NewNonNull(gql.String)},
			"count":  &gql.Field{Type: gql.NewNonNull(gql.Int)},
		},
	})

	utilizedSubnetType := gql.NewObject(gql.ObjectConfig{
		Name: "UtilizedSubnet",
		Fields: gql.Fields{
			"subnetId":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"cidr":           &gql.Field{Type: gql.NewNonNull(gql.String)},
			"label":          &gql.Field{Type: gql.NewNonNull(gql.String)},
			"allocatedCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"utilization":    &gql.Field{Type: gql.NewNonNull(gql.Float)},
		},
	})

	dashboardType := gql.NewObject(gql.ObjectConfig{
		Name: "DashboardInfo",
		Fields: gql.Fields{
			"totalNamespaces":    &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"totalSubnets":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"totalAddresses":     &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"totalDevices":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"addressesAddedWeek": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"statusBreakdown": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(statusCountType))),
			},
			"topUtilizedSubnets": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(utilizedSubnetType))),
			},
		},
	})

	viewerType := gql.NewObject(gql.ObjectConfig{
		Name: "Viewer",
		Fields: gql.Fields{
			"id": &gql.Field{
				Type: gql.NewNonNull(gql.ID),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					if data, ok := p.Source.(*viewerData); ok {
						return fmt.Sprintf("%d", data.user.ID), nil
					}
					return nil, nil
				},
			},
			"email": &gql.Field{
				Type: gql.NewNonNull(gql.String),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					if data, ok := p.Source.(*viewerData); ok {
						return data.user.Email, nil
					}
					return nil, nil
				},
			},
			"role": &gql.Field{
				Type: gql.NewNonNull(gql.String),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					if data, ok := p.Source.(*viewerData); ok {
						return data.user.Role, nil
					}
					return nil, nil
				},
			},
			"dashboard": &gql.Field{
				Type: gql.NewNonNull(dashboardType),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return buildDashboard(database.GetDashboardInfo()), nil
				},
			},
			"namespaces": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(namespaceType))),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return buildNamespaceList()
				},
			},
			"namespace": &gql.Field{
				Type: namespaceType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					id, ok := p.Args["id"].(int)
					if !ok || id <= 0 {
						return nil, fmt.Errorf("invalid namespace id")
					}
					return buildNamespace(uint(id))
				},
			},
			"devices": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(deviceType))),
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return buildDeviceList()
				},
			},
		},
	})

	queryType := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"viewer": &gql.Field{
				Type: viewerType,
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return fetchViewer(p.Context)
				},
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{
		Query: queryType,
	})
}

func fetchViewer(ctx context.Context) (interface{}, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user := database.GetUserFromId(userID)
	if user.ID == 0 {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	return &viewerData{user: user}, nil
}

func buildNamespaceList() ([]map[string]interface{}, error) {
	summaries, err := database.GetNamespaceSummaries()
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, namespaceMap(summary))
	}
	return items, nil
}

func buildNamespace(id uint) (map[string]interface{}, error) {
	summaries, err := database.GetNamespaceSummaries()
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if summary.ID == id {
			return namespaceMap(summary), nil
		}
	}
	return nil, nil
}

func namespaceMap(summary dto.NamespaceSummary) map[string]interface{} {
	return map[string]interface{}{
		"id":          int(summary.ID),
		"name":        summary.Name,
		"cidr":        summary.CIDR,
		"description": summary.Description,
		"subnetCount": int(summary.SubnetCount),
	}
}

func buildSubnetList(namespaceID uint) ([]map[string]interface{}, error) {
	summaries, err := database.GetSubnetSummaries(namespaceID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(summaries))
	for _, summary := range summaries {
		var vlan interface{}
		if summary.VlanID != nil {
			vlan = *summary.VlanID
		}
		items = append(items, map[string]interface{}{
			"id":             int(summary.ID),
			"cidr":           summary.CIDR,
			"label":          summary.Label,
			"vlanId":         vlan,
			"location":       summary.Location,
			"allocatedCount": int(summary.AllocatedCount),
			"usableHosts":    int(summary.UsableHosts),
			"utilization":    summary.Utilization,
		})
	}
	return items, nil
}

func buildAddressList(subnetID uint) ([]map[string]interface{}, error) {
	infos, err := database.GetIPsBySubnet(subnetID, "")
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		items = append(items, map[string]interface{}{
			"id":          int(info.ID),
			"address":     info.Address,
			"status":      info.Status,
			"hostname":    info.Hostname,
			"description": info.Description,
			"deviceName":  info.DeviceName,
			"createdAt":   info.CreatedAt,
		})
	}
	return items, nil
}

func buildDeviceList() ([]map[string]interface{}, error) {
	infos, err := database.GetDeviceInfos()
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		items = append(items, map[string]interface{}{
			"id":           int(info.ID),
			"name":         info.Name,
			"type":         info.Type,
			"location":     info.Location,
			"addressCount": int(info.AddressCount),
		})
	}
	return items, nil
}

func buildDashboard(info dto.DashboardInfo) map[string]interface{} {
	statuses := make([]map[string]interface{}, 0, len(info.StatusBreakdown))
	for _, entry := range info.StatusBreakdown {
		statuses = append(statuses, map[string]interface{}{
			"status": entry.Status,
			"count":  int(entry.Count),
		})
	}

	top := make([]map[string]interface{}, 0, len(info.TopUtilizedSubnets))
	for _, entry := range info.TopUtilizedSubnets {
		top = append(top, map[string]interface{}{
			"subnetId":       int(entry.SubnetID),
			"cidr":           entry.CIDR,
			"label":          entry.Label,
			"allocatedCount": int(entry.AllocatedCount),
			"utilization":    entry.Utilization,
		})
	}

	return map[string]interface{}{
		"totalNamespaces":    int(info.TotalNamespaces),
		"totalSubnets":       int(info.TotalSubnets),
		"totalAddresses":     int(info.TotalAddresses),
		"totalDevices":       int(info.TotalDevices),
		"addressesAddedWeek": int(info.AddressesAddedWeek),
		"statusBreakdown":    statuses,
		"topUtilizedSubnets": top,
	}
}
