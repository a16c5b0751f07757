package hierarchy_test

import "github.com/aretw0/teamboard/pkg/domain"

// fixtureForest builds a small taxonomy with parent links wired up.
//
//	finance-management (1, enabling)
//	  taxes (2)
//	    tax-compliance (3)  "regulations"
//	    tax-planning (3)
//	  treasury (2)
//	    cash-management (3)
//	customer-management (1, core)
//	  customer-service (2)
//	    complaint-handling (3)
//	  sales (2)
func fixtureForest() []*domain.CapabilityNode {
	forest := []*domain.CapabilityNode{
		{
			ID: "finance-management", Name: "Finance Management", Category: domain.CategoryEnabling, Domain: "Finance",
			Children: []*domain.CapabilityNode{
				{
					ID: "taxes", Name: "Taxes", Domain: "Finance",
					Children: []*domain.CapabilityNode{
						{ID: "tax-compliance", Name: "Tax Compliance", Domain: "Finance", Description: "Adhering to tax laws and regulations"},
						{ID: "tax-planning", Name: "Tax Planning", Domain: "Finance", Description: "Optimising the tax position"},
					},
				},
				{
					ID: "treasury", Name: "Treasury", Domain: "Finance",
					Children: []*domain.CapabilityNode{
						{ID: "cash-management", Name: "Cash Management", Domain: "Finance", Description: "Daily liquidity"},
					},
				},
			},
		},
		{
			ID: "customer-management", Name: "Customer Management", Category: domain.CategoryCore, Domain: "Customer",
			Children: []*domain.CapabilityNode{
				{
					ID: "customer-service", Name: "Customer Service", Domain: "Customer",
					Children: []*domain.CapabilityNode{
						{ID: "complaint-handling", Name: "Complaint Handling", Domain: "Customer", Description: "Resolving complaints"},
					},
				},
				{ID: "sales", Name: "Sales", Domain: "Customer", Description: "Selling to customers"},
			},
		},
	}
	link(forest, "", 1, "")
	return forest
}

func link(nodes []*domain.CapabilityNode, parentID string, level int, category domain.Category) {
	for _, n := range nodes {
		n.ParentID = parentID
		n.Level = level
		if category != "" {
			n.Category = category
		}
		link(n.Children, n.ID, level+1, n.Category)
	}
}

func ids(nodes []*domain.CapabilityNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
