package domain

// InventoryItem is a stock row sourced from the shared spreadsheet.
type InventoryItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TotalQty     string `json:"total_qty"`
	AvailableQty string `json:"available_qty"`
	RequestType  string `json:"request_type"`
}

// StockLinkPath holds the published spreadsheet URL.
const StockLinkPath = "components/stockLink"

// RoleDirectoryPath holds the role buckets.
const RoleDirectoryPath = "users/role"
