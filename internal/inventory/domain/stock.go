package domain

// StockStatus is the threshold classification of an item's quantity
type StockStatus string

// Stock statuses
const (
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusInStock    StockStatus = "in_stock"
	StatusOverstock  StockStatus = "overstock"
)

// ClassifyStock maps a quantity and its thresholds to exactly one status.
// Rules apply in order, so out-of-stock and low-stock win even when
// minThreshold is above maxThreshold.
func ClassifyStock(quantity, minThreshold, maxThreshold int) StockStatus {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= minThreshold:
		return StatusLowStock
	case quantity >= maxThreshold:
		return StatusOverstock
	default:
		return StatusInStock
	}
}

// Valid reports whether s is one of the known statuses
func (s StockStatus) Valid() bool {
	switch s {
	case StatusOutOfStock, StatusLowStock, StatusInStock, StatusOverstock:
		return true
	}
	return false
}
