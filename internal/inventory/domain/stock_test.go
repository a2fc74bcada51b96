package domain

import "testing"

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		min      int
		max      int
		want     StockStatus
	}{
		{"empty", 0, 5, 100, StatusOutOfStock},
		{"at minimum", 5, 5, 100, StatusLowStock},
		{"healthy", 50, 5, 100, StatusInStock},
		{"at maximum", 100, 5, 100, StatusOverstock},
		{"above maximum", 150, 5, 100, StatusOverstock},
		{"negative guards to out of stock", -1, 5, 100, StatusOutOfStock},
		{"min above max prefers low stock", 8, 10, 5, StatusLowStock},
		{"min above max above both", 12, 10, 5, StatusOverstock},
		{"zero thresholds", 1, 0, 0, StatusOverstock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStock(tt.quantity, tt.min, tt.max); got != tt.want {
				t.Errorf("ClassifyStock(%d, %d, %d) = %s, want %s", tt.quantity, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestStockStatusValid(t *testing.T) {
	for _, s := range []StockStatus{StatusOutOfStock, StatusLowStock, StatusInStock, StatusOverstock} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if StockStatus("empty").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}
