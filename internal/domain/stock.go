package domain

import "time"

// StockRecord is the perishable-inventory row for one catalog item.
// Available is always the boolean (Quantity > 0); the two fields change
// together in a single write, never independently.
type StockRecord struct {
	ItemID    string
	Name      string
	Quantity  int
	Available bool
	UpdatedAt time.Time
}

// ApplyDelta computes the post-adjustment quantity and availability for a
// stock record. Quantity floors at zero; availability is recomputed from the
// new quantity, never carried over.
func ApplyDelta(quantity, delta int) (newQuantity int, available bool) {
	newQuantity = quantity + delta
	if newQuantity < 0 {
		newQuantity = 0
	}
	return newQuantity, newQuantity > 0
}
