package entity

// Inventory is the single shared stock counter for the bundle
type Inventory struct {
	ProductId         string `json:"product_id" bson:"product_id" validate:"required"`
	Sku               string `json:"sku" bson:"sku"`
	Name              string `json:"name" bson:"name"`
	QuantityAvailable int    `json:"quantity_available" bson:"quantity_available"`
}

func (i *Inventory) InStock() bool {
	return i.QuantityAvailable > 0
}

// Reservation is the outcome of a check-and-decrement on the counter.
// Remaining is the post-decrement value when Reserved is true.
type Reservation struct {
	Reserved  bool `json:"reserved"`
	Remaining int  `json:"remaining"`
}

// StockReport is the operator view of the campaign
type StockReport struct {
	ProductId string `json:"product_id"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Orders    int64  `json:"orders"`
}
