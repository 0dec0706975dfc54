package models

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&Customer{},
		&Table{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Payment{},
		&UnpaidEntry{},
		&DBChange{},
	}
}
