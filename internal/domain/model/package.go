package model

// Package is a purchasable subscription package. Read-only to this core.
type Package struct {
	ID       int64
	Title    string
	PriceUAH float64
}
