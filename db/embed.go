// Package db provides the embedded database schema and the default catalog.
package db

import _ "embed"

// Schema contains the DDL statements for the snapshot table.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the catalog a fresh shop starts with, as a JSON array.
//
//go:embed seed/products.json
var SeedProducts []byte

// SeedMarketRates is the mandi rate board a fresh shop starts with, as a JSON
// array without dates.
//
//go:embed seed/market_rates.json
var SeedMarketRates []byte
