// Package ledger loads the hotel's internal booking spreadsheet into row
// records for reconciliation.
package ledger

import (
	"strconv"
	"strings"
)

// Vendor identifies which OTA a booking came through
type Vendor string

const (
	VendorAgoda   Vendor = "agoda"
	VendorBooking Vendor = "booking"
	VendorExpedia Vendor = "expedia"
	VendorOther   Vendor = "other"
)

// Row is one internal booking line.
// Prices keep an explicit presence flag: an absent or unparseable price is
// "cannot compare", never zero.
type Row struct {
	Index     int    // 1-based spreadsheet row; data starts at row 2
	Vendor    Vendor
	Guest     string
	Reference string // OTA reservation reference, vendor-specific format

	RoomPrice     float64
	HasRoomPrice  bool
	TotalPrice    float64
	HasTotalPrice bool
}

// ComparePrice resolves the price used for matching: the total when present
// and non-zero, otherwise the room price. ok is false when neither side
// yields a usable number.
func (r Row) ComparePrice() (float64, bool) {
	if r.HasTotalPrice && r.TotalPrice != 0 {
		return r.TotalPrice, true
	}
	if r.HasRoomPrice {
		return r.RoomPrice, true
	}
	if r.HasTotalPrice {
		return r.TotalPrice, true
	}
	return 0, false
}

// Columns holds resolved 0-based column indexes; -1 means the header
// keyword did not match any column.
type Columns struct {
	Guest     int
	Room      int
	Total     int
	Vendor    int
	Reference int
}

// ResolveColumn returns the index of the first header containing keyword,
// or -1 when absent. First match wins; the spreadsheet headers are an
// external, semi-stable contract, so substring matching is deliberate.
func ResolveColumn(headers []string, keyword string) int {
	if keyword == "" {
		return -1
	}
	for i, h := range headers {
		if strings.Contains(h, keyword) {
			return i
		}
	}
	return -1
}

// ParsePrice parses a spreadsheet price cell, tolerating thousands
// separators and surrounding whitespace. ok is false for anything that is
// not a number.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
