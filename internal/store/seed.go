package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Upserter is the write side used by seeding.
type Upserter interface {
	UpsertOrder(ctx context.Context, o *OrderRecord) error
}

// LoadCSV upserts orders from a CSV with a header row containing at least
// "id" and "status"; "gateway_payment_id" is optional. It returns the number
// of orders written.
func LoadCSV(ctx context.Context, r io.Reader, dst Upserter) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idCol, okID := cols["id"]
	statusCol, okStatus := cols["status"]
	if !okID || !okStatus {
		return 0, fmt.Errorf("csv header must contain id and status, got %v", header)
	}
	gwCol, hasGW := cols["gateway_payment_id"]

	n := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read row %d: %w", n+1, err)
		}
		o := &OrderRecord{ID: rec[idCol], Status: rec[statusCol]}
		if hasGW && gwCol < len(rec) {
			o.GatewayPaymentID = rec[gwCol]
		}
		if o.ID == "" {
			continue
		}
		if err := dst.UpsertOrder(ctx, o); err != nil {
			return n, err
		}
		n++
	}
}
