// checkout-reconciler/tools/cmd/dummygen/main.go
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// statuses is weighted toward PENDING, like a real checkout backlog, and
// includes raw gateway spellings so seeding exercises the normalizer.
var statuses = []string{
	"PENDING", "PENDING", "PENDING", "PENDING",
	"OVERDUE", "CONFIRMED", "RECEIVED", "DECLINED", "FAILED", "CANCELED", "REFUNDED",
}

func main() {
	n := flag.Int("n", 100, "number of orders (without header)")
	out := flag.String("out", "testdata/orders.csv", "output CSV path")
	placeholders := flag.Float64("placeholders", 0.2, "share of orders whose gateway id is still a temp_ placeholder")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if err := generate(f, *n, *placeholders, rng); err != nil {
		log.Fatal(err)
	}
	log.Printf("generated %s (%d rows + header)", *out, *n)
}

func generate(w io.Writer, n int, placeholderShare float64, rng *rand.Rand) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "status", "gateway_payment_id"}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		gw := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		if rng.Float64() < placeholderShare {
			gw = "temp_" + uuid.NewString()[:8]
		}
		row := []string{
			fmt.Sprintf("ORD-%06d", i+1),
			statuses[rng.Intn(len(statuses))],
			gw,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
