// services/api-gateway/admin/admin.go
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/checkout-reconciler/internal/store"
	perr "github.com/example/checkout-reconciler/pkg/errors"
)

// OrdersHandler seeds order records for demos and out-of-band updates, the
// same write a webhook would make. It accepts a JSON array of orders or,
// with Content-Type text/csv, an id,status,gateway_payment_id CSV.
func OrdersHandler(st store.Upserter, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
			n, err := store.LoadCSV(r.Context(), r.Body, st)
			if err != nil {
				logger.Warn("csv seed failed", "loaded", n, "error", err)
				writeJSON(w, http.StatusBadRequest, map[string]any{"code": perr.CodeInvalidInput, "reason": "bad_csv", "upserted": n})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"upserted": n})
			return
		}

		var in []store.OrderRecord
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": perr.CodeInvalidInput, "reason": "bad_json"})
			return
		}
		for i := range in {
			if in[i].ID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"code": perr.CodeInvalidInput, "reason": "missing_id", "index": i})
				return
			}
		}

		for i := range in {
			if err := st.UpsertOrder(r.Context(), &in[i]); err != nil {
				logger.Error("order upsert failed", "order_id", in[i].ID, "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"code": perr.CodeOf(err), "reason": "store_error", "upserted": i})
				return
			}
		}
		logger.Info("orders seeded", "count", len(in))
		writeJSON(w, http.StatusOK, map[string]any{"upserted": len(in)})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
