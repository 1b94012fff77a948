package handlers

import (
	"net/http"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/pkg/funds"

	"github.com/gorilla/mux"
)

// API builds the handler tree for the daemon. Approving the payment spend is
// the buyer's consent; every mutating route names the caller through the
// X-Identity header set by the upstream gateway.
func API(m *market.Market, payments *funds.Ledger, masterDB *db.DB,
	isTest bool) http.Handler {

	r := mux.NewRouter()

	records := Records{Market: m}
	r.HandleFunc("/records", records.Create).Methods("POST")
	r.HandleFunc("/records", records.List).Methods("GET")
	r.HandleFunc("/records/next", records.NextID).Methods("GET")
	r.HandleFunc("/records/{id:[0-9]+}", records.Get).Methods("GET")
	r.HandleFunc("/records/{id:[0-9]+}/owner", records.CheckOwner).Methods("GET")
	r.HandleFunc("/records/{id:[0-9]+}/list", records.ListForSale).Methods("POST")
	r.HandleFunc("/records/{id:[0-9]+}/buy", records.Buy).Methods("POST")

	admin := Admin{Market: m}
	r.HandleFunc("/fees", admin.FeeConfig).Methods("GET")
	r.HandleFunc("/fees/percentage", admin.SetFeePercentage).Methods("POST")
	r.HandleFunc("/fees/recipient", admin.SetFeeRecipient).Methods("POST")
	r.HandleFunc("/admin/nominate", admin.Nominate).Methods("POST")
	r.HandleFunc("/admin/accept", admin.Accept).Methods("POST")
	r.HandleFunc("/admin/migrate", admin.Migrate).Methods("POST")

	money := Funds{Payments: payments}
	r.HandleFunc("/funds/{address}", money.Balance).Methods("GET")
	if isTest {
		r.HandleFunc("/funds/credit", money.Credit).Methods("POST")
		r.HandleFunc("/funds/approve", money.Approve).Methods("POST")
	}

	health := Health{MasterDB: masterDB}
	r.HandleFunc("/health", health.Check).Methods("GET")

	return r
}
