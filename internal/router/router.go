package router

import (
	"net/http"

	"market/internal/controller"
)

func NewRouter(c *controller.Controller) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", c.Ping)

	mux.HandleFunc("POST /api/users/new", c.NewUser)
	mux.HandleFunc("GET /api/users/{userId}", c.GetUser)

	mux.HandleFunc("POST /api/products/new", c.NewProduct)
	mux.HandleFunc("GET /api/products/supplier/{supplierId}", c.SupplierProducts)

	mux.HandleFunc("POST /api/requests/new", c.NewRequest)
	mux.HandleFunc("GET /api/requests", c.GetRequests)
	mux.HandleFunc("GET /api/requests/open/{supplierId}", c.OpenRequests)
	mux.HandleFunc("GET /api/requests/{requestId}", c.GetRequest)
	mux.HandleFunc("PATCH /api/requests/{requestId}/edit", c.EditRequest)
	mux.HandleFunc("PUT /api/requests/{requestId}/close", c.CloseRequest)

	mux.HandleFunc("POST /api/offers/new", c.NewOffer)
	mux.HandleFunc("POST /api/offers/take", c.TakeRequest)
	mux.HandleFunc("GET /api/offers/request/{requestId}", c.RequestOffers)
	mux.HandleFunc("GET /api/offers/my", c.MyOffers)
	mux.HandleFunc("PUT /api/offers/{offerId}/respond", c.RespondToOffer)

	mux.HandleFunc("GET /api/orders/active", c.ActiveOrders)
	mux.HandleFunc("GET /api/orders/history", c.OrderHistory)
	mux.HandleFunc("PUT /api/orders/{orderId}/advance", c.AdvanceOrder)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	cors := http.NewServeMux()
	cors.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Accept", "*/*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
		} else {
			mux.ServeHTTP(w, r)
		}
	})

	return cors
}
