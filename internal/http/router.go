package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Entry      http.HandlerFunc
	Exit       http.HandlerFunc
	Status     http.HandlerFunc
	Feed       http.HandlerFunc
	Recent     http.HandlerFunc
	Active     http.HandlerFunc
	History    http.HandlerFunc

	SlotsList      http.HandlerFunc
	SlotsAvailable http.HandlerFunc
	SlotsStats     http.HandlerFunc
	SlotCreate     http.HandlerFunc
	SlotUpdate     http.HandlerFunc
	SlotDelete     http.HandlerFunc

	PaymentsList     http.HandlerFunc
	PaymentsStats    http.HandlerFunc
	PaymentBySession http.HandlerFunc

	FinesList  http.HandlerFunc
	FineCreate http.HandlerFunc
	FinesStats http.HandlerFunc

	VehiclesList http.HandlerFunc
	VehicleGet   http.HandlerFunc

	Health http.HandlerFunc
}

// Admin guards mutating provisioning/reporting endpoints.
type Admin func(http.HandlerFunc) http.HandlerFunc

// NewRouter registers endpoints. admin wraps the endpoints that require an
// operator token; pass an identity function to leave them open.
func NewRouter(routes Routes, admin Admin) http.Handler {
	if admin == nil {
		admin = func(h http.HandlerFunc) http.HandlerFunc { return h }
	}

	mux := http.NewServeMux()

	mux.Handle("/parking/entry", method(http.MethodPost, routes.Entry))
	mux.Handle("/parking/exit", method(http.MethodPost, routes.Exit))
	mux.Handle("/parking/status/", method(http.MethodGet, routes.Status))
	mux.Handle("/parking/feed", method(http.MethodGet, routes.Feed))
	mux.Handle("/parking", method(http.MethodGet, routes.Recent))
	mux.Handle("/parking/active", method(http.MethodGet, routes.Active))
	mux.Handle("/parking/history/", method(http.MethodGet, routes.History))

	mux.Handle("/slots", methods(map[string]http.HandlerFunc{
		http.MethodGet:  routes.SlotsList,
		http.MethodPost: admin(routes.SlotCreate),
	}))
	mux.Handle("/slots/available", method(http.MethodGet, routes.SlotsAvailable))
	mux.Handle("/slots/stats", method(http.MethodGet, routes.SlotsStats))
	mux.Handle("/slots/", methods(map[string]http.HandlerFunc{
		http.MethodPut:    admin(routes.SlotUpdate),
		http.MethodDelete: admin(routes.SlotDelete),
	}))

	mux.Handle("/payments", method(http.MethodGet, routes.PaymentsList))
	mux.Handle("/payments/stats", method(http.MethodGet, routes.PaymentsStats))
	mux.Handle("/payments/record/", method(http.MethodGet, routes.PaymentBySession))

	mux.Handle("/fines", methods(map[string]http.HandlerFunc{
		http.MethodGet:  routes.FinesList,
		http.MethodPost: admin(routes.FineCreate),
	}))
	mux.Handle("/fines/stats", method(http.MethodGet, routes.FinesStats))

	mux.Handle("/vehicles", method(http.MethodGet, routes.VehiclesList))
	mux.Handle("/vehicles/", method(http.MethodGet, routes.VehicleGet))

	mux.Handle("/health", method(http.MethodGet, routes.Health))

	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil || r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := byMethod[r.Method]; ok && handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
