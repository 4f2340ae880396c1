package api

import (
	"net/http"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.String(http.StatusOK, "OK")
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/healthcheck", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler, IsProtected: false},

		// Auth
		{Path: "/auth/login", Methods: []string{"POST", "HEAD"}, Handler: Login, IsProtected: false},
		{Path: "/auth/password", Methods: []string{"PUT", "HEAD"}, Handler: UpdateUserPassword, IsProtected: false},
		{Path: "/auth/token", Methods: []string{"POST", "HEAD"}, Handler: SendRememberToken, IsProtected: false},

		// User
		{Path: "/user", Methods: []string{"POST", "HEAD"}, Handler: InsertUser, IsProtected: false},
		{Path: "/user", Methods: []string{"GET", "HEAD"}, Handler: GetUsers, IsProtected: true},

		// Sound
		{Path: "/sound", Methods: []string{"POST", "HEAD"}, Handler: InsertSound, IsProtected: true},
		{Path: "/sound", Methods: []string{"GET", "HEAD"}, Handler: GetSounds, IsProtected: false},

		// Event
		{Path: "/event", Methods: []string{"POST", "HEAD"}, Handler: InsertEvent, IsProtected: true},
		{Path: "/event", Methods: []string{"GET", "HEAD"}, Handler: GetEvents, IsProtected: false},

		// Payment
		{Path: "/payment/sound/{sound_id}", Methods: []string{"POST", "HEAD"}, Handler: InsertSoundPayment, IsProtected: true},
		{Path: "/payment/event/{event_id}", Methods: []string{"POST", "HEAD"}, Handler: InsertEventPayment, IsProtected: true},
		{Path: "/payment/cart", Methods: []string{"POST", "HEAD"}, Handler: InsertCartPayment, IsProtected: true},
		{Path: "/payment/notify", Methods: []string{"POST", "HEAD"}, Handler: MonetbilNotification, IsProtected: false},
		{Path: "/payment/export", Methods: []string{"GET", "HEAD"}, Handler: ExportPayments, IsProtected: true},
		{Path: "/payment/{reference}/status", Methods: []string{"GET", "HEAD"}, Handler: GetPaymentStatus, IsProtected: true},
		{Path: "/payment/{payment_id}/complete", Methods: []string{"PUT", "HEAD"}, Handler: CompletePayment, IsProtected: true},
		{Path: "/payment/{payment_id}/refund", Methods: []string{"PUT", "HEAD"}, Handler: RefundPayment, IsProtected: true},
		{Path: "/payment", Methods: []string{"GET", "HEAD"}, Handler: GetPayments, IsProtected: true},

		// Commission settings
		{Path: "/commission", Methods: []string{"PUT", "HEAD"}, Handler: UpdateCommissionRate, IsProtected: true},
		{Path: "/commission", Methods: []string{"GET", "HEAD"}, Handler: GetCommissionRates, IsProtected: true},
	}
}
