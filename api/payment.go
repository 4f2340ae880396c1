package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/db"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/eliote-geeks/reveilartist-sub003/monetbil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	shortuuid "github.com/lithammer/shortuuid/v3"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

func InsertSoundPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	vars := mux.Vars(r)
	soundID, err := strconv.Atoi(vars["sound_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing sound id")
		return
	}

	var opts models.InsertSinglePaymentOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertSinglePaymentRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	sound, err := ctx.DB.GetSoundByID(soundID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting sound")
		return
	}

	if sound == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.SoundNotFound)
		return
	}

	response, err := initiatePayment(ctx, &userInfo, &db.InsertPaymentOpts{
		Type:      models.PaymentTypeSound,
		ProductID: sound.ID,
		SellerID:  sound.User.ID,
		Amount:    sound.Price,
	}, opts.Phone)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed initiating payment")
		return
	}

	w.WriteJSON(http.StatusOK, response, nil, "")
}

func InsertEventPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	vars := mux.Vars(r)
	eventID, err := strconv.Atoi(vars["event_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing event id")
		return
	}

	var opts models.InsertSinglePaymentOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertSinglePaymentRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	event, err := ctx.DB.GetEventByID(eventID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting event")
		return
	}

	if event == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.EventNotFound)
		return
	}

	response, err := initiatePayment(ctx, &userInfo, &db.InsertPaymentOpts{
		Type:      models.PaymentTypeTicket,
		ProductID: event.ID,
		SellerID:  event.User.ID,
		Amount:    event.TicketPrice,
	}, opts.Phone)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed initiating payment")
		return
	}

	w.WriteJSON(http.StatusOK, response, nil, "")
}

func InsertCartPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsClient {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	var opts models.InsertCartPaymentOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertCartPaymentRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	if len(opts.Items) == 0 {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "empty cart")
		return
	}

	subtotal := decimal.Zero
	for _, item := range opts.Items {
		if item.Type != models.PaymentTypeSound && item.Type != models.PaymentTypeTicket {
			w.WriteJSON(http.StatusBadRequest, nil, nil, fmt.Sprintf("unknown item type %q", item.Type))
			return
		}
		if item.Quantity <= 0 || item.Price < 0 {
			w.WriteJSON(http.StatusBadRequest, nil, nil, "invalid item quantity or price")
			return
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.NewFromFloat(opts.Discount)
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "invalid discount")
		return
	}

	total := subtotal.Sub(discount).Round(2)

	response, err := initiatePayment(ctx, &userInfo, &db.InsertPaymentOpts{
		Type:   models.PaymentTypeCart,
		Amount: total.InexactFloat64(),
		Metadata: &models.PaymentMetadata{
			CartItems: opts.Items,
			Subtotal:  subtotal.Round(2).InexactFloat64(),
			Discount:  discount.Round(2).InexactFloat64(),
		},
	}, opts.Phone)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed initiating payment")
		return
	}

	w.WriteJSON(http.StatusOK, response, nil, "")
}

// initiatePayment persists a pending payment and builds the widget redirect
// URL for it. Single-item payments carry their commission split up front;
// cart parents are split at fan-out time.
func initiatePayment(ctx *config.AppContext, userInfo *models.InfoUser, opts *db.InsertPaymentOpts, phone string) (*models.CheckoutResponse, error) {
	if opts.Type != models.PaymentTypeCart {
		rates, err := ctx.DB.GetCommissionRates()
		if err != nil {
			return nil, err
		}
		split := models.CalculateCommission(opts.Amount, rates[opts.Type])
		opts.CommissionRate = split.Rate
		opts.CommissionAmount = split.CommissionAmount
		opts.SellerAmount = split.SellerAmount
	}

	opts.Reference = shortuuid.New()
	opts.UserID = userInfo.ID
	opts.Status = models.PaymentStatusPending

	if _, err := ctx.DB.InsertPayment(opts); err != nil {
		return nil, err
	}

	user, err := ctx.DB.GetUserByID(userInfo.ID)
	if err != nil {
		return nil, err
	}

	params := monetbil.CheckoutParams{
		Amount:     opts.Amount,
		Phone:      monetbil.NormalizePhone(phone),
		ItemRef:    opts.Reference,
		PaymentRef: opts.Reference,
		ReturnURL:  fmt.Sprintf("%s/payment/return", ctx.Config.FrontBaseURL),
		NotifyURL:  fmt.Sprintf("%s/payment/notify", ctx.Config.BackendBaseURL),
		CancelURL:  fmt.Sprintf("%s/payment/cancel", ctx.Config.FrontBaseURL),
	}
	if user != nil {
		params.Firstname = user.Firstname
		params.Lastname = user.Lastname
		params.Email = user.Email
	}

	return &models.CheckoutResponse{
		Reference:   opts.Reference,
		PaymentURL:  ctx.Monetbil.BuildCheckoutURL(params),
		Amount:      opts.Amount,
		PaymentType: opts.Type,
	}, nil
}

// GetPaymentStatus polls the provider for a payment reference. Transport or
// parse failures surface as status "unknown", never as "failed".
func GetPaymentStatus(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reference := vars["reference"]

	payment, err := ctx.DB.GetPaymentByReference(reference)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting payment")
		return
	}

	if payment == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.PaymentNotFound)
		return
	}

	response, err := ctx.Monetbil.CheckPayment(reference)
	if err != nil {
		w.WriteJSON(http.StatusOK, map[string]interface{}{
			"reference": reference,
			"status":    "unknown",
		}, nil, "")
		return
	}

	status := "unknown"
	if response.Transaction != nil {
		status = response.Transaction.Status
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{
		"reference": reference,
		"status":    status,
		"provider":  response,
	}, nil, "")
}

// CompletePayment is the administrative equivalent of a success webhook:
// the payment moves to completed with the same counter and fan-out side
// effects.
func CompletePayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	vars := mux.Vars(r)
	paymentID, err := strconv.Atoi(vars["payment_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing payment id")
		return
	}

	payment, err := ctx.DB.GetPaymentByID(paymentID)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting payment")
		return
	}

	if payment == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.PaymentNotFound)
		return
	}

	if !models.CanTransition(payment.Status, models.PaymentStatusCompleted) {
		w.Write(http.StatusBadRequest, nil, nil, middlewares.Responses.InvalidTransition)
		return
	}

	transactionID := fmt.Sprintf("admin-%s", uuid.New().String())
	if payment.Type == models.PaymentTypeCart {
		_, err = ctx.DB.CompleteCartPayment(payment, transactionID, nil)
	} else {
		err = ctx.DB.CompleteSinglePayment(payment, transactionID, nil)
	}
	if err != nil {
		if err == db.ErrInvalidTransition {
			w.Write(http.StatusBadRequest, nil, err, middlewares.Responses.InvalidTransition)
			return
		}
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed completing payment")
		return
	}

	go sendPaymentSuccessEmail(ctx, payment.ID)

	w.WriteJSON(http.StatusOK, map[string]interface{}{"completed": true}, nil, "")
}

func RefundPayment(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	vars := mux.Vars(r)
	paymentID, err := strconv.Atoi(vars["payment_id"])
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing payment id")
		return
	}

	if err := ctx.DB.RefundPayment(paymentID); err != nil {
		if err == db.ErrInvalidTransition {
			w.Write(http.StatusBadRequest, nil, err, middlewares.Responses.InvalidTransition)
			return
		}
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed refunding payment")
		return
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{"refunded": true}, nil, "")
}

func GetPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetPaymentsRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	var opts models.GetPaymentsOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&opts, r.URL.Query()); err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed decoding query params")
		return
	}

	// Artists only see their own sales, clients their own purchases.
	if !userInfo.IsAdmin {
		if userInfo.IsArtist {
			opts.SellerIDs = []int{userInfo.ID}
		} else {
			opts.UserIDs = []int{userInfo.ID}
		}
	}

	payments, err := ctx.DB.GetPayments(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting payments")
		return
	}

	w.WriteJSON(http.StatusOK, payments, nil, "")
}

func ExportPayments(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	var opts models.GetPaymentsOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&opts, r.URL.Query()); err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed decoding query params")
		return
	}

	payments, err := ctx.DB.GetPayments(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting payments")
		return
	}

	w.Writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Writer.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)

	writer := csv.NewWriter(w.Writer)
	writer.Write([]string{"id", "reference", "type", "status", "buyer", "seller", "amount", "commission_rate", "commission_amount", "seller_amount", "created"})
	for _, payment := range payments.Payments {
		seller := ""
		if payment.Seller != nil {
			seller = payment.Seller.Email
		}
		writer.Write([]string{
			strconv.Itoa(payment.ID),
			payment.Reference,
			payment.Type,
			payment.Status,
			payment.User.Email,
			seller,
			strconv.FormatFloat(payment.Amount, 'f', 2, 64),
			strconv.FormatFloat(payment.CommissionRate, 'f', 2, 64),
			strconv.FormatFloat(payment.CommissionAmount, 'f', 2, 64),
			strconv.FormatFloat(payment.SellerAmount, 'f', 2, 64),
			payment.Created.Format(db.ConstLayoutDateTime),
		})
	}
	writer.Flush()
}

type UpdateCommissionRateOpts struct {
	ProductType string  `json:"product_type"`
	Rate        float64 `json:"rate"`
}

var updateCommissionRateRules = govalidator.MapData{
	"product_type": []string{"required", "in:sound,ticket"},
	"rate":         []string{"required", "float", "min:0", "max:100"},
}

func UpdateCommissionRate(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	var opts UpdateCommissionRateOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   updateCommissionRateRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	if err := ctx.DB.UpdateCommissionRate(opts.ProductType, opts.Rate); err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed updating commission rate")
		return
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{"updated": true}, nil, "")
}

func GetCommissionRates(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	rates, err := ctx.DB.GetCommissionRates()
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting commission rates")
		return
	}

	w.WriteJSON(http.StatusOK, rates, nil, "")
}
