package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/db"
	"github.com/eliote-geeks/reveilartist-sub003/helpers"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/eliote-geeks/reveilartist-sub003/monetbil"
	log "github.com/sirupsen/logrus"
)

// MonetbilNotification receives the provider webhook. Apart from a bad
// signature (400) the endpoint always answers 200: the provider retries on
// anything else and a retry storm never fixes a payload problem. Anything
// discarded is logged.
func MonetbilNotification(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	w.StartLogger("MonetbilNotification")

	params, err := parseNotificationBody(r)
	if err != nil {
		w.LogError(err, "failed parsing notification body")
		return
	}

	signature := params["sign"]
	if !monetbil.VerifySign(params, signature, ctx.Config.Monetbil.ServiceSecret) {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "invalid signature")
		return
	}

	reference := params["item_ref"]
	if reference == "" {
		reference = params["payment_ref"]
	}

	payment, err := ctx.DB.GetPaymentByReference(reference)
	if err != nil {
		w.LogError(err, "failed getting payment")
		return
	}

	if payment == nil {
		w.LogWarn(reference, "notification for unknown payment reference")
		return
	}

	target, ok := models.ResolveNotificationStatus(params["status"])
	if !ok {
		w.LogWarn(params["status"], "notification with unknown status")
		return
	}

	if payment.Status == target {
		if target == models.PaymentStatusPending {
			if err := ctx.DB.MergeProviderEcho(payment.ID, params); err != nil {
				w.LogError(err, "failed merging provider echo")
				return
			}
		}
		w.LogInfo(reference, "payment already in notified status")
		return
	}

	if !models.CanTransition(payment.Status, target) {
		w.LogWarn(map[string]string{
			"reference": reference,
			"from":      payment.Status,
			"to":        target,
		}, "discarding notification for settled payment")
		return
	}

	switch target {
	case models.PaymentStatusCompleted:
		transactionID := params["transaction_id"]
		if transactionID == "" {
			transactionID = params["transaction_UUID"]
		}

		if payment.Type == models.PaymentTypeCart {
			_, err = ctx.DB.CompleteCartPayment(payment, transactionID, params)
		} else {
			err = ctx.DB.CompleteSinglePayment(payment, transactionID, params)
		}
		if err != nil {
			if err == db.ErrInvalidTransition {
				w.LogWarn(reference, "payment settled by a concurrent delivery")
				return
			}
			w.LogError(err, "failed completing payment")
			return
		}

		go sendPaymentSuccessEmail(ctx, payment.ID)

	case models.PaymentStatusFailed:
		reason := params["message"]
		if reason == "" {
			reason = params["status"]
		}
		if err := ctx.DB.MarkPaymentFailed(payment.ID, reason, params); err != nil {
			if err == db.ErrInvalidTransition {
				w.LogWarn(reference, "payment settled by a concurrent delivery")
				return
			}
			w.LogError(err, "failed marking payment failed")
			return
		}

	case models.PaymentStatusCancelled:
		if err := ctx.DB.MarkPaymentCancelled(payment.ID, params); err != nil {
			if err == db.ErrInvalidTransition {
				w.LogWarn(reference, "payment settled by a concurrent delivery")
				return
			}
			w.LogError(err, "failed marking payment cancelled")
			return
		}
	}

	w.LogInfo(reference, "notification processed")
}

// parseNotificationBody accepts either the JSON or the form encoding the
// provider uses, flattened to string values so the payload can be verified
// exactly as signed.
func parseNotificationBody(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		decoder := json.NewDecoder(r.Body)
		// Numbers keep their literal form ("1000.00" stays "1000.00"), the
		// signature was computed over the exact text the provider sent.
		decoder.UseNumber()
		var raw map[string]interface{}
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch value := v.(type) {
			case string:
				params[k] = value
			case json.Number:
				params[k] = value.String()
			case bool:
				params[k] = fmt.Sprintf("%t", value)
			case nil:
			default:
				encoded, err := json.Marshal(value)
				if err != nil {
					return nil, err
				}
				params[k] = string(encoded)
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, values := range r.PostForm {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}
	return params, nil
}

// sendPaymentSuccessEmail mails the buyer a receipt once a payment has
// completed, with the entry ticket attached for event purchases. Runs in
// the background; failures are logged, the payment stays completed.
func sendPaymentSuccessEmail(ctx *config.AppContext, paymentID int) {
	logger := config.GetLogger()

	payment, err := ctx.DB.GetPaymentByID(paymentID)
	if err != nil || payment == nil {
		logger.WithFields(log.Fields{"payment_id": paymentID, "error": err}).Error("failed getting payment for receipt")
		return
	}

	email := helpers.EmailData{
		EmailTo:      payment.User.Email,
		NameTo:       fmt.Sprintf("%s %s", payment.User.Firstname, payment.User.Lastname),
		EmailFrom:    ctx.Config.Mail.EmailFrom,
		NameFrom:     ctx.Config.Mail.NameFrom,
		Subject:      ctx.Config.Mail.PaymentSuccess.Subject,
		TemplatePath: fmt.Sprintf("%s%s%s", ctx.Config.Mail.Path, ctx.Config.Mail.Folder, ctx.Config.Mail.PaymentSuccess.Template),
		AwsSMTP:      ctx.AwsSMTP,
	}

	if payment.Type == models.PaymentTypeTicket {
		event, err := ctx.DB.GetEventByID(payment.ProductID)
		if err != nil || event == nil {
			logger.WithFields(log.Fields{"payment_id": paymentID, "error": err}).Error("failed getting event for ticket")
		} else {
			ticket, err := helpers.GenerateTicketPDF(payment, event, payment.User)
			if err != nil {
				logger.WithFields(log.Fields{"payment_id": paymentID, "error": err}).Error("failed generating ticket pdf")
			} else {
				key := fmt.Sprintf("%s/%s.pdf", ctx.Config.AwsS3.S3PathTicket, payment.Reference)
				if _, err := helpers.AddFileToS3(ctx, ticket, key); err != nil {
					logger.WithFields(log.Fields{"payment_id": paymentID, "error": err}).Error("failed uploading ticket pdf")
				}
				email.FileName = ctx.Config.Mail.PaymentSuccess.FileName
				email.FileContent = ticket.Bytes()
			}
		}
	}

	if err := email.SendEmail(models.PaymentHTML{
		ID:        payment.ID,
		Firstname: payment.User.Firstname,
		Lastname:  payment.User.Lastname,
		Amount:    payment.Amount,
		Reference: payment.Reference,
	}); err != nil {
		logger.WithFields(log.Fields{"payment_id": paymentID, "error": err}).Error("failed sending receipt email")
	}
}
