package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	shortuuid "github.com/lithammer/shortuuid/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned when a status mutation is attempted
// against a payment that is no longer in the expected status.
var ErrInvalidTransition = errors.New("invalid payment status transition")

const mysqlErrDuplicateEntry = 1062

type PaymentStorage interface {
	InsertPayment(opts *InsertPaymentOpts) (int, error)
	GetPaymentByID(paymentID int) (*models.Payment, error)
	GetPaymentByReference(reference string) (*models.Payment, error)
	GetPayments(opts *models.GetPaymentsOpts) (*models.PaymentsStruct, error)
	GetCommissionRates() (map[string]float64, error)
	UpdateCommissionRate(productType string, rate float64) error
	MergeProviderEcho(paymentID int, echo map[string]string) error
	MarkPaymentFailed(paymentID int, reason string, echo map[string]string) error
	MarkPaymentCancelled(paymentID int, echo map[string]string) error
	CompleteSinglePayment(payment *models.Payment, transactionID string, echo map[string]string) error
	CompleteCartPayment(payment *models.Payment, transactionID string, echo map[string]string) ([]int, error)
	RefundPayment(paymentID int) error
}

type InsertPaymentOpts struct {
	Reference        string
	Type             string
	ProductID        int
	UserID           int
	SellerID         int
	Amount           float64
	CommissionRate   float64
	CommissionAmount float64
	SellerAmount     float64
	Status           string
	TransactionID    string
	Metadata         *models.PaymentMetadata
}

const (
	insertPayment = `
	INSERT
		payment
	SET
		reference = :reference,
		type = :type,
		product_id = :product_id,
		user_id = :user_id,
		seller_id = :seller_id,
		amount = :amount,
		commission_rate = :commission_rate,
		commission_amount = :commission_amount,
		seller_amount = :seller_amount,
		status = :status,
		transaction_id = :transaction_id,
		metadata = :metadata,
		paid_at = :paid_at
	`

	selectPayment = `
	SELECT
		payment.id,
		payment.reference,
		COALESCE(payment.transaction_id, ''),
		payment.type,
		COALESCE(payment.product_id, 0),
		payment.amount,
		payment.commission_rate,
		payment.commission_amount,
		payment.seller_amount,
		payment.status,
		COALESCE(payment.failure_reason, ''),
		COALESCE(payment.metadata, '{}'),
		payment.paid_at,
		payment.created,
		payment.updated,
		user.id,
		user.email,
		user.firstname,
		user.lastname,
		user.phone,
		COALESCE(seller.id, 0),
		COALESCE(seller.email, ''),
		COALESCE(seller.firstname, ''),
		COALESCE(seller.lastname, '')
	FROM
		payment
	INNER JOIN
		user ON (user.id = payment.user_id)
	LEFT JOIN
		user seller ON (seller.id = payment.seller_id)
	`

	getPaymentByID        = selectPayment + ` WHERE payment.active = true AND payment.id = ?`
	getPaymentByReference = selectPayment + ` WHERE payment.active = true AND payment.reference = ?`

	lockPaymentStatus = `
	SELECT
		status
	FROM
		payment
	WHERE
		id = ?
	FOR UPDATE
	`

	insertFanOutLedger = `
	INSERT
		payment_fanout
	SET
		parent_payment_id = :parent_payment_id
	`

	updatePaymentStatusGuarded = `
	UPDATE
		payment
	SET
		status = :status,
		failure_reason = :failure_reason,
		transaction_id = COALESCE(NULLIF(:transaction_id, ''), transaction_id),
		metadata = :metadata,
		paid_at = :paid_at,
		updated = current_timestamp()
	WHERE
		id = :payment_id AND
		status = :expected_status
	`

	updatePaymentMetadata = `
	UPDATE
		payment
	SET
		metadata = :metadata,
		updated = current_timestamp()
	WHERE
		id = :payment_id AND
		status = :expected_status
	`

	getCommissionRates = `
	SELECT
		product_type,
		rate
	FROM
		commission_setting
	`

	upsertCommissionRate = `
	INSERT INTO
		commission_setting (product_type, rate)
	VALUES
		(:product_type, :rate)
	ON DUPLICATE KEY UPDATE
		rate = :rate
	`
)

func marshalMetadata(metadata *models.PaymentMetadata) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", errors.Wrap(err, "failed marshaling payment metadata")
	}
	return string(raw), nil
}

func unmarshalMetadata(raw string) (*models.PaymentMetadata, error) {
	var metadata models.PaymentMetadata
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, errors.Wrap(err, "failed unmarshaling payment metadata")
	}
	return &metadata, nil
}

func (db *DB) InsertPayment(opts *InsertPaymentOpts) (int, error) {
	tx, err := db.NewTx()
	if err != nil {
		return 0, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	id, newErr := db.insertPaymentTx(tx, opts)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return id, nil
}

func (db *DB) insertPaymentTx(tx Tx, opts *InsertPaymentOpts) (int, error) {
	metadata, err := marshalMetadata(opts.Metadata)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareNamed(insertPayment)
	if err != nil {
		return 0, err
	}

	var paidAt interface{}
	if opts.Status == models.PaymentStatusCompleted {
		paidAt = time.Now()
	}

	var sellerID interface{}
	if opts.SellerID > 0 {
		sellerID = opts.SellerID
	}

	var productID interface{}
	if opts.ProductID > 0 {
		productID = opts.ProductID
	}

	result, err := stmt.Exec(map[string]interface{}{
		"reference":         opts.Reference,
		"type":              opts.Type,
		"product_id":        productID,
		"user_id":           opts.UserID,
		"seller_id":         sellerID,
		"amount":            opts.Amount,
		"commission_rate":   opts.CommissionRate,
		"commission_amount": opts.CommissionAmount,
		"seller_amount":     opts.SellerAmount,
		"status":            opts.Status,
		"transaction_id":    opts.TransactionID,
		"metadata":          metadata,
		"paid_at":           paidAt,
	})
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if int(rowsAffected) != 1 {
		return 0, errors.Errorf("expected %d and inserted %d", 1, rowsAffected)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

func (db *DB) GetPaymentByID(paymentID int) (*models.Payment, error) {
	return scanPayment(db.QueryRow(getPaymentByID, paymentID))
}

func (db *DB) GetPaymentByReference(reference string) (*models.Payment, error) {
	return scanPayment(db.QueryRow(getPaymentByReference, reference))
}

func scanPayment(row *sql.Row) (*models.Payment, error) {
	var payment models.Payment
	var user models.User
	var seller models.User
	var rawMetadata string
	var paidAt sql.NullTime

	if err := row.Scan(
		&payment.ID,
		&payment.Reference,
		&payment.TransactionID,
		&payment.Type,
		&payment.ProductID,
		&payment.Amount,
		&payment.CommissionRate,
		&payment.CommissionAmount,
		&payment.SellerAmount,
		&payment.Status,
		&payment.FailureReason,
		&rawMetadata,
		&paidAt,
		&payment.Created,
		&payment.Updated,
		&user.ID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
		&seller.ID,
		&seller.Email,
		&seller.Firstname,
		&seller.Lastname,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	metadata, err := unmarshalMetadata(rawMetadata)
	if err != nil {
		return nil, err
	}

	payment.Metadata = metadata
	payment.User = &user
	if seller.ID > 0 {
		payment.Seller = &seller
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}

	return &payment, nil
}

func (db *DB) GetCommissionRates() (map[string]float64, error) {
	rates := make(map[string]float64, len(ConstDefaultCommissionRates))
	for productType, rate := range ConstDefaultCommissionRates {
		rates[productType] = rate
	}

	rows, err := db.Query(getCommissionRates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var productType string
		var rate float64
		if err := rows.Scan(&productType, &rate); err != nil {
			return nil, err
		}
		rates[productType] = rate
	}

	return rates, rows.Err()
}

func (db *DB) UpdateCommissionRate(productType string, rate float64) error {
	stmt, err := db.PrepareNamed(upsertCommissionRate)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(map[string]interface{}{
		"product_type": productType,
		"rate":         rate,
	})
	return err
}

func mergeEcho(metadata *models.PaymentMetadata, echo map[string]string) *models.PaymentMetadata {
	if metadata == nil {
		metadata = &models.PaymentMetadata{}
	}
	if len(echo) == 0 {
		return metadata
	}
	if metadata.ProviderEcho == nil {
		metadata.ProviderEcho = make(map[string]string, len(echo))
	}
	for k, v := range echo {
		metadata.ProviderEcho[k] = v
	}
	return metadata
}

// MergeProviderEcho stores the latest provider payload on a still-pending
// payment without changing its status. The merge runs under the row lock and
// the update keeps the pending guard, so a stale pending delivery can never
// overwrite the metadata a concurrent completion just wrote (fan-out order
// number and child ids included).
func (db *DB) MergeProviderEcho(paymentID int, echo map[string]string) error {
	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	payment, newErr := db.lockPayment(tx, paymentID)
	if newErr != nil {
		err = newErr
		return err
	}

	if payment.Status != models.PaymentStatusPending {
		// Settled while this delivery was in flight, nothing to record.
		return nil
	}

	metadata, newErr := marshalMetadata(mergeEcho(payment.Metadata, echo))
	if newErr != nil {
		err = newErr
		return err
	}

	stmt, newErr := tx.PrepareNamed(updatePaymentMetadata)
	if newErr != nil {
		err = newErr
		return err
	}

	if _, newErr := stmt.Exec(map[string]interface{}{
		"payment_id":      paymentID,
		"expected_status": models.PaymentStatusPending,
		"metadata":        metadata,
	}); newErr != nil {
		err = newErr
		return err
	}

	return nil
}

func (db *DB) MarkPaymentFailed(paymentID int, reason string, echo map[string]string) error {
	return db.transitionPayment(paymentID, models.PaymentStatusPending, models.PaymentStatusFailed, reason, echo)
}

func (db *DB) MarkPaymentCancelled(paymentID int, echo map[string]string) error {
	return db.transitionPayment(paymentID, models.PaymentStatusPending, models.PaymentStatusCancelled, "", echo)
}

func (db *DB) RefundPayment(paymentID int) error {
	return db.transitionPayment(paymentID, models.PaymentStatusCompleted, models.PaymentStatusRefunded, "", nil)
}

func (db *DB) transitionPayment(paymentID int, expected string, target string, reason string, echo map[string]string) error {
	if !models.CanTransition(expected, target) {
		return ErrInvalidTransition
	}

	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	payment, newErr := db.lockPayment(tx, paymentID)
	if newErr != nil {
		err = newErr
		return err
	}

	newErr = db.updatePaymentStatusTx(tx, payment, expected, target, reason, "", mergeEcho(payment.Metadata, echo), nil)
	if newErr != nil {
		err = newErr
		return err
	}

	return nil
}

// lockPayment takes the row lock serializing concurrent webhook deliveries
// for the same payment, then re-reads the record inside the transaction.
func (db *DB) lockPayment(tx Tx, paymentID int) (*models.Payment, error) {
	var status string
	if err := tx.QueryRow(lockPaymentStatus, paymentID).Scan(&status); err != nil {
		return nil, err
	}

	payment, err := scanPayment(tx.QueryRow(getPaymentByID, paymentID))
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, sql.ErrNoRows
	}
	payment.Status = status

	return payment, nil
}

func (db *DB) updatePaymentStatusTx(tx Tx, payment *models.Payment, expected string, target string, reason string, transactionID string, metadata *models.PaymentMetadata, paidAt *time.Time) error {
	raw, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(updatePaymentStatusGuarded)
	if err != nil {
		return err
	}

	var paidAtArg interface{}
	if paidAt != nil {
		paidAtArg = *paidAt
	} else if payment.PaidAt != nil {
		paidAtArg = *payment.PaidAt
	}

	result, err := stmt.Exec(map[string]interface{}{
		"payment_id":      payment.ID,
		"status":          target,
		"expected_status": expected,
		"failure_reason":  reason,
		"transaction_id":  transactionID,
		"metadata":        raw,
		"paid_at":         paidAtArg,
	})
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return ErrInvalidTransition
	}

	return nil
}

// CompleteSinglePayment moves a pending single-item payment to completed
// and applies the product counter increment in the same transaction.
func (db *DB) CompleteSinglePayment(payment *models.Payment, transactionID string, echo map[string]string) error {
	tx, err := db.NewTx()
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	locked, newErr := db.lockPayment(tx, payment.ID)
	if newErr != nil {
		err = newErr
		return err
	}

	if locked.Status == models.PaymentStatusCompleted {
		// Webhook redelivery, nothing left to do.
		return nil
	}

	now := time.Now()
	newErr = db.updatePaymentStatusTx(tx, locked, models.PaymentStatusPending, models.PaymentStatusCompleted, "", transactionID, mergeEcho(locked.Metadata, echo), &now)
	if newErr != nil {
		err = newErr
		return err
	}

	switch locked.Type {
	case models.PaymentTypeSound:
		newErr = db.incrementSoundDownloadsTx(tx, locked.ProductID, 1)
	case models.PaymentTypeTicket:
		newErr = db.incrementEventAttendeesTx(tx, locked.ProductID, 1)
	}
	if newErr != nil {
		err = newErr
		return err
	}

	return nil
}

// CompleteCartPayment completes a pending cart payment and fans it out into
// per-item child payments. The whole sequence runs in one transaction under
// the parent's row lock; the payment_fanout unique key makes it run-once
// even across redeliveries. Returns the created child payment ids.
func (db *DB) CompleteCartPayment(payment *models.Payment, transactionID string, echo map[string]string) ([]int, error) {
	rates, err := db.GetCommissionRates()
	if err != nil {
		return nil, err
	}

	tx, err := db.NewTx()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		tx.Commit()
	}()

	locked, newErr := db.lockPayment(tx, payment.ID)
	if newErr != nil {
		err = newErr
		return nil, err
	}

	if locked.Status == models.PaymentStatusCompleted {
		return locked.Metadata.ChildPaymentIDs, nil
	}

	ledgerStmt, newErr := tx.PrepareNamed(insertFanOutLedger)
	if newErr != nil {
		err = newErr
		return nil, err
	}

	if _, newErr := ledgerStmt.Exec(map[string]interface{}{
		"parent_payment_id": locked.ID,
	}); newErr != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(newErr, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			// Another delivery already fanned this cart out.
			return locked.Metadata.ChildPaymentIDs, nil
		}
		err = newErr
		return nil, err
	}

	metadata := mergeEcho(locked.Metadata, echo)
	orderNumber := shortuuid.New()
	plan := metadata.BuildFanOutPlan(rates)

	childIDs := make([]int, 0, len(plan))
	for i, line := range plan {
		childID, lineErr := db.fanOutLineTx(tx, locked, orderNumber, i+1, line)
		if lineErr != nil {
			// The buyer already paid; resolvable lines must still pay out.
			log.WithFields(log.Fields{
				"payment_id": locked.ID,
				"product_id": line.Item.ID,
				"type":       line.Item.Type,
				"error":      lineErr,
			}).Error("cart fan-out: skipping line")
			continue
		}
		childIDs = append(childIDs, childID)
	}

	now := time.Now()
	metadata.OrderNumber = orderNumber
	metadata.ChildPaymentIDs = childIDs
	metadata.ProcessedAt = &now

	newErr = db.updatePaymentStatusTx(tx, locked, models.PaymentStatusPending, models.PaymentStatusCompleted, "", transactionID, metadata, &now)
	if newErr != nil {
		err = newErr
		return nil, err
	}

	return childIDs, nil
}

// childPaymentReference derives a cart child's reference from its parent.
// The line number keeps references unique when a cart lists the same product
// on more than one line.
func childPaymentReference(parentReference string, lineNo int, productID int) string {
	return fmt.Sprintf("%s-%d-%d", parentReference, lineNo, productID)
}

func (db *DB) fanOutLineTx(tx Tx, parent *models.Payment, orderNumber string, lineNo int, line models.FanOutLine) (int, error) {
	var sellerID int
	switch line.Item.Type {
	case models.PaymentTypeSound:
		sound, err := db.getSoundByIDTx(tx, line.Item.ID)
		if err != nil {
			return 0, err
		}
		if sound == nil {
			return 0, errors.Errorf("sound %d no longer exists", line.Item.ID)
		}
		sellerID = sound.User.ID
	case models.PaymentTypeTicket:
		event, err := db.getEventByIDTx(tx, line.Item.ID)
		if err != nil {
			return 0, err
		}
		if event == nil {
			return 0, errors.Errorf("event %d no longer exists", line.Item.ID)
		}
		sellerID = event.User.ID
	default:
		return 0, errors.Errorf("unknown cart item type %q", line.Item.Type)
	}

	childID, err := db.insertPaymentTx(tx, &InsertPaymentOpts{
		Reference:        childPaymentReference(parent.Reference, lineNo, line.Item.ID),
		Type:             line.Item.Type,
		ProductID:        line.Item.ID,
		UserID:           parent.User.ID,
		SellerID:         sellerID,
		Amount:           line.Amount,
		CommissionRate:   line.CommissionRate,
		CommissionAmount: line.CommissionAmount,
		SellerAmount:     line.SellerAmount,
		Status:           models.PaymentStatusCompleted,
		TransactionID:    uuid.New().String(),
		Metadata: &models.PaymentMetadata{
			ParentPaymentID: parent.ID,
			OrderNumber:     orderNumber,
		},
	})
	if err != nil {
		return 0, err
	}

	switch line.Item.Type {
	case models.PaymentTypeSound:
		err = db.incrementSoundDownloadsTx(tx, line.Item.ID, line.Item.Quantity)
	case models.PaymentTypeTicket:
		err = db.incrementEventAttendeesTx(tx, line.Item.ID, line.Item.Quantity)
	}
	if err != nil {
		return 0, err
	}

	return childID, nil
}

func (db *DB) GetPayments(opts *models.GetPaymentsOpts) (*models.PaymentsStruct, error) {
	var filters []string
	var args []interface{}

	filters = append(filters, "payment.active = true")
	if opts.CreatedFrom != "" {
		filters = append(filters, "payment.created >= ?")
		args = append(args, opts.CreatedFrom)
	}
	if opts.CreatedTo != "" {
		filters = append(filters, "payment.created <= ?")
		args = append(args, opts.CreatedTo)
	}
	if len(opts.Statuses) > 0 {
		filters = append(filters, fmt.Sprintf("payment.status IN (?%s)", strings.Repeat(",?", len(opts.Statuses)-1)))
		for _, status := range opts.Statuses {
			args = append(args, status)
		}
	}
	if len(opts.Types) > 0 {
		filters = append(filters, fmt.Sprintf("payment.type IN (?%s)", strings.Repeat(",?", len(opts.Types)-1)))
		for _, paymentType := range opts.Types {
			args = append(args, paymentType)
		}
	}
	if len(opts.UserIDs) > 0 {
		filters = append(filters, fmt.Sprintf("payment.user_id IN (?%s)", strings.Repeat(",?", len(opts.UserIDs)-1)))
		for _, id := range opts.UserIDs {
			args = append(args, id)
		}
	}
	if len(opts.SellerIDs) > 0 {
		filters = append(filters, fmt.Sprintf("payment.seller_id IN (?%s)", strings.Repeat(",?", len(opts.SellerIDs)-1)))
		for _, id := range opts.SellerIDs {
			args = append(args, id)
		}
	}

	query := fmt.Sprintf(`
	%s
	WHERE
		%s
	ORDER BY
		payment.id DESC
	`, selectPayment, strings.Join(filters, " AND "))

	if opts.LimitTo > 0 {
		query = fmt.Sprintf("%s LIMIT ?, ?", query)
		args = append(args, opts.LimitFrom, opts.LimitTo)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.PaymentsStruct{}
	for rows.Next() {
		var payment models.Payment
		var user models.User
		var seller models.User
		var rawMetadata string
		var paidAt sql.NullTime

		if err := rows.Scan(
			&payment.ID,
			&payment.Reference,
			&payment.TransactionID,
			&payment.Type,
			&payment.ProductID,
			&payment.Amount,
			&payment.CommissionRate,
			&payment.CommissionAmount,
			&payment.SellerAmount,
			&payment.Status,
			&payment.FailureReason,
			&rawMetadata,
			&paidAt,
			&payment.Created,
			&payment.Updated,
			&user.ID,
			&user.Email,
			&user.Firstname,
			&user.Lastname,
			&user.Phone,
			&seller.ID,
			&seller.Email,
			&seller.Firstname,
			&seller.Lastname,
		); err != nil {
			return nil, err
		}

		metadata, err := unmarshalMetadata(rawMetadata)
		if err != nil {
			return nil, err
		}

		payment.Metadata = metadata
		payment.User = &user
		if seller.ID > 0 {
			payment.Seller = &seller
		}
		if paidAt.Valid {
			payment.PaidAt = &paidAt.Time
		}

		result.Payments = append(result.Payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Total = len(result.Payments)
	return &result, nil
}
