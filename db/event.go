package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/pkg/errors"
)

type EventStorage interface {
	InsertEvent(userID int, opts *models.InsertEventOpts) (int, error)
	GetEventByID(eventID int) (*models.Event, error)
	GetEvents(opts *models.GetEventsOpts) (*models.EventsStruct, error)
}

const (
	insertEvent = `
	INSERT
		event
	SET
		user_id = :user_id,
		title = :title,
		venue = :venue,
		start_date_time = :start_date_time,
		end_date_time = :end_date_time,
		ticket_price = :ticket_price,
		capacity = :capacity
	`

	getEventByID = `
	SELECT
		event.id,
		event.title,
		event.venue,
		event.start_date_time,
		event.end_date_time,
		event.ticket_price,
		event.capacity,
		event.attendees,
		event.created,
		event.updated,
		user.id,
		user.email,
		user.firstname,
		user.lastname,
		user.phone
	FROM
		event
	INNER JOIN
		user ON (user.id = event.user_id AND user.active = true)
	WHERE
		event.active = true AND
		event.id = ?
	`

	incrementEventAttendees = `
	UPDATE
		event
	SET
		attendees = attendees + :quantity,
		updated = current_timestamp()
	WHERE
		id = :event_id
	`
)

func (db *DB) InsertEvent(userID int, opts *models.InsertEventOpts) (int, error) {
	startDateTime, err := time.Parse(time.RFC3339, opts.StartDateTime)
	if err != nil {
		return 0, errors.Wrap(err, "failed parsing start date time")
	}
	endDateTime, err := time.Parse(time.RFC3339, opts.EndDateTime)
	if err != nil {
		return 0, errors.Wrap(err, "failed parsing end date time")
	}

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

	stmt, newErr := tx.PrepareNamed(insertEvent)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	result, newErr := stmt.Exec(map[string]interface{}{
		"user_id":         userID,
		"title":           opts.Title,
		"venue":           opts.Venue,
		"start_date_time": startDateTime,
		"end_date_time":   endDateTime,
		"ticket_price":    opts.TicketPrice,
		"capacity":        opts.Capacity,
	})
	if newErr != nil {
		err = newErr
		return 0, err
	}

	id, newErr := result.LastInsertId()
	if newErr != nil {
		err = newErr
		return 0, err
	}

	return int(id), nil
}

func (db *DB) GetEventByID(eventID int) (*models.Event, error) {
	return scanEvent(db.QueryRow(getEventByID, eventID))
}

func (db *DB) getEventByIDTx(tx Tx, eventID int) (*models.Event, error) {
	return scanEvent(tx.QueryRow(getEventByID, eventID))
}

func scanEvent(row *sql.Row) (*models.Event, error) {
	var event models.Event
	var user models.User

	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Venue,
		&event.StartDateTime,
		&event.EndDateTime,
		&event.TicketPrice,
		&event.Capacity,
		&event.Attendees,
		&event.Created,
		&event.Updated,
		&user.ID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	event.User = &user
	return &event, nil
}

func (db *DB) incrementEventAttendeesTx(tx Tx, eventID int, quantity int) error {
	stmt, err := tx.PrepareNamed(incrementEventAttendees)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(map[string]interface{}{
		"event_id": eventID,
		"quantity": quantity,
	})
	return err
}

func (db *DB) GetEvents(opts *models.GetEventsOpts) (*models.EventsStruct, error) {
	var filters []string
	var args []interface{}

	filters = append(filters, "event.active = true")
	if opts.Date != "" {
		filters = append(filters, "DATE(event.start_date_time) = ?")
		args = append(args, opts.Date)
	}
	if len(opts.UserIDs) > 0 {
		filters = append(filters, fmt.Sprintf("event.user_id IN (?%s)", strings.Repeat(",?", len(opts.UserIDs)-1)))
		for _, id := range opts.UserIDs {
			args = append(args, id)
		}
	}

	query := fmt.Sprintf(`
	SELECT
		event.id,
		event.title,
		event.venue,
		event.start_date_time,
		event.end_date_time,
		event.ticket_price,
		event.capacity,
		event.attendees,
		event.created,
		event.updated,
		user.id,
		user.firstname,
		user.lastname
	FROM
		event
	INNER JOIN
		user ON (user.id = event.user_id)
	WHERE
		%s
	ORDER BY
		event.start_date_time ASC
	`, strings.Join(filters, " AND "))

	if opts.LimitTo > 0 {
		query = fmt.Sprintf("%s LIMIT ?, ?", query)
		args = append(args, opts.LimitFrom, opts.LimitTo)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := models.EventsStruct{}
	for rows.Next() {
		var event models.Event
		var user models.User
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Venue,
			&event.StartDateTime,
			&event.EndDateTime,
			&event.TicketPrice,
			&event.Capacity,
			&event.Attendees,
			&event.Created,
			&event.Updated,
			&user.ID,
			&user.Firstname,
			&user.Lastname,
		); err != nil {
			return nil, err
		}
		event.User = &user
		result.Events = append(result.Events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Total = len(result.Events)
	return &result, nil
}
