package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/pkg/errors"
)

type SoundStorage interface {
	InsertSound(userID int, opts *models.InsertSoundOpts) (int, error)
	GetSoundByID(soundID int) (*models.Sound, error)
	GetSounds(opts *models.GetSoundsOpts) (*models.SoundsStruct, error)
}

const (
	insertSound = `
	INSERT
		sound
	SET
		user_id = :user_id,
		title = :title,
		category = :category,
		price = :price,
		file_url = :file_url,
		cover_url = :cover_url
	`

	getSoundByID = `
	SELECT
		sound.id,
		sound.title,
		sound.category,
		sound.price,
		sound.file_url,
		sound.cover_url,
		sound.downloads,
		sound.created,
		sound.updated,
		user.id,
		user.email,
		user.firstname,
		user.lastname,
		user.phone
	FROM
		sound
	INNER JOIN
		user ON (user.id = sound.user_id AND user.active = true)
	WHERE
		sound.active = true AND
		sound.id = ?
	`

	incrementSoundDownloads = `
	UPDATE
		sound
	SET
		downloads = downloads + :quantity,
		updated = current_timestamp()
	WHERE
		id = :sound_id
	`
)

func (db *DB) InsertSound(userID int, opts *models.InsertSoundOpts) (int, error) {
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

	stmt, newErr := tx.PrepareNamed(insertSound)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	result, newErr := stmt.Exec(map[string]interface{}{
		"user_id":   userID,
		"title":     opts.Title,
		"category":  opts.Category,
		"price":     opts.Price,
		"file_url":  opts.FileURL,
		"cover_url": opts.CoverURL,
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

func (db *DB) GetSoundByID(soundID int) (*models.Sound, error) {
	return scanSound(db.QueryRow(getSoundByID, soundID))
}

func (db *DB) getSoundByIDTx(tx Tx, soundID int) (*models.Sound, error) {
	return scanSound(tx.QueryRow(getSoundByID, soundID))
}

func scanSound(row *sql.Row) (*models.Sound, error) {
	var sound models.Sound
	var user models.User

	if err := row.Scan(
		&sound.ID,
		&sound.Title,
		&sound.Category,
		&sound.Price,
		&sound.FileURL,
		&sound.CoverURL,
		&sound.Downloads,
		&sound.Created,
		&sound.Updated,
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

	sound.User = &user
	return &sound, nil
}

func (db *DB) incrementSoundDownloadsTx(tx Tx, soundID int, quantity int) error {
	stmt, err := tx.PrepareNamed(incrementSoundDownloads)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(map[string]interface{}{
		"sound_id": soundID,
		"quantity": quantity,
	})
	return err
}

func (db *DB) GetSounds(opts *models.GetSoundsOpts) (*models.SoundsStruct, error) {
	var filters []string
	var args []interface{}

	filters = append(filters, "sound.active = true")
	if opts.Category != "" {
		filters = append(filters, "sound.category = ?")
		args = append(args, opts.Category)
	}
	if len(opts.UserIDs) > 0 {
		filters = append(filters, fmt.Sprintf("sound.user_id IN (?%s)", strings.Repeat(",?", len(opts.UserIDs)-1)))
		for _, id := range opts.UserIDs {
			args = append(args, id)
		}
	}

	query := fmt.Sprintf(`
	SELECT
		sound.id,
		sound.title,
		sound.category,
		sound.price,
		sound.file_url,
		sound.cover_url,
		sound.downloads,
		sound.created,
		sound.updated,
		user.id,
		user.firstname,
		user.lastname
	FROM
		sound
	INNER JOIN
		user ON (user.id = sound.user_id)
	WHERE
		%s
	ORDER BY
		sound.id DESC
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

	result := models.SoundsStruct{}
	for rows.Next() {
		var sound models.Sound
		var user models.User
		if err := rows.Scan(
			&sound.ID,
			&sound.Title,
			&sound.Category,
			&sound.Price,
			&sound.FileURL,
			&sound.CoverURL,
			&sound.Downloads,
			&sound.Created,
			&sound.Updated,
			&user.ID,
			&user.Firstname,
			&user.Lastname,
		); err != nil {
			return nil, err
		}
		sound.User = &user
		result.Sounds = append(result.Sounds, sound)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Total = len(result.Sounds)
	return &result, nil
}
