package db

import (
	"database/sql"

	"github.com/pkg/errors"
)

type AuthStorage interface {
	InsertRememberToken(userID int, token string) error
	GetUserIDByRememberToken(email string, token string) (int, error)
	UpdateUserPassword(userID int, token string, hashedPassword string) error
}

const (
	insertRememberToken = `
	INSERT
		remember_token
	SET
		user_id = :user_id,
		token = :token
	`

	getUserIDByRememberToken = `
	SELECT
		user.id
	FROM
		remember_token
	INNER JOIN
		user ON (user.id = remember_token.user_id)
	WHERE
		user.email = ? AND
		remember_token.token = ? AND
		remember_token.used = false
	ORDER BY
		remember_token.id DESC
	LIMIT 1
	`

	markRememberTokenUsed = `
	UPDATE
		remember_token
	SET
		used = true
	WHERE
		user_id = :user_id AND
		token = :token
	`

	updateUserPassword = `
	UPDATE
		user
	SET
		password = :password,
		updated = current_timestamp()
	WHERE
		id = :user_id
	`
)

func (db *DB) InsertRememberToken(userID int, token string) error {
	stmt, err := db.PrepareNamed(insertRememberToken)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(map[string]interface{}{
		"user_id": userID,
		"token":   token,
	})
	return err
}

func (db *DB) GetUserIDByRememberToken(email string, token string) (int, error) {
	var userID int
	row := db.QueryRow(getUserIDByRememberToken, email, token)
	if err := row.Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return userID, nil
}

// UpdateUserPassword resets the password and burns the remember token in the
// same transaction, so a token grants exactly one reset.
func (db *DB) UpdateUserPassword(userID int, token string, hashedPassword string) error {
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

	stmt, newErr := tx.PrepareNamed(updateUserPassword)
	if newErr != nil {
		err = newErr
		return err
	}

	if _, newErr := stmt.Exec(map[string]interface{}{
		"user_id":  userID,
		"password": hashedPassword,
	}); newErr != nil {
		err = newErr
		return err
	}

	stmt, newErr = tx.PrepareNamed(markRememberTokenUsed)
	if newErr != nil {
		err = newErr
		return err
	}

	if _, newErr := stmt.Exec(map[string]interface{}{
		"user_id": userID,
		"token":   token,
	}); newErr != nil {
		err = newErr
		return err
	}

	return nil
}
