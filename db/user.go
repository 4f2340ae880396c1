package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/pkg/errors"
)

type UserStorage interface {
	InsertUser(opts *models.InsertUserOpts, hashedPassword string) (int, error)
	GetUserByID(userID int) (*models.User, error)
	GetUserLoginByEmail(email string) (*models.User, error)
	GetUsers(opts *models.GetUsersOpts) (*models.UsersStruct, error)
}

const (
	insertUser = `
	INSERT
		user
	SET
		email = :email,
		password = :password,
		firstname = :firstname,
		lastname = :lastname,
		phone = :phone
	`

	insertUserRole = `
	INSERT
		user_role
	SET
		user_id = :user_id,
		role_id = :role_id
	`

	getUserByID = `
	SELECT
		user.id,
		user.email,
		user.firstname,
		user.lastname,
		user.phone,
		user.created,
		user.updated
	FROM
		user
	WHERE
		user.active = true AND
		user.id = ?
	`

	getUserRoles = `
	SELECT
		role.id,
		role.name
	FROM
		user_role
	INNER JOIN
		role ON (role.id = user_role.role_id)
	WHERE
		user_role.user_id = ?
	`

	getUserLoginByEmail = `
	SELECT
		user.id,
		user.email,
		user.password,
		user.firstname,
		user.lastname,
		user.phone
	FROM
		user
	WHERE
		user.active = true AND
		user.email = ?
	`
)

func (db *DB) InsertUser(opts *models.InsertUserOpts, hashedPassword string) (int, error) {
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

	stmt, newErr := tx.PrepareNamed(insertUser)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	result, newErr := stmt.Exec(map[string]interface{}{
		"email":     opts.Email,
		"password":  hashedPassword,
		"firstname": opts.Firstname,
		"lastname":  opts.Lastname,
		"phone":     opts.Phone,
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

	roleStmt, newErr := tx.PrepareNamed(insertUserRole)
	if newErr != nil {
		err = newErr
		return 0, err
	}

	for _, roleID := range opts.Roles {
		if _, newErr := roleStmt.Exec(map[string]interface{}{
			"user_id": id,
			"role_id": roleID,
		}); newErr != nil {
			err = newErr
			return 0, err
		}
	}

	return int(id), nil
}

func (db *DB) GetUserByID(userID int) (*models.User, error) {
	var user models.User

	row := db.QueryRow(getUserByID, userID)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
		&user.Created,
		&user.Updated,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	roles, err := db.getUserRoles(user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (db *DB) GetUserLoginByEmail(email string) (*models.User, error) {
	var user models.User

	row := db.QueryRow(getUserLoginByEmail, email)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	roles, err := db.getUserRoles(user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (db *DB) getUserRoles(userID int) ([]models.Role, error) {
	rows, err := db.Query(getUserRoles, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

func (db *DB) GetUsers(opts *models.GetUsersOpts) (*models.UsersStruct, error) {
	var filters []string
	var args []interface{}

	filters = append(filters, "user.active = true")
	if opts.CreatedFrom != "" {
		filters = append(filters, "user.created >= ?")
		args = append(args, opts.CreatedFrom)
	}
	if opts.CreatedTo != "" {
		filters = append(filters, "user.created <= ?")
		args = append(args, opts.CreatedTo)
	}
	if len(opts.UserIDs) > 0 {
		filters = append(filters, fmt.Sprintf("user.id IN (?%s)", strings.Repeat(",?", len(opts.UserIDs)-1)))
		for _, id := range opts.UserIDs {
			args = append(args, id)
		}
	}
	if len(opts.Emails) > 0 {
		filters = append(filters, fmt.Sprintf("user.email IN (?%s)", strings.Repeat(",?", len(opts.Emails)-1)))
		for _, email := range opts.Emails {
			args = append(args, email)
		}
	}

	query := fmt.Sprintf(`
	SELECT
		user.id,
		user.email,
		user.firstname,
		user.lastname,
		user.phone,
		user.created,
		user.updated
	FROM
		user
	WHERE
		%s
	ORDER BY
		user.id DESC
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

	result := models.UsersStruct{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Firstname,
			&user.Lastname,
			&user.Phone,
			&user.Created,
			&user.Updated,
		); err != nil {
			return nil, err
		}
		result.Users = append(result.Users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Total = len(result.Users)
	return &result, nil
}
