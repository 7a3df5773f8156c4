package sqliterepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minumate/backend/core/user"
)

type userRow struct {
	ID           int        `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	FullName     string     `db:"full_name"`
	Role         string     `db:"role"`
	Status       string     `db:"status"`
	IsActive     bool       `db:"is_active"`
	PasswordHash null.Bytes `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    null.Time  `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         r.Role,
		Status:       r.Status,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps sql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUniqueness(username, email string, excludedUsers ...user.User) error {
	args := []interface{}{username, email}
	q := `SELECT username, email FROM users WHERE (username = ? OR email = ?)`
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, "?")
			args = append(args, u.ID)
		}
		q += fmt.Sprintf(" AND id NOT IN (%s)", strings.Join(ids, ","))
	}

	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	res, err := repo.db.Exec(
		`INSERT INTO users (username, email, full_name, role, status, is_active, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		usr.Username, usr.Email, usr.FullName, usr.Role, usr.Status, usr.IsActive,
		null.BytesFrom(usr.PasswordHash), usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = int(id)
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT * FROM users ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		val := "%" + strings.ToLower(filter.Search) + "%"
		conds = append(conds, `(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)`)
		args = append(args, val, val, val)
	}
	if filter.Role != "" {
		conds = append(conds, `role = ?`)
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}

	q := `SELECT * FROM users`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) GetUser(filter user.GetFilter) (user.User, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case filter.ID != 0:
		q, args = `SELECT * FROM users WHERE id = ?`, []interface{}{filter.ID}
	case filter.Username != "":
		q, args = `SELECT * FROM users WHERE username = ?`, []interface{}{filter.Username}
	case filter.Email != "":
		q, args = `SELECT * FROM users WHERE email = ?`, []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		q = `SELECT * FROM users WHERE (username = ? OR email = ?)`
		args = []interface{}{filter.UsernameOrEmail, filter.UsernameOrEmail}
	default:
		return user.User{}, user.ErrNotFound
	}
	if filter.RegisteredOnly {
		q += ` AND status = ?`
		args = append(args, user.StatusRegistered)
	}

	var row userRow
	if err := repo.db.Get(&row, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUser(user.GetFilter{ID: usr.ID})
	if err != nil {
		return user.User{}, err
	}

	// only save set fields
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.FullName != "" {
		orig.FullName = usr.FullName
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.Status != "" {
		orig.Status = usr.Status
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = usr.UpdatedAt

	_, err = repo.db.Exec(
		`UPDATE users SET username = ?, email = ?, full_name = ?, role = ?, status = ?,
		 is_active = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		orig.Username, orig.Email, orig.FullName, orig.Role, orig.Status,
		orig.IsActive, null.BytesFrom(orig.PasswordHash), orig.UpdatedAt, orig.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) SetLastLogin(usr user.User) error {
	if _, err := repo.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, usr.LastLogin, usr.ID); err != nil {
		return errors.Wrap(err, "setting last login")
	}
	return nil
}

func (repo *userRepository) DeleteUsersByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.Exec(q, args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
