package repos

import (
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"easybake/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// UserRow is a user with its password hash.
type UserRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Locale    string `db:"locale"`
	Hash      string `db:"password_hash"`
	CreatedAt string `db:"created_at"`
}

func (u UserRow) User() domain.User {
	return domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Locale: u.Locale}
}

const userCols = `u.id, u.name, u.email, u.phone, u.locale, u.password_hash, u.created_at`

func (r *UserRepo) ByEmail(email string) (*UserRow, error) {
	var u UserRow
	if err := r.DB.Get(&u, `SELECT `+userCols+` FROM users u WHERE LOWER(u.email) = LOWER(?)`, email); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(id int64) (*UserRow, error) {
	var u UserRow
	if err := r.DB.Get(&u, `SELECT `+userCols+` FROM users u WHERE u.id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a user. ErrDuplicate means the email is taken.
func (r *UserRepo) Create(name, email, phone, locale, hash string) (*UserRow, error) {
	res, err := r.DB.Exec(`INSERT INTO users(name,email,phone,locale,password_hash,created_at) VALUES(?,?,?,?,?,?)`,
		name, email, phone, locale, hash, now())
	if err != nil {
		if isUnique(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(id)
}

func (r *UserRepo) SetPassword(userID int64, hash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID)
	return err
}

// BindSession attaches a user to the session, creating the session row.
func (r *UserRepo) BindSession(sid string, userID int64) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,created_at,last_seen) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen`, sid, userID, now(), now())
	return err
}

// SessionUser returns the user bound to sid, or ErrNotFound for guests.
func (r *UserRepo) SessionUser(sid string) (*UserRow, error) {
	var u UserRow
	if err := r.DB.Get(&u, `SELECT `+userCols+` FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.id = ?`, sid); err != nil {
		return nil, notFound(err)
	}
	_, _ = r.DB.Exec(`UPDATE sessions SET last_seen = ? WHERE id = ?`, now(), sid)
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("repos: duplicate")

func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
