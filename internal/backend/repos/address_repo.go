package repos

import (
	"github.com/jmoiron/sqlx"

	"easybake/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

const addressCols = `id, user_id, label, recipient_name, phone, area, block, street, building, floor, apartment, notes, is_default`

type addressRow struct {
	ID            int64  `db:"id"`
	UserID        int64  `db:"user_id"`
	Label         string `db:"label"`
	RecipientName string `db:"recipient_name"`
	Phone         string `db:"phone"`
	Area          string `db:"area"`
	Block         string `db:"block"`
	Street        string `db:"street"`
	Building      string `db:"building"`
	Floor         string `db:"floor"`
	Apartment     string `db:"apartment"`
	Notes         string `db:"notes"`
	IsDefault     bool   `db:"is_default"`
}

func (a addressRow) toDomain() domain.Address { return domain.Address(a) }

func (r *AddressRepo) List(userID int64) ([]domain.Address, error) {
	var rows []addressRow
	if err := r.db.Select(&rows, `SELECT `+addressCols+` FROM addresses WHERE user_id = ? ORDER BY is_default DESC, id`, userID); err != nil {
		return nil, err
	}
	out := make([]domain.Address, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.toDomain())
	}
	return out, nil
}

// Get returns the user's address. Other users' addresses are ErrNotFound.
func (r *AddressRepo) Get(userID, id int64) (domain.Address, error) {
	var a addressRow
	if err := r.db.Get(&a, `SELECT `+addressCols+` FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return domain.Address{}, notFound(err)
	}
	return a.toDomain(), nil
}

// Create inserts an address. The first address, or one flagged default,
// becomes the only default.
func (r *AddressRepo) Create(userID int64, in domain.AddressInput) (domain.Address, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Address{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.Get(&n, `SELECT COUNT(*) FROM addresses WHERE user_id = ?`, userID); err != nil {
		return domain.Address{}, err
	}
	isDefault := in.IsDefault || n == 0
	if isDefault {
		if _, err := tx.Exec(`UPDATE addresses SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
			return domain.Address{}, err
		}
	}
	res, err := tx.Exec(`INSERT INTO addresses(user_id,label,recipient_name,phone,area,block,street,building,floor,apartment,notes,is_default)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		userID, in.Label, in.RecipientName, in.Phone, in.Area, in.Block, in.Street, in.Building, in.Floor, in.Apartment, in.Notes, isDefault)
	if err != nil {
		return domain.Address{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Address{}, err
	}
	var a addressRow
	if err := tx.Get(&a, `SELECT `+addressCols+` FROM addresses WHERE id = ?`, id); err != nil {
		return domain.Address{}, err
	}
	return a.toDomain(), tx.Commit()
}

// SetDefault makes id the user's only default address.
func (r *AddressRepo) SetDefault(userID, id int64) (domain.Address, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Address{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var a addressRow
	if err := tx.Get(&a, `SELECT `+addressCols+` FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return domain.Address{}, notFound(err)
	}
	if _, err := tx.Exec(`UPDATE addresses SET is_default = (id = ?) WHERE user_id = ?`, id, userID); err != nil {
		return domain.Address{}, err
	}
	a.IsDefault = true
	return a.toDomain(), tx.Commit()
}

// Delete removes an address. When it was the default, the oldest remaining
// address takes over.
func (r *AddressRepo) Delete(userID, id int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var wasDefault bool
	if err := tx.Get(&wasDefault, `SELECT is_default FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return notFound(err)
	}
	if _, err := tx.Exec(`DELETE FROM addresses WHERE id = ?`, id); err != nil {
		return err
	}
	if wasDefault {
		if _, err := tx.Exec(`UPDATE addresses SET is_default = 1
			WHERE id = (SELECT MIN(id) FROM addresses WHERE user_id = ?)`, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
