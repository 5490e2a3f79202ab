package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"easybake/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Owner identifies a cart: a signed-in user or a guest cart token.
type Owner struct {
	UserID int64
	Token  string
}

func (o Owner) column() (string, any) {
	if o.UserID != 0 {
		return "user_id", o.UserID
	}
	return "token", o.Token
}

// Find returns the owner's cart id, or 0 when there is none yet.
func (r *CartRepo) Find(o Owner) (int64, error) {
	if o.UserID == 0 && o.Token == "" {
		return 0, nil
	}
	col, val := o.column()
	var id int64
	err := r.db.Get(&id, `SELECT id FROM carts WHERE `+col+` = ?`, val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *CartRepo) Ensure(o Owner) (int64, error) {
	id, err := r.Find(o)
	if err != nil || id != 0 {
		return id, err
	}
	col, val := o.column()
	res, err := r.db.Exec(`INSERT INTO carts(`+col+`,updated_at) VALUES(?,?)`, val, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LineRow is a cart line joined with what is needed to show it.
type LineRow struct {
	ID            int64           `db:"id"`
	ProductID     int64           `db:"product_id"`
	VariantID     int64           `db:"variant_id"`
	Quantity      int             `db:"quantity"`
	PriceSnapshot decimal.Decimal `db:"price_snapshot"`
	Slug          string          `db:"slug"`
	NameEN        string          `db:"name_en"`
	NameAR        string          `db:"name_ar"`
	Image         string          `db:"image"`
	VariantEN     string          `db:"variant_en"`
	VariantAR     string          `db:"variant_ar"`
}

// Lines reads a cart's lines inside q, oldest first.
func Lines(q sqlx.Queryer, cartID int64) ([]LineRow, error) {
	var rows []LineRow
	err := sqlx.Select(q, &rows, `
		SELECT ci.id, ci.product_id, ci.variant_id, ci.quantity, ci.price_snapshot,
		       p.slug, p.name_en, p.name_ar,
		       COALESCE((SELECT url FROM product_images im WHERE im.product_id = p.id ORDER BY im.is_primary DESC, im.id LIMIT 1), '') AS image,
		       COALESCE(v.name_en, '') AS variant_en, COALESCE(v.name_ar, '') AS variant_ar
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id`, cartID)
	return rows, err
}

// Items returns the cart lines as domain items with a product summary.
func (r *CartRepo) Items(cartID int64, locale string) ([]domain.CartItem, error) {
	rows, err := Lines(r.db, cartID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartItem, 0, len(rows))
	for _, l := range rows {
		it := domain.CartItem{
			ID:            l.ID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			PriceSnapshot: l.PriceSnapshot,
			Product: &domain.Product{
				ID:     l.ProductID,
				Slug:   l.Slug,
				Name:   pick(locale, l.NameEN, l.NameAR),
				Price:  l.PriceSnapshot,
				Images: []domain.ProductImage{{URL: l.Image, IsPrimary: true}},
			},
		}
		if l.VariantID != 0 {
			vid := l.VariantID
			it.VariantID = &vid
			it.Variant = &domain.ProductVariant{ID: vid, ProductID: l.ProductID, Name: pick(locale, l.VariantEN, l.VariantAR), Price: l.PriceSnapshot}
		}
		out = append(out, it)
	}
	return out, nil
}

// AddItem inserts a line or raises the quantity of the matching one, capped
// at max. The price snapshot is kept from the first add.
func (r *CartRepo) AddItem(cartID, productID, variantID int64, qty, max int, price decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,product_id,variant_id,quantity,price_snapshot,created_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(cart_id,product_id,variant_id) DO UPDATE
		SET quantity = MIN(cart_items.quantity + excluded.quantity, ?)`,
		cartID, productID, variantID, qty, price, now(), max)
	if err != nil {
		return err
	}
	return r.touch(cartID)
}

// Line returns one line of the cart.
func (r *CartRepo) Line(cartID, itemID int64) (LineRow, error) {
	rows, err := Lines(r.db, cartID)
	if err != nil {
		return LineRow{}, err
	}
	for _, l := range rows {
		if l.ID == itemID {
			return l, nil
		}
	}
	return LineRow{}, ErrNotFound
}

func (r *CartRepo) SetQuantity(cartID, itemID int64, qty int) error {
	res, err := r.db.Exec(`UPDATE cart_items SET quantity = ? WHERE id = ? AND cart_id = ?`, qty, itemID, cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.touch(cartID)
}

func (r *CartRepo) RemoveItem(cartID, itemID int64) error {
	res, err := r.db.Exec(`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.touch(cartID)
}

func (r *CartRepo) Clear(cartID int64) error { return ClearLines(r.db, cartID) }

// ClearLines empties a cart inside ex.
func ClearLines(ex sqlx.Execer, cartID int64) error {
	_, err := ex.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

func (r *CartRepo) touch(cartID int64) error {
	_, err := r.db.Exec(`UPDATE carts SET updated_at = ? WHERE id = ?`, now(), cartID)
	return err
}

// MergeGuest moves a guest cart into the user's cart on sign-in. Matching
// lines add up to max; the guest cart is dropped.
func (r *CartRepo) MergeGuest(token string, userID int64, max int) error {
	if token == "" {
		return nil
	}
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var guestID, userCartID sql.NullInt64
	if err := tx.Get(&guestID, `SELECT id FROM carts WHERE token = ?`, token); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if !guestID.Valid {
		return nil
	}
	if err := tx.Get(&userCartID, `SELECT id FROM carts WHERE user_id = ?`, userID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// No user cart yet: the guest cart becomes it.
	if !userCartID.Valid {
		if _, err := tx.Exec(`UPDATE carts SET user_id = ?, token = NULL, updated_at = ? WHERE id = ?`, userID, now(), guestID.Int64); err != nil {
			return err
		}
		return tx.Commit()
	}

	type line struct {
		ProductID int64           `db:"product_id"`
		VariantID int64           `db:"variant_id"`
		Quantity  int             `db:"quantity"`
		Price     decimal.Decimal `db:"price_snapshot"`
	}
	var lines []line
	if err := tx.Select(&lines, `SELECT product_id, variant_id, quantity, price_snapshot FROM cart_items WHERE cart_id = ?`, guestID.Int64); err != nil {
		return err
	}
	for _, it := range lines {
		if _, err := tx.Exec(`
			INSERT INTO cart_items(cart_id,product_id,variant_id,quantity,price_snapshot,created_at)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(cart_id,product_id,variant_id) DO UPDATE
			SET quantity = MIN(cart_items.quantity + excluded.quantity, ?)`,
			userCartID.Int64, it.ProductID, it.VariantID, it.Quantity, it.Price, now(), max); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM carts WHERE id = ?`, guestID.Int64); err != nil {
		return err
	}
	return tx.Commit()
}
