package repos

import (
	"github.com/jmoiron/sqlx"

	"easybake/internal/domain"
)

type WishlistRepo struct {
	db       *sqlx.DB
	products *ProductRepo
}

func NewWishlistRepo(db *sqlx.DB, products *ProductRepo) *WishlistRepo {
	return &WishlistRepo{db: db, products: products}
}

// Toggle adds the product when absent and removes it when present. It
// reports whether the product is in the wishlist afterwards.
func (r *WishlistRepo) Toggle(userID, productID int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err := r.db.Exec(`INSERT INTO wishlist_items(user_id, product_id, created_at) VALUES(?, ?, ?)`, userID, productID, now()); err != nil {
		return false, err
	}
	return true, nil
}

func (r *WishlistRepo) List(userID int64, locale string) ([]domain.WishlistItem, error) {
	var rows []struct {
		ID        int64  `db:"id"`
		ProductID int64  `db:"product_id"`
		CreatedAt string `db:"created_at"`
	}
	if err := r.db.Select(&rows, `SELECT id, product_id, created_at FROM wishlist_items WHERE user_id = ? ORDER BY id DESC`, userID); err != nil {
		return nil, err
	}
	out := make([]domain.WishlistItem, 0, len(rows))
	for _, row := range rows {
		it := domain.WishlistItem{ID: row.ID, ProductID: row.ProductID, CreatedAt: parseTime(row.CreatedAt)}
		if p, err := r.products.Get(row.ProductID, locale); err == nil {
			it.Product = &p
		}
		out = append(out, it)
	}
	return out, nil
}
