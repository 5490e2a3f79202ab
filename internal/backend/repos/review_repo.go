package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"easybake/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

type reviewRow struct {
	ID            int64         `db:"id"`
	ProductID     int64         `db:"product_id"`
	UserID        sql.NullInt64 `db:"user_id"`
	AuthorName    string        `db:"author_name"`
	Rating        int           `db:"rating"`
	Title         string        `db:"title"`
	Comment       string        `db:"comment"`
	Verified      bool          `db:"is_verified_purchase"`
	HelpfulCount  int           `db:"helpful_count"`
	AdminResponse string        `db:"admin_response"`
	CreatedAt     string        `db:"created_at"`
}

const reviewCols = `id, product_id, user_id, author_name, rating, title, comment, is_verified_purchase, helpful_count, admin_response, created_at`

func (r reviewRow) toDomain() domain.Review {
	out := domain.Review{
		ID: r.ID, ProductID: r.ProductID, AuthorName: r.AuthorName, Rating: r.Rating, Title: r.Title,
		Comment: r.Comment, IsVerifiedPurchase: r.Verified, HelpfulCount: r.HelpfulCount,
		AdminResponse: r.AdminResponse, CreatedAt: parseTime(r.CreatedAt),
	}
	if r.UserID.Valid {
		id := r.UserID.Int64
		out.UserID = &id
	}
	return out
}

func (r *ReviewRepo) List(productID int64, limit, offset int) ([]domain.Review, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM reviews WHERE product_id = ?`, productID); err != nil {
		return nil, 0, err
	}
	var rows []reviewRow
	if err := r.db.Select(&rows, `SELECT `+reviewCols+` FROM reviews WHERE product_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, productID, limit, offset); err != nil {
		return nil, 0, err
	}
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *ReviewRepo) Get(id int64) (domain.Review, error) {
	var row reviewRow
	if err := r.db.Get(&row, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id); err != nil {
		return domain.Review{}, notFound(err)
	}
	return row.toDomain(), nil
}

// HasReviewed reports whether the user already reviewed the product.
func (r *ReviewRepo) HasReviewed(userID, productID int64) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM reviews WHERE user_id = ? AND product_id = ?`, userID, productID)
	return n > 0, err
}

// Create stores a review and refreshes the product's rating.
func (r *ReviewRepo) Create(rv domain.Review) (domain.Review, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var uid any
	if rv.UserID != nil {
		uid = *rv.UserID
	}
	res, err := tx.Exec(`INSERT INTO reviews(product_id,user_id,author_name,rating,title,comment,is_verified_purchase,created_at)
		VALUES(?,?,?,?,?,?,?,?)`, rv.ProductID, uid, rv.AuthorName, rv.Rating, rv.Title, rv.Comment, rv.IsVerifiedPurchase, now())
	if err != nil {
		return domain.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, err
	}
	if err := RefreshRating(tx, rv.ProductID); err != nil {
		return domain.Review{}, err
	}
	var row reviewRow
	if err := tx.Get(&row, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id); err != nil {
		return domain.Review{}, err
	}
	return row.toDomain(), tx.Commit()
}

func (r *ReviewRepo) Delete(id, productID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM reviews WHERE id = ?`, id); err != nil {
		return err
	}
	if err := RefreshRating(tx, productID); err != nil {
		return err
	}
	return tx.Commit()
}

// Vote counts one helpful vote per voter. A repeated vote changes nothing.
func (r *ReviewRepo) Vote(id int64, voter string) (domain.Review, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return domain.Review{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.Get(&exists, `SELECT id FROM reviews WHERE id = ?`, id); err != nil {
		return domain.Review{}, notFound(err)
	}
	res, err := tx.Exec(`INSERT INTO review_votes(review_id, voter) VALUES(?, ?) ON CONFLICT DO NOTHING`, id, voter)
	if err != nil {
		return domain.Review{}, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if _, err := tx.Exec(`UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = ?`, id); err != nil {
			return domain.Review{}, err
		}
	}
	var row reviewRow
	if err := tx.Get(&row, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id); err != nil {
		return domain.Review{}, err
	}
	return row.toDomain(), tx.Commit()
}
