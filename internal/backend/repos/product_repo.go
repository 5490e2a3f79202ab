package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"easybake/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("repos: not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// pick returns the Arabic text when asked for it and present.
func pick(locale, en, ar string) string {
	if locale == domain.LocaleAR && ar != "" {
		return ar
	}
	return en
}

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID            int64           `db:"id"`
	Slug          string          `db:"slug"`
	CategoryID    sql.NullInt64   `db:"category_id"`
	NameEN        string          `db:"name_en"`
	NameAR        string          `db:"name_ar"`
	DescEN        string          `db:"description_en"`
	DescAR        string          `db:"description_ar"`
	Price         decimal.Decimal `db:"price"`
	HasVariants   bool            `db:"has_variants"`
	IsAvailable   bool            `db:"is_available"`
	IsFeatured    bool            `db:"is_featured"`
	StockQuantity int             `db:"stock_quantity"`
	AverageRating float64         `db:"average_rating"`
	ReviewsCount  int             `db:"reviews_count"`
}

const productCols = `p.id, p.slug, p.category_id, p.name_en, p.name_ar, p.description_en, p.description_ar,
  p.price, p.has_variants, p.is_available, p.is_featured, p.stock_quantity, p.average_rating, p.reviews_count`

func (r productRow) toDomain(locale string) domain.Product {
	p := domain.Product{
		ID:            r.ID,
		Slug:          r.Slug,
		Name:          pick(locale, r.NameEN, r.NameAR),
		Description:   pick(locale, r.DescEN, r.DescAR),
		Price:         r.Price,
		HasVariants:   r.HasVariants,
		IsAvailable:   r.IsAvailable,
		IsFeatured:    r.IsFeatured,
		StockQuantity: r.StockQuantity,
		AverageRating: r.AverageRating,
		ReviewsCount:  r.ReviewsCount,
		Images:        []domain.ProductImage{},
		Translations: map[string]domain.Translation{
			domain.LocaleEN: {Name: r.NameEN, Description: r.DescEN},
			domain.LocaleAR: {Name: r.NameAR, Description: r.DescAR},
		},
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.Int64
		p.CategoryID = &id
	}
	return p
}

type variantRow struct {
	ID            int64           `db:"id"`
	ProductID     int64           `db:"product_id"`
	NameEN        string          `db:"name_en"`
	NameAR        string          `db:"name_ar"`
	SKU           string          `db:"sku"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity int             `db:"stock_quantity"`
	IsAvailable   bool            `db:"is_available"`
}

// ListQuery filters and orders the product listing.
type ListQuery struct {
	CategoryID int64
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

var sortOrders = map[string]string{
	"newest":     "p.created_at DESC, p.id DESC",
	"price_asc":  "CAST(p.price AS REAL) ASC, p.id ASC",
	"price_desc": "CAST(p.price AS REAL) DESC, p.id DESC",
	"popular":    "p.sold_count DESC, p.id ASC",
}

// List returns one page of products and the total match count. A category
// filter also matches its direct children.
func (r *ProductRepo) List(q ListQuery, locale string) ([]domain.Product, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.CategoryID > 0 {
		where = append(where, `(p.category_id = ? OR p.category_id IN (SELECT id FROM categories WHERE parent_id = ?))`)
		args = append(args, q.CategoryID, q.CategoryID)
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		like := "%" + s + "%"
		where = append(where, `(LOWER(p.name_en) LIKE ? OR p.name_ar LIKE ? OR LOWER(p.description_en) LIKE ? OR p.description_ar LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM products p WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	order, ok := sortOrders[q.Sort]
	if !ok {
		order = sortOrders["newest"]
	}
	var rows []productRow
	if err := r.db.Select(&rows, `SELECT `+productCols+` FROM products p WHERE `+cond+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...); err != nil {
		return nil, 0, err
	}
	out, err := r.attach(rows, locale)
	return out, total, err
}

func (r *ProductRepo) Get(id int64, locale string) (domain.Product, error) {
	var row productRow
	if err := r.db.Get(&row, `SELECT `+productCols+` FROM products p WHERE p.id = ?`, id); err != nil {
		return domain.Product{}, notFound(err)
	}
	out, err := r.attach([]productRow{row}, locale)
	if err != nil {
		return domain.Product{}, err
	}
	return out[0], nil
}

func (r *ProductRepo) Featured(limit int, locale string) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.Select(&rows, `SELECT `+productCols+` FROM products p
		WHERE p.is_featured = 1 ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit); err != nil {
		return nil, err
	}
	return r.attach(rows, locale)
}

func (r *ProductRepo) Popular(limit int, locale string) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.Select(&rows, `SELECT `+productCols+` FROM products p
		WHERE p.is_available = 1 ORDER BY p.sold_count DESC, p.id ASC LIMIT ?`, limit); err != nil {
		return nil, err
	}
	return r.attach(rows, locale)
}

// attach loads variants and images for rows in two queries.
func (r *ProductRepo) attach(rows []productRow, locale string) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(rows))
	index := map[int64]int{}
	for i, row := range rows {
		out = append(out, row.toDomain(locale))
		ids = append(ids, row.ID)
		index[row.ID] = i
	}

	query, args, err := sqlx.In(`SELECT id, product_id, name_en, name_ar, sku, price, stock_quantity, is_available
		FROM product_variants WHERE product_id IN (?) ORDER BY CAST(price AS REAL), id`, ids)
	if err != nil {
		return nil, err
	}
	var variants []variantRow
	if err := r.db.Select(&variants, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, v := range variants {
		p := &out[index[v.ProductID]]
		p.Variants = append(p.Variants, domain.ProductVariant{
			ID:            v.ID,
			ProductID:     v.ProductID,
			Name:          pick(locale, v.NameEN, v.NameAR),
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
			IsAvailable:   v.IsAvailable && v.StockQuantity > 0,
		})
	}

	query, args, err = sqlx.In(`SELECT id, product_id, url, alt, is_primary FROM product_images WHERE product_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var images []struct {
		ID        int64  `db:"id"`
		ProductID int64  `db:"product_id"`
		URL       string `db:"url"`
		Alt       string `db:"alt"`
		IsPrimary bool   `db:"is_primary"`
	}
	if err := r.db.Select(&images, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, im := range images {
		p := &out[index[im.ProductID]]
		p.Images = append(p.Images, domain.ProductImage{ID: im.ID, URL: im.URL, Alt: im.Alt, IsPrimary: im.IsPrimary})
	}
	return out, nil
}

// Stock is what an order line needs to know about the thing being bought.
type Stock struct {
	ProductID   int64
	VariantID   int64
	Name        string
	VariantName string
	Price       decimal.Decimal
	Available   bool
	Quantity    int
}

// StockFor reads price and stock for a product or one of its variants.
func StockFor(tx sqlx.Queryer, productID, variantID int64, locale string) (Stock, error) {
	var p struct {
		NameEN      string          `db:"name_en"`
		NameAR      string          `db:"name_ar"`
		Price       decimal.Decimal `db:"price"`
		HasVariants bool            `db:"has_variants"`
		IsAvailable bool            `db:"is_available"`
		Stock       int             `db:"stock_quantity"`
	}
	if err := sqlx.Get(tx, &p, `SELECT name_en, name_ar, price, has_variants, is_available, stock_quantity FROM products WHERE id = ?`, productID); err != nil {
		return Stock{}, notFound(err)
	}
	s := Stock{ProductID: productID, Name: pick(locale, p.NameEN, p.NameAR), Price: p.Price, Available: p.IsAvailable, Quantity: p.Stock}
	if variantID == 0 {
		if p.HasVariants {
			return Stock{}, ErrVariantRequired
		}
		return s, nil
	}
	var v variantRow
	if err := sqlx.Get(tx, &v, `SELECT id, product_id, name_en, name_ar, sku, price, stock_quantity, is_available
		FROM product_variants WHERE id = ? AND product_id = ?`, variantID, productID); err != nil {
		return Stock{}, notFound(err)
	}
	s.VariantID = v.ID
	s.VariantName = pick(locale, v.NameEN, v.NameAR)
	s.Price = v.Price
	s.Available = p.IsAvailable && v.IsAvailable
	s.Quantity = v.StockQuantity
	return s, nil
}

// Stock reads price and stock outside a transaction.
func (r *ProductRepo) Stock(productID, variantID int64, locale string) (Stock, error) {
	return StockFor(r.db, productID, variantID, locale)
}

// ErrVariantRequired is returned when a product with variants is bought
// without naming one.
var ErrVariantRequired = errors.New("repos: variant required")

// AdjustStock moves stock by delta (negative to take, positive to give
// back) and keeps the sold counter in step. Taking more than is left fails
// with ErrOutOfStock.
func AdjustStock(tx *sqlx.Tx, productID, variantID int64, delta int) error {
	table, id := "products", productID
	if variantID != 0 {
		table, id = "product_variants", variantID
	}
	res, err := tx.Exec(`UPDATE `+table+` SET stock_quantity = stock_quantity + ? WHERE id = ? AND stock_quantity + ? >= 0`, delta, id, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOutOfStock
	}
	_, err = tx.Exec(`UPDATE products SET sold_count = MAX(sold_count - ?, 0) WHERE id = ?`, delta, productID)
	return err
}

var ErrOutOfStock = errors.New("repos: out of stock")

// RefreshRating recomputes a product's average rating and review count.
func RefreshRating(ex sqlx.Execer, productID int64) error {
	_, err := ex.Exec(`
		UPDATE products SET
		  average_rating = COALESCE((SELECT ROUND(AVG(rating), 1) FROM reviews WHERE product_id = ?), 0),
		  reviews_count  = (SELECT COUNT(*) FROM reviews WHERE product_id = ?)
		WHERE id = ?`, productID, productID, productID)
	return err
}
