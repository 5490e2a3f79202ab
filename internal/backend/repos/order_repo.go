package repos

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"easybake/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Begin starts the transaction an order placement or cancellation runs in.
func (r *OrderRepo) Begin() (*sqlx.Tx, error) { return r.db.Beginx() }

type orderRow struct {
	ID              int64           `db:"id"`
	OrderNumber     string          `db:"order_number"`
	UserID          int64           `db:"user_id"`
	Status          string          `db:"status"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentStatus   string          `db:"payment_status"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	VAT             decimal.Decimal `db:"vat"`
	DeliveryFee     decimal.Decimal `db:"delivery_fee"`
	Discount        decimal.Decimal `db:"discount"`
	Total           decimal.Decimal `db:"total"`
	Notes           string          `db:"notes"`
	ShippingAddress string          `db:"shipping_address"`
	CreatedAt       string          `db:"created_at"`
}

const orderCols = `id, order_number, user_id, status, payment_method, payment_status, subtotal, vat, delivery_fee,
  discount, total, notes, shipping_address, created_at`

func (o orderRow) toDomain() domain.Order {
	out := domain.Order{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        domain.OrderStatus(o.Status),
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Subtotal:      o.Subtotal,
		VAT:           o.VAT,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		Total:         o.Total,
		Notes:         o.Notes,
		CreatedAt:     parseTime(o.CreatedAt),
	}
	var addr domain.Address
	if json.Unmarshal([]byte(o.ShippingAddress), &addr) == nil {
		out.ShippingAddress = &addr
	}
	return out
}

// NewOrder is an order ready to be stored.
type NewOrder struct {
	Number        string
	UserID        int64
	PaymentMethod string
	Subtotal      decimal.Decimal
	VAT           decimal.Decimal
	DeliveryFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	Address       domain.Address
	Items         []domain.OrderItem
}

// Insert stores the order header, its lines and the first history entry.
func (r *OrderRepo) Insert(tx *sqlx.Tx, o NewOrder) (int64, error) {
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return 0, err
	}
	ts := now()
	res, err := tx.Exec(`INSERT INTO orders(order_number, user_id, status, payment_method, payment_status,
		  subtotal, vat, delivery_fee, discount, total, notes, shipping_address, created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.Number, o.UserID, domain.OrderPending, o.PaymentMethod, "pending",
		o.Subtotal, o.VAT, o.DeliveryFee, o.Discount, o.Total, o.Notes, string(addr), ts)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, it := range o.Items {
		var vid int64
		if it.VariantID != nil {
			vid = *it.VariantID
		}
		if _, err := tx.Exec(`INSERT INTO order_items(order_id,product_id,variant_id,product_name,variant_name,quantity,unit_price,line_total)
			VALUES(?,?,?,?,?,?,?,?)`, id, it.ProductID, vid, it.ProductName, it.VariantName, it.Quantity, it.UnitPrice, it.LineTotal); err != nil {
			return 0, err
		}
	}
	if err := r.AddHistory(tx, id, domain.OrderPending, ""); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrderRepo) AddHistory(tx *sqlx.Tx, orderID int64, status domain.OrderStatus, note string) error {
	_, err := tx.Exec(`INSERT INTO order_status_history(order_id,status,note,created_at) VALUES(?,?,?,?)`, orderID, status, note, now())
	return err
}

// SetStatus updates the status and records it in the history.
func (r *OrderRepo) SetStatus(tx *sqlx.Tx, orderID int64, status domain.OrderStatus, note string) error {
	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, orderID); err != nil {
		return err
	}
	return r.AddHistory(tx, orderID, status, note)
}

// Get loads the user's order with lines and history.
func (r *OrderRepo) Get(q sqlx.Queryer, userID, id int64) (domain.Order, error) {
	var row orderRow
	if err := sqlx.Get(q, &row, `SELECT `+orderCols+` FROM orders WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return domain.Order{}, notFound(err)
	}
	o := row.toDomain()

	var items []struct {
		ID          int64           `db:"id"`
		ProductID   int64           `db:"product_id"`
		VariantID   int64           `db:"variant_id"`
		ProductName string          `db:"product_name"`
		VariantName string          `db:"variant_name"`
		Quantity    int             `db:"quantity"`
		UnitPrice   decimal.Decimal `db:"unit_price"`
		LineTotal   decimal.Decimal `db:"line_total"`
	}
	if err := sqlx.Select(q, &items, `SELECT id, product_id, variant_id, product_name, variant_name, quantity, unit_price, line_total
		FROM order_items WHERE order_id = ? ORDER BY id`, id); err != nil {
		return domain.Order{}, err
	}
	for _, it := range items {
		oi := domain.OrderItem{
			ID: it.ID, ProductID: it.ProductID, ProductName: it.ProductName, VariantName: it.VariantName,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice, LineTotal: it.LineTotal,
		}
		if it.VariantID != 0 {
			vid := it.VariantID
			oi.VariantID = &vid
		}
		o.Items = append(o.Items, oi)
	}

	var hist []struct {
		Status    string `db:"status"`
		Note      string `db:"note"`
		CreatedAt string `db:"created_at"`
	}
	if err := sqlx.Select(q, &hist, `SELECT status, note, created_at FROM order_status_history WHERE order_id = ? ORDER BY id`, id); err != nil {
		return domain.Order{}, err
	}
	for _, h := range hist {
		o.StatusHistory = append(o.StatusHistory, domain.OrderStatusEntry{Status: domain.OrderStatus(h.Status), Note: h.Note, CreatedAt: parseTime(h.CreatedAt)})
	}
	return o, nil
}

// List returns one page of the user's orders, newest first, without lines.
func (r *OrderRepo) List(userID int64, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID); err != nil {
		return nil, 0, err
	}
	var rows []orderRow
	if err := r.db.Select(&rows, `SELECT `+orderCols+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset); err != nil {
		return nil, 0, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

// HasDelivered reports whether the user received an order containing the product.
func (r *OrderRepo) HasDelivered(userID, productID int64) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders o JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.status = ?`, userID, productID, domain.OrderDelivered)
	return n > 0, err
}
