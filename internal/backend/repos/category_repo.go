package repos

import (
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"

	"easybake/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type categoryRow struct {
	ID        int64         `db:"id"`
	Slug      string        `db:"slug"`
	ParentID  sql.NullInt64 `db:"parent_id"`
	NameEN    string        `db:"name_en"`
	NameAR    string        `db:"name_ar"`
	DescEN    string        `db:"description_en"`
	DescAR    string        `db:"description_ar"`
	Image     string        `db:"image"`
	SortOrder int           `db:"sort_order"`
}

func (r categoryRow) toDomain(locale string) domain.Category {
	c := domain.Category{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        pick(locale, r.NameEN, r.NameAR),
		Description: pick(locale, r.DescEN, r.DescAR),
		Image:       r.Image,
		SortOrder:   r.SortOrder,
		Translations: map[string]domain.Translation{
			domain.LocaleEN: {Name: r.NameEN, Description: r.DescEN},
			domain.LocaleAR: {Name: r.NameAR, Description: r.DescAR},
		},
	}
	if r.ParentID.Valid {
		id := r.ParentID.Int64
		c.ParentID = &id
	}
	return c
}

const categoryCols = `id, slug, parent_id, name_en, name_ar, description_en, description_ar, image, sort_order`

// Tree returns root categories with their children, in display order.
func (r *CategoryRepo) Tree(locale string) ([]domain.Category, error) {
	var rows []categoryRow
	if err := r.db.Select(&rows, `SELECT `+categoryCols+` FROM categories ORDER BY sort_order, id`); err != nil {
		return nil, err
	}
	children := map[int64][]domain.Category{}
	for _, row := range rows {
		if row.ParentID.Valid {
			children[row.ParentID.Int64] = append(children[row.ParentID.Int64], row.toDomain(locale))
		}
	}
	out := []domain.Category{}
	for _, row := range rows {
		if row.ParentID.Valid {
			continue
		}
		c := row.toDomain(locale)
		c.Children = children[c.ID]
		out = append(out, c)
	}
	return out, nil
}

// Find looks a category up by numeric id or slug and loads its children.
func (r *CategoryRepo) Find(idOrSlug, locale string) (domain.Category, error) {
	var row categoryRow
	var err error
	if id, perr := strconv.ParseInt(idOrSlug, 10, 64); perr == nil {
		err = r.db.Get(&row, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	} else {
		err = r.db.Get(&row, `SELECT `+categoryCols+` FROM categories WHERE slug = ?`, idOrSlug)
	}
	if err != nil {
		return domain.Category{}, notFound(err)
	}
	c := row.toDomain(locale)
	var kids []categoryRow
	if err := r.db.Select(&kids, `SELECT `+categoryCols+` FROM categories WHERE parent_id = ? ORDER BY sort_order, id`, c.ID); err != nil {
		return domain.Category{}, err
	}
	for _, k := range kids {
		c.Children = append(c.Children, k.toDomain(locale))
	}
	return c, nil
}
