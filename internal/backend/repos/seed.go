package repos

import (
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	applog "easybake/internal/log"
)

// Demo customer created by Seed.
const (
	DemoEmail    = "customer@easybake.test"
	DemoPassword = "Passw0rd!"
)

type seedCategory struct {
	slug, parent, en, ar string
	order                int
}

type seedVariant struct {
	en, ar, sku, price string
	stock              int
}

type seedProduct struct {
	slug, category, en, ar, descEN, descAR, price string
	featured, available                           bool
	stock, sold                                   int
	variants                                      []seedVariant
}

var seedCategories = []seedCategory{
	{slug: "breads", en: "Breads", ar: "الخبز", order: 1},
	{slug: "pastries", en: "Pastries", ar: "المعجنات", order: 2},
	{slug: "cakes", en: "Cakes", ar: "الكيك", order: 3},
	{slug: "arabic-sweets", en: "Arabic Sweets", ar: "حلويات عربية", order: 4},
	{slug: "kunafa", parent: "arabic-sweets", en: "Kunafa", ar: "كنافة", order: 1},
}

var seedProducts = []seedProduct{
	{slug: "sourdough-loaf", category: "breads", en: "Sourdough Loaf", ar: "خبز العجين المخمر",
		descEN: "Slow fermented country loaf.", descAR: "رغيف ريفي مخمر ببطء.",
		price: "1.200", featured: true, available: true, stock: 40, sold: 120},
	{slug: "zaatar-manakish", category: "pastries", en: "Za'atar Manakish", ar: "مناقيش زعتر",
		descEN: "Flatbread with za'atar and olive oil.", descAR: "خبز مسطح بالزعتر وزيت الزيتون.",
		price: "0.500", featured: true, available: true, stock: 100, sold: 340},
	{slug: "butter-croissant", category: "pastries", en: "Butter Croissant", ar: "كرواسون بالزبدة",
		descEN: "Laminated all-butter croissant.", descAR: "كرواسون مورق بالزبدة.",
		price: "0.450", available: true, stock: 80, sold: 210},
	{slug: "chocolate-cake", category: "cakes", en: "Chocolate Cake", ar: "كيكة الشوكولاتة",
		descEN: "Dark chocolate layer cake.", descAR: "كيكة طبقات بالشوكولاتة الداكنة.",
		price: "6.500", available: true, stock: 0, sold: 45,
		variants: []seedVariant{
			{en: "Small (6 inch)", ar: "صغير (٦ إنش)", sku: "CAKE-CH-S", price: "6.500", stock: 10},
			{en: "Large (10 inch)", ar: "كبير (١٠ إنش)", sku: "CAKE-CH-L", price: "12.000", stock: 4},
		}},
	{slug: "kunafa-nabulsiya", category: "kunafa", en: "Kunafa Nabulsiya", ar: "كنافة نابلسية",
		descEN: "Cheese kunafa with syrup.", descAR: "كنافة بالجبن والقطر.",
		price: "3.000", featured: true, available: true, stock: 25, sold: 95},
	{slug: "date-maamoul", category: "arabic-sweets", en: "Date Maamoul Box", ar: "علبة معمول التمر",
		descEN: "Twelve date-filled semolina cookies.", descAR: "اثنتا عشرة قطعة معمول بالتمر.",
		price: "2.750", available: false, stock: 0, sold: 60},
}

// Seed inserts the demo catalog and customer once. Running it again is a no-op.
func Seed(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	applog.Info(nil, "seed.catalog", map[string]any{"categories": len(seedCategories), "products": len(seedProducts)})

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	catIDs := map[string]int64{}
	for _, c := range seedCategories {
		var parent any
		if c.parent != "" {
			parent = catIDs[c.parent]
		}
		res, err := tx.Exec(`INSERT INTO categories(slug,parent_id,name_en,name_ar,sort_order) VALUES(?,?,?,?,?)`,
			c.slug, parent, c.en, c.ar, c.order)
		if err != nil {
			return err
		}
		if catIDs[c.slug], err = res.LastInsertId(); err != nil {
			return err
		}
	}

	for _, p := range seedProducts {
		res, err := tx.Exec(`
			INSERT INTO products(slug,category_id,name_en,name_ar,description_en,description_ar,price,
			  has_variants,is_available,is_featured,stock_quantity,sold_count,created_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.slug, catIDs[p.category], p.en, p.ar, p.descEN, p.descAR, p.price,
			len(p.variants) > 0, p.available, p.featured, p.stock, p.sold, now())
		if err != nil {
			return err
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO product_images(product_id,url,alt,is_primary) VALUES(?,?,?,1)`,
			pid, "/media/products/"+p.slug+".jpg", p.en); err != nil {
			return err
		}
		for _, v := range p.variants {
			if _, err := tx.Exec(`INSERT INTO product_variants(product_id,name_en,name_ar,sku,price,stock_quantity) VALUES(?,?,?,?,?,?)`,
				pid, v.en, v.ar, v.sku, v.price, v.stock); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`INSERT INTO users(name,email,phone,password_hash,created_at) VALUES(?,?,?,?,?)`,
		"Demo Customer", DemoEmail, "+973 3600 0000", string(hash), now()); err != nil {
		return err
	}
	return tx.Commit()
}
