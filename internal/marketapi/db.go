// Package marketapi is a development stand-in for the marketplace REST API:
// products, vendor accounts, login and image hosting.
package marketapi

import (
	"embed"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"thriftbazaar/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DemoPassword is the password of every seeded account.
const DemoPassword = "Passw0rd!"

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := storage.OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}
	// Ensure demo accounts and listings exist (idempotent; safe to run every start)
	if err := seedUsers(db, bcrypt.DefaultCost); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seedProducts(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// seedUsers ensures two vendors and one customer exist.
func seedUsers(db *sqlx.DB, cost int) error {
	type u struct {
		ID, Email, Name, Role, Shop, Hash string
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return err
	}
	users := []u{
		{"seller1", "priya@thriftbazaar.test", "Priya", "VENDOR", "VintageVault Store", string(h)},
		{"seller2", "arjun@thriftbazaar.test", "Arjun", "VENDOR", "ClassicStyle Shop", string(h)},
		{"u-meera", "meera@thriftbazaar.test", "Meera", "CUSTOMER", "", string(h)},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,shop_name)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, x.Shop); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func seedProducts(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo listings")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,vendor_id,name,description,price,category,condition,size,color,material,images_json) VALUES
	  ('p-denim-01','seller1','Levi''s 501 Jeans','Classic straight fit, lightly faded.','1832','JEANS','Excellent','32','Blue','Denim','["https://images.unsplash.com/photo-1542272604-787c3835535d?w=600"]'),
	  ('p-jacket-01','seller1','Corduroy Trucker Jacket','Warm lined jacket, minor wear on cuffs.','2499','JACKETS','Good','M','Brown','Corduroy','["https://images.unsplash.com/photo-1551028719-00167b16eac5?w=600"]'),
	  ('p-dress-01','seller2','Floral Summer Dress','Midi length, worn twice.','1250','DRESSES','Excellent','S','Yellow','Cotton','["https://images.unsplash.com/photo-1515372039744-b8f02a3ae446?w=600"]'),
	  ('p-hoodie-01','seller2','College Hoodie','Oversized fit, some pilling.','899','HOODIES','Fair','L','Grey','Cotton blend','["https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=600"]')`)
	return tx.Commit()
}
