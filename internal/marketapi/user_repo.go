package marketapi

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"thriftbazaar/internal/domain"
)

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	ShopName     string `db:"shop_name"`
	Phone        string `db:"phone"`
	Address      string `db:"address"`
	Description  string `db:"description"`
}

func (u userRow) vendor() domain.Vendor {
	return domain.Vendor{
		ID: u.ID, Name: u.Name, Email: u.Email, ShopName: u.ShopName,
		Phone: u.Phone, Address: u.Address, Description: u.Description,
	}
}

const userCols = `id,email,name,password_hash,role,shop_name,phone,address,description`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *UserRepo) ByEmail(email string) (userRow, error) {
	var u userRow
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	return u, notFound(err)
}

func (r *UserRepo) ByID(id string) (userRow, error) {
	var u userRow
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	return u, notFound(err)
}

// Create inserts u; a duplicate email yields domain.ErrEmailTaken.
func (r *UserRepo) Create(u userRow) error {
	_, err := r.DB.NamedExec(`
		INSERT INTO users(`+userCols+`)
		VALUES(:id,:email,:name,:password_hash,:role,:shop_name,:phone,:address,:description)`, u)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) UpdateProfile(id string, v domain.Vendor) error {
	res, err := r.DB.Exec(`
		UPDATE users SET name=?, shop_name=?, phone=?, address=?, description=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, v.Name, v.ShopName, v.Phone, v.Address, v.Description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
