package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coffeehub/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, name, slug, description, roast, origin, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) BySlug(slug string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, name, slug, description, roast, origin, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE slug = ?
	`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

// List returns the storefront catalog. Admins pass includeInactive to see
// everything; shoppers never do.
func (r *ProductRepo) List(includeInactive bool) ([]domain.Product, error) {
	q := `
	  SELECT id, name, slug, description, roast, origin, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products`
	if !includeInactive {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY name`

	var out []domain.Product
	err := r.db.Select(&out, q)
	return out, err
}
