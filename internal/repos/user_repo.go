package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coffeehub/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.db.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.db.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// Profile returns the user's saved shipping defaults; a zero Profile
// when none were saved yet.
func (r *UserRepo) Profile(userID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.Get(&p, `
	  SELECT user_id, phone_number, country, postcode, town_or_city,
	         street_address1, street_address2, county
	  FROM user_profiles WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{UserID: userID}, nil
	}
	return p, err
}

// SaveProfileDefaults snapshots a commit's shipping fields as the user's
// new defaults.
func (r *UserRepo) SaveProfileDefaults(userID string, c domain.ShippingContact) error {
	_, err := r.db.Exec(`
	  INSERT INTO user_profiles
	    (user_id, phone_number, country, postcode, town_or_city,
	     street_address1, street_address2, county, updated_at)
	  VALUES (?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(user_id) DO UPDATE SET
	    phone_number = excluded.phone_number,
	    country = excluded.country,
	    postcode = excluded.postcode,
	    town_or_city = excluded.town_or_city,
	    street_address1 = excluded.street_address1,
	    street_address2 = excluded.street_address2,
	    county = excluded.county,
	    updated_at = CURRENT_TIMESTAMP
	`, userID, c.PhoneNumber, c.Country, c.Postcode, c.TownOrCity,
		c.StreetAddress1, c.StreetAddress2, c.County)
	return err
}
