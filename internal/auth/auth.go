package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"buildboard-backend/internal/activity"
)

// Account is the stored identity behind a session.
type Account struct {
	ID           int    `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	Contact      string `db:"contact" json:"contact"`
	Role         Role   `db:"role" json:"role"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// ProfileUpdate is applied to the caller's own account. An empty
// PasswordHash leaves the password unchanged.
type ProfileUpdate struct {
	Name         string
	Email        string
	Contact      string
	PasswordHash string
}

// AccountStore is implemented by the users store.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id int) (Account, error)
	UpdateProfile(ctx context.Context, id int, upd ProfileUpdate) (Account, error)
}

type Handler struct {
	accounts     AccountStore
	tokens       *Tokens
	activity     *activity.Recorder
	log          *logrus.Entry
	cookieSecure bool
}

func NewHandler(accounts AccountStore, tokens *Tokens, rec *activity.Recorder, log *logrus.Entry, cookieSecure bool) *Handler {
	return &Handler{
		accounts:     accounts,
		tokens:       tokens,
		activity:     rec,
		log:          log,
		cookieSecure: cookieSecure,
	}
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
