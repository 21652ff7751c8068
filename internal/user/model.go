package user

import (
	"time"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
)

type User struct {
	ID        string        `json:"$id"`
	AccountID string        `json:"accountId"`
	Name      string        `json:"name"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	ImageURL  string        `json:"imageUrl"`
	Bio       string        `json:"bio,omitempty"`
	Saves     []SavedRecord `json:"save,omitempty"`
	CreatedAt time.Time     `json:"$createdAt"`
	UpdatedAt time.Time     `json:"$updatedAt"`
}

// SavedRecord est un enregistrement "save" tel qu'il apparaît dans le profil
// quand la relation est développée.
type SavedRecord struct {
	ID   string     `json:"$id"`
	Post remote.Ref `json:"post"`
}

type NewUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile est le document écrit dans la collection Users à l'inscription.
type Profile struct {
	AccountID string
	Email     string
	Name      string
	Username  string
	ImageURL  string
}

func decode(op string, doc *remote.Document) (*User, error) {
	var u User
	if err := doc.Decode(&u); err != nil {
		return nil, errs.Remote(op, err)
	}
	return &u, nil
}
