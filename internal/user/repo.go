package user

import (
	"context"
	"errors"
	"strings"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/saga"
)

const DefaultUsersLimit = 10

// MaxUsersLimit borne la taille d'une page d'utilisateurs.
const MaxUsersLimit = 100

// Repo regroupe les opérations liées aux comptes et aux profils.
type Repo struct {
	svc *remote.Service
}

func NewRepo(svc *remote.Service) *Repo {
	return &Repo{svc: svc}
}

// CreateAccount crée l'identité puis le profil. Si le profil ne peut pas être
// écrit, l'identité est supprimée.
func (r *Repo) CreateAccount(ctx context.Context, in NewUser) (*User, error) {
	const op = "createAccount"

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, errs.Validation(op, "name, email and password are required")
	}

	var account *remote.Account
	var created *User

	err := saga.New(op).
		Step("create-identity", func(ctx context.Context) error {
			acc, err := r.svc.Accounts.Create(ctx, remote.UniqueID(), in.Email, in.Password, in.Name)
			if err != nil {
				return remote.Classify(op, err)
			}
			if acc == nil {
				return errs.Remote(op, errors.New("identity creation returned no account"))
			}
			account = acc
			return nil
		}, func(ctx context.Context) error {
			return r.svc.Accounts.Delete(ctx, account.ID)
		}, func() string {
			return "account:" + account.ID
		}).
		Step("save-profile", func(ctx context.Context) error {
			u, err := r.SaveUserToDB(ctx, Profile{
				AccountID: account.ID,
				Name:      account.Name,
				Email:     account.Email,
				Username:  in.Username,
				ImageURL:  r.svc.Avatars.InitialsURL(in.Name),
			})
			if err != nil {
				return err
			}
			created = u
			return nil
		}, nil, nil).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repo) SaveUserToDB(ctx context.Context, p Profile) (*User, error) {
	const op = "saveUserToDB"

	if p.AccountID == "" {
		return nil, errs.Validation(op, "account id is required")
	}

	doc, err := r.svc.Databases.CreateDocument(ctx, r.svc.UserCollection, remote.UniqueID(), map[string]any{
		"accountId": p.AccountID,
		"name":      p.Name,
		"email":     p.Email,
		"username":  p.Username,
		"imageUrl":  p.ImageURL,
	})
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return decode(op, doc)
}

func (r *Repo) SignIn(ctx context.Context, c Credentials) (*remote.Session, error) {
	const op = "signInAccount"

	if c.Email == "" || c.Password == "" {
		return nil, errs.Validation(op, "email and password are required")
	}

	session, err := r.svc.Accounts.CreateEmailSession(ctx, c.Email, c.Password)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return session, nil
}

func (r *Repo) SignOut(ctx context.Context, session *remote.Session) error {
	const op = "signOutAccount"

	if session == nil {
		return errs.Validation(op, "no active session")
	}
	return remote.Classify(op, r.svc.Accounts.DeleteSession(ctx, session))
}

// GetCurrentUser résout la session en compte puis en profil.
func (r *Repo) GetCurrentUser(ctx context.Context, session *remote.Session) (*User, error) {
	const op = "getCurrentUser"

	if session == nil {
		return nil, errs.NotFound(op, errors.New("no active session"))
	}

	account, err := r.svc.Accounts.Get(ctx, session)
	if err != nil {
		if remote.IsUnauthorized(err) {
			return nil, errs.NotFound(op, err)
		}
		return nil, remote.Classify(op, err)
	}

	list, err := r.svc.Databases.ListDocuments(ctx, r.svc.UserCollection,
		remote.Equal("accountId", account.ID),
		remote.Limit(1),
	)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	if len(list.Documents) == 0 {
		return nil, errs.NotFound(op, errors.New("no profile for account "+account.ID))
	}
	return decode(op, list.Documents[0])
}

// GetUsers liste les profils, les plus récents d'abord.
func (r *Repo) GetUsers(ctx context.Context, limit int) ([]*User, error) {
	const op = "getUsers"

	if limit <= 0 {
		limit = DefaultUsersLimit
	}
	limit = min(limit, MaxUsersLimit)

	list, err := r.svc.Databases.ListDocuments(ctx, r.svc.UserCollection,
		remote.OrderDesc(remote.AttrCreatedAt),
		remote.Limit(limit),
	)
	if err != nil {
		return nil, remote.Classify(op, err)
	}

	users := make([]*User, 0, len(list.Documents))
	for _, doc := range list.Documents {
		u, err := decode(op, doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (*User, error) {
	const op = "getUserById"

	if id == "" {
		return nil, errs.Validation(op, "user id is required")
	}

	doc, err := r.svc.Databases.GetDocument(ctx, r.svc.UserCollection, id)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return decode(op, doc)
}
