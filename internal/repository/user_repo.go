package repository

import (
	"context"
	"fmt"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/db"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/oxidb"
)

const UsersCollection = "_op_users"

type UserRepo struct {
	pool *db.Pool
}

func NewUserRepo(pool *db.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	return r.pool.Do(ctx, func(c *oxidb.Client) error {
		if err := c.CreateUniqueIndex(ctx, UsersCollection, "email"); err != nil {
			return err
		}
		return c.CreateUniqueIndex(ctx, UsersCollection, "iuid")
	})
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, map[string]any{"email": email})
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, map[string]any{"iuid": id})
}

func (r *UserRepo) findOne(ctx context.Context, query map[string]any) (*models.User, error) {
	var user *models.User
	err := r.pool.Do(ctx, func(c *oxidb.Client) error {
		doc, err := c.FindOne(ctx, UsersCollection, query)
		if err != nil || doc == nil {
			return err
		}
		user, err = fromDoc[models.User](doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	doc, err := toDoc(user)
	if err != nil {
		return err
	}
	err = r.pool.Do(ctx, func(c *oxidb.Client) error {
		_, err := c.Insert(ctx, UsersCollection, doc)
		return err
	})
	if oxidb.IsDuplicateKey(err) {
		return apperr.Conflict("email already registered")
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}
