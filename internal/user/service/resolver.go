package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/paysynclabs/paysync/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type resolver struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewResolver(p Params) domain.Resolver {
	return &resolver{
		db:    p.DB,
		log:   p.Log.Named("user.resolver"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Resolve looks up an account by exact email match. Existing accounts
// are returned unmodified; profile fields are never overwritten here.
// New accounts are created together with their default API key in one
// transaction so provisioning happens exactly once.
func (r *resolver) Resolve(ctx context.Context, email, name string) (*domain.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, domain.ErrInvalidEmail
	}

	existing, err := r.repo.FindByEmail(ctx, r.db, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        r.genID.Generate(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.repo.Insert(ctx, tx, user); err != nil {
			return err
		}
		key := &domain.APIKey{
			ID:        r.genID.Generate(),
			UserID:    user.ID,
			Name:      "default",
			KeyHash:   HashAPIKey(uuid.NewString()),
			IsActive:  true,
			CreatedAt: now,
		}
		return r.repo.InsertAPIKey(ctx, tx, key)
	})
	if err != nil {
		// A concurrent import may have created the account between the
		// lookup and the insert; fall back to the existing row.
		if fallback, lookupErr := r.repo.FindByEmail(ctx, r.db, email); lookupErr == nil && fallback != nil {
			return fallback, false, nil
		}
		return nil, false, err
	}

	r.log.Info("user account provisioned",
		zap.String("email", email),
		zap.String("user_id", user.ID.String()),
	)
	return user, true, nil
}

// HashAPIKey hashes raw keys for storage. Only the hash is persisted.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
