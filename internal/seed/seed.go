// Package seed loads an admin account and a small demo catalog for manual
// testing. Running it again leaves existing rows untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"mini-commerce/internal/domain"
	productrepo "mini-commerce/internal/repository/product"
	"mini-commerce/internal/repository/uow"
)

// Admin describes the account to create. An empty password skips it.
type Admin struct {
	Name     string
	Email    string
	Password string
}

var demoProducts = []domain.Product{
	{Title: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", PriceCents: 1999, Stock: 50, Category: "apparel"},
	{Title: "Demo Mug", Description: "Ceramic mug with demo logo", PriceCents: 1299, Stock: 25, Category: "kitchen"},
	{Title: "Demo Notebook", Description: "A5 dotted notebook", PriceCents: 899, Stock: 100, Category: "stationery"},
}

// Apply creates the admin and any missing demo products in one transaction.
func Apply(ctx context.Context, store uow.Store, admin Admin, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return store.InTx(ctx, func(ctx context.Context, r uow.Repos) error {
		if err := ensureAdmin(ctx, r, admin, logger); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		existing, err := r.Products.List(ctx, productrepo.ListFilter{})
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		titles := make(map[string]struct{}, len(existing))
		for _, p := range existing {
			titles[strings.ToLower(p.Title)] = struct{}{}
		}
		for _, p := range demoProducts {
			if _, ok := titles[strings.ToLower(p.Title)]; ok {
				continue
			}
			if _, err := r.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("create product %q: %w", p.Title, err)
			}
			logger.WithField("title", p.Title).Info("seeded product")
		}
		return nil
	})
}

func ensureAdmin(ctx context.Context, r uow.Repos, admin Admin, logger logrus.FieldLogger) error {
	if admin.Password == "" {
		logger.Warn("no admin password configured, skipping admin account")
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	_, err := r.Users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	if _, err := r.Users.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}); err != nil {
		return err
	}
	logger.WithField("email", email).Info("seeded admin account")
	return nil
}
