package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/credentials"
	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	cache       cache.ProductCache
	hasher      credentials.Hasher
	log         zerolog.Logger
	cacheTTL    time.Duration
	dummyDigest string
}

func New(repo store.Repository, productCache cache.ProductCache, hasher credentials.Hasher, log zerolog.Logger, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	// Hashed once up front so failed logins for unknown usernames cost a
	// bcrypt comparison too, keeping response timing uniform.
	dummyDigest, err := hasher.Hash("warungpos-dummy-password")
	if err != nil {
		dummyDigest = ""
	}

	return &Service{
		repo:        repo,
		cache:       productCache,
		hasher:      hasher,
		log:         log,
		cacheTTL:    cacheTTL,
		dummyDigest: dummyDigest,
	}
}

func (s *Service) requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return domain.Actor{}, fmt.Errorf("authentication required")
	}
	return actor, nil
}

// Authenticate verifies a username/password pair against the user store.
// Every failure mode (unknown username, wrong password, inactive account)
// returns (nil, nil) so callers cannot distinguish them.
func (s *Service) Authenticate(ctx context.Context, username string, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, nil
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}
	if !user.IsActive {
		return nil, nil
	}

	now := time.Now().UTC()
	if err := s.repo.TouchUserLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("user authenticated")
	return user, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrInvalidInput
	}

	if cached, found, err := s.cache.Get(ctx, barcode); err == nil && found {
		return cached, nil
	}

	product, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, barcode, product, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("barcode", barcode).Msg("product cache set failed")
	}
	return product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Barcode == "" || req.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:     req.Name,
		Barcode:  req.Barcode,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("product_id", created.ID).Str("barcode", created.Barcode).Str("by", actor.Username).Msg("product created")
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldBarcode := existing.Barcode

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Barcode != nil {
		barcode := strings.TrimSpace(*req.Barcode)
		if barcode == "" {
			return nil, store.ErrInvalidInput
		}
		updated.Barcode = barcode
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.Stock != nil {
		updated.Stock = *req.Stock
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}

	result, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.invalidateProduct(ctx, oldBarcode)
	if result.Barcode != oldBarcode {
		s.invalidateProduct(ctx, result.Barcode)
	}
	s.log.Info().Str("product_id", result.ID).Str("by", actor.Username).Msg("product updated")
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidateProduct(ctx, existing.Barcode)
	s.log.Info().Str("product_id", id).Str("by", actor.Username).Msg("product deleted")
	return nil
}

func (s *Service) invalidateProduct(ctx context.Context, barcode string) {
	if barcode == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, barcode); err != nil {
		s.log.Warn().Err(err).Str("barcode", barcode).Msg("product cache invalidation failed")
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.User, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 || strings.ContainsAny(username, " \t\r\n") {
		return nil, fmt.Errorf("username must be at least 4 characters without spaces")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	role := req.Role
	if role == "" {
		role = domain.RoleCashier
	}
	if role != domain.RoleAdmin && role != domain.RoleCashier {
		return nil, store.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password")
	}

	created, err := s.repo.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Str("role", created.Role).Str("by", actor.Username).Msg("user created")
	return created, nil
}

func (s *Service) ChangePassword(ctx context.Context, req domain.PasswordChangeRequest) error {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = actor.Username
	}
	if username != actor.Username && actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	if len(req.NewPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if username == actor.Username && !s.hasher.Verify(req.OldPassword, user.PasswordHash) {
		return fmt.Errorf("current password mismatch")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password")
	}
	if err := s.repo.UpdateUserPassword(ctx, username, hash); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Str("by", actor.Username).Msg("password changed")
	return nil
}

func (s *Service) ListRegisters(ctx context.Context) ([]domain.CashRegister, error) {
	return s.repo.ListRegisters(ctx)
}

func (s *Service) ListReceiptTemplates(ctx context.Context) ([]domain.ReceiptTemplate, error) {
	return s.repo.ListReceiptTemplates(ctx)
}

func (s *Service) SaveReceiptTemplate(ctx context.Context, template domain.ReceiptTemplate) (*domain.ReceiptTemplate, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	if err := template.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	if template.CreatedBy == "" {
		template.CreatedBy = actor.Username
	}
	return s.repo.SaveReceiptTemplate(ctx, template)
}

func (s *Service) ListPrinterSettings(ctx context.Context) ([]domain.PrinterSettings, error) {
	return s.repo.ListPrinterSettings(ctx)
}

func (s *Service) SavePrinterSettings(ctx context.Context, settings domain.PrinterSettings) (*domain.PrinterSettings, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return s.repo.SavePrinterSettings(ctx, settings)
}
