package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog/internal/models"
)

// MemoryUserStore backs STORE_DRIVER=memory and tests. Values are copied in and
// out so callers never share state with the store.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[objectID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) FindByIdentifier(_ context.Context, emailOrPhone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.EmailOrPhone == emailOrPhone {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.EmailOrPhone == user.EmailOrPhone {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (s *MemoryUserStore) SetOTP(_ context.Context, id primitive.ObjectID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.OTP = &code
	u.OTPExpiry = &expiresAt
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) ConsumeOTP(_ context.Context, id primitive.ObjectID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.OTP == nil || *u.OTP != code {
		return ErrNotFound
	}
	u.OTP = nil
	u.OTPExpiry = nil
	u.IsVerified = true
	s.users[id] = u
	return nil
}

func cloneUser(u models.User) *models.User {
	if u.OTP != nil {
		code := *u.OTP
		u.OTP = &code
	}
	if u.OTPExpiry != nil {
		expiry := *u.OTPExpiry
		u.OTPExpiry = &expiry
	}
	return &u
}

type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[primitive.ObjectID]models.Product)}
}

func (s *MemoryProductStore) Insert(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (s *MemoryProductStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[objectID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (s *MemoryProductStore) ListByOwner(_ context.Context, owner primitive.ObjectID, published *bool) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range s.products {
		if p.CreatedBy != owner {
			continue
		}
		if published != nil && p.IsPublished != *published {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryProductStore) Replace(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return ErrNotFound
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = time.Now()
	}
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func cloneProduct(p models.Product) models.Product {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	p.Images = images
	return p
}

var (
	_ UserStore    = (*MemoryUserStore)(nil)
	_ UserStore    = (*MongoUserStore)(nil)
	_ ProductStore = (*MemoryProductStore)(nil)
	_ ProductStore = (*MongoProductStore)(nil)
)
