package services

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog/internal/events"
	"catalog/internal/models"
	"catalog/internal/repository"
)

// ImageStore is the part of storage.Attachments the product service needs.
type ImageStore interface {
	Store(ctx context.Context, files []*multipart.FileHeader, baseURL string) ([]string, error)
	ReclaimAll(refs []string)
}

// ProductInput carries the submitted fields. Each XSet flag records whether
// X was present in the request, so partial updates can tell zero from absent.
type ProductInput struct {
	ProductName            string
	ProductNameSet         bool
	ProductType            string
	ProductTypeSet         bool
	QuantityStock          int
	QuantityStockSet       bool
	MRP                    float64
	MRPSet                 bool
	SellingPrice           float64
	SellingPriceSet        bool
	BrandName              string
	BrandNameSet           bool
	ExchangeEligibility    string
	ExchangeEligibilitySet bool

	// RemoveImages lists references to drop from the product on update.
	RemoveImages []string
}

type ProductService struct {
	products  repository.ProductStore
	images    ImageStore
	events    events.Publisher
	maxImages int
	log       *zap.Logger
	now       func() time.Time
}

func NewProductService(products repository.ProductStore, images ImageStore, publisher events.Publisher, maxImages int, log *zap.Logger) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductService{
		products:  products,
		images:    images,
		events:    publisher,
		maxImages: maxImages,
		log:       log,
		now:       time.Now,
	}
}

func (s *ProductService) MaxImages() int { return s.maxImages }

// List returns the user's products, newest first. A nil published matches all.
func (s *ProductService) List(ctx context.Context, user *models.User, published *bool) ([]models.Product, error) {
	products, err := s.products.ListByOwner(ctx, user.ID, published)
	if err != nil {
		return nil, models.Unexpected("Error fetching products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, user *models.User, id string) (*models.Product, error) {
	return s.owned(ctx, user, id, "access")
}

// CheckEditable reports whether user may update the product, so callers can
// refuse a non-owner before reading the request body.
func (s *ProductService) CheckEditable(ctx context.Context, user *models.User, id string) error {
	_, err := s.owned(ctx, user, id, "update")
	return err
}

func (s *ProductService) Create(ctx context.Context, user *models.User, input ProductInput, files []*multipart.FileHeader, baseURL string) (*models.Product, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if len(files) > s.maxImages {
		return nil, models.Validationf("A product can have at most %d images", s.maxImages)
	}

	now := s.now().UTC()
	product := &models.Product{
		CreatedBy:           user.ID,
		ExchangeEligibility: models.ExchangeNo,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	applyInput(product, input)

	refs, err := s.images.Store(ctx, files, baseURL)
	if err != nil {
		return nil, err
	}
	product.Images = refs

	if err := s.products.Insert(ctx, product); err != nil {
		s.images.ReclaimAll(refs)
		return nil, models.Unexpected("Error creating product", err)
	}

	s.log.Info("product created", zap.String("productId", product.ID.Hex()), zap.String("userId", user.ID.Hex()), zap.Int("images", len(refs)))
	s.publish(ctx, events.RKProductCreated, product)
	return product, nil
}

// Update applies the present fields, drops RemoveImages and appends new
// uploads. Removed files are reclaimed only after the record is saved.
func (s *ProductService) Update(ctx context.Context, user *models.User, id string, input ProductInput, files []*multipart.FileHeader, baseURL string) (*models.Product, error) {
	product, err := s.owned(ctx, user, id, "update")
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	kept, removed, err := splitImages(product.Images, input.RemoveImages)
	if err != nil {
		return nil, err
	}
	if len(kept)+len(files) > s.maxImages {
		return nil, models.Validationf("A product can have at most %d images", s.maxImages)
	}

	applyInput(product, input)

	added, err := s.images.Store(ctx, files, baseURL)
	if err != nil {
		return nil, err
	}
	product.Images = append(kept, added...)
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Replace(ctx, product); err != nil {
		s.images.ReclaimAll(added)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NotFound("Product not found")
		}
		return nil, models.Unexpected("Error updating product", err)
	}
	s.images.ReclaimAll(removed)

	s.log.Info("product updated", zap.String("productId", product.ID.Hex()), zap.Int("added", len(added)), zap.Int("removed", len(removed)))
	s.publish(ctx, events.RKProductUpdated, product)
	return product, nil
}

// Delete reclaims the product's files, then removes the record. File
// failures are logged and never fail the call.
func (s *ProductService) Delete(ctx context.Context, user *models.User, id string) error {
	product, err := s.owned(ctx, user, id, "delete")
	if err != nil {
		return err
	}

	s.images.ReclaimAll(product.Images)

	if err := s.products.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NotFound("Product not found")
		}
		return models.Unexpected("Error deleting product", err)
	}

	s.log.Info("product deleted", zap.String("productId", product.ID.Hex()))
	s.publish(ctx, events.RKProductDeleted, product)
	return nil
}

func (s *ProductService) TogglePublish(ctx context.Context, user *models.User, id string) (*models.Product, error) {
	product, err := s.owned(ctx, user, id, "modify")
	if err != nil {
		return nil, err
	}

	product.IsPublished = !product.IsPublished
	product.UpdatedAt = s.now().UTC()
	if err := s.products.Replace(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NotFound("Product not found")
		}
		return nil, models.Unexpected("Error updating product status", err)
	}

	key := events.RKProductUnpublished
	if product.IsPublished {
		key = events.RKProductPublished
	}
	s.publish(ctx, key, product)
	return product, nil
}

func (s *ProductService) owned(ctx context.Context, user *models.User, id, action string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NotFound("Product not found")
	}
	if err != nil {
		return nil, models.Unexpected("Error fetching product", err)
	}
	if !product.OwnedBy(user.ID) {
		s.log.Warn("ownership check failed", zap.String("productId", id), zap.String("userId", user.ID.Hex()))
		return nil, models.Forbidden("Not authorized to " + action + " this product")
	}
	return product, nil
}

func (s *ProductService) publish(ctx context.Context, key string, p *models.Product) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.events.Publish(ctx, key, events.ProductChanged{
		ProductID:   p.ID.Hex(),
		OwnerID:     p.CreatedBy.Hex(),
		ProductName: p.ProductName,
		IsPublished: p.IsPublished,
		ImageCount:  len(p.Images),
		At:          s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("event publish failed", zap.String("key", key), zap.String("productId", p.ID.Hex()), zap.Error(err))
	}
}

func applyInput(p *models.Product, in ProductInput) {
	if in.ProductNameSet && in.ProductName != "" {
		p.ProductName = in.ProductName
	}
	if in.ProductTypeSet && in.ProductType != "" {
		p.ProductType = in.ProductType
	}
	if in.QuantityStockSet {
		p.QuantityStock = in.QuantityStock
	}
	if in.MRPSet {
		p.MRP = in.MRP
	}
	if in.SellingPriceSet {
		p.SellingPrice = in.SellingPrice
	}
	if in.BrandNameSet && in.BrandName != "" {
		p.BrandName = in.BrandName
	}
	if in.ExchangeEligibilitySet && in.ExchangeEligibility != "" {
		p.ExchangeEligibility = in.ExchangeEligibility
	}
}

func validateCreate(in ProductInput) error {
	var missing []string
	if !in.ProductNameSet || in.ProductName == "" {
		missing = append(missing, "productName")
	}
	if !in.ProductTypeSet || in.ProductType == "" {
		missing = append(missing, "productType")
	}
	if !in.QuantityStockSet {
		missing = append(missing, "quantityStock")
	}
	if !in.MRPSet {
		missing = append(missing, "mrp")
	}
	if !in.SellingPriceSet {
		missing = append(missing, "sellingPrice")
	}
	if !in.BrandNameSet || in.BrandName == "" {
		missing = append(missing, "brandName")
	}
	if len(missing) > 0 {
		return models.Validationf("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return validateUpdate(in)
}

// validateUpdate checks only the fields that are present. Blank strings count
// as absent.
func validateUpdate(in ProductInput) error {
	if in.ProductTypeSet && in.ProductType != "" && !models.IsProductType(in.ProductType) {
		return models.Validationf("productType must be one of %s", strings.Join(models.ProductTypes, ", "))
	}
	if in.QuantityStockSet && in.QuantityStock < 0 {
		return models.Validationf("quantityStock must not be negative")
	}
	if in.MRPSet {
		if err := checkAmount("mrp", in.MRP); err != nil {
			return err
		}
	}
	if in.SellingPriceSet {
		if err := checkAmount("sellingPrice", in.SellingPrice); err != nil {
			return err
		}
	}
	if in.ExchangeEligibilitySet && in.ExchangeEligibility != "" &&
		in.ExchangeEligibility != models.ExchangeYes && in.ExchangeEligibility != models.ExchangeNo {
		return models.Validationf("exchangeEligibility must be Yes or No")
	}
	return nil
}

// checkAmount requires a finite, non-negative price. JSON cannot encode NaN
// or the infinities.
func checkAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Validationf("%s must be a finite number", field)
	}
	if v < 0 {
		return models.Validationf("%s must not be negative", field)
	}
	return nil
}

// splitImages partitions current into the references kept and those named in
// remove. Every entry of remove must be on the product.
func splitImages(current, remove []string) (kept, removed []string, err error) {
	if len(remove) == 0 {
		return append([]string{}, current...), nil, nil
	}

	drop := make(map[string]struct{}, len(remove))
	for _, ref := range remove {
		ref = strings.TrimSpace(ref)
		if ref != "" {
			drop[ref] = struct{}{}
		}
	}

	kept = make([]string, 0, len(current))
	for _, ref := range current {
		if _, ok := drop[ref]; ok {
			removed = append(removed, ref)
			delete(drop, ref)
			continue
		}
		kept = append(kept, ref)
	}
	if len(drop) > 0 {
		return nil, nil, models.Validationf("Image not found on product")
	}
	return kept, removed, nil
}
