package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ProductTypes = []string{"Foods", "Electronics", "Clothing", "Books", "Toys", "Other"}

const (
	ExchangeYes = "Yes"
	ExchangeNo  = "No"
)

type Product struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProductName         string             `bson:"productName" json:"productName"`
	ProductType         string             `bson:"productType" json:"productType"`
	QuantityStock       int                `bson:"quantityStock" json:"quantityStock"`
	MRP                 float64            `bson:"mrp" json:"mrp"`
	SellingPrice        float64            `bson:"sellingPrice" json:"sellingPrice"`
	BrandName           string             `bson:"brandName" json:"brandName"`
	Images              []string           `bson:"images" json:"images"`
	ExchangeEligibility string             `bson:"exchangeEligibility" json:"exchangeEligibility"`
	IsPublished         bool               `bson:"isPublished" json:"isPublished"`
	CreatedBy           primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func IsProductType(value string) bool {
	for _, t := range ProductTypes {
		if t == value {
			return true
		}
	}
	return false
}

func (p *Product) OwnedBy(userID primitive.ObjectID) bool {
	return p.CreatedBy == userID
}
