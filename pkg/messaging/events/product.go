package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/shopspring/decimal"
)

// ProductEvent is emitted after a product is created, updated or removed.
type ProductEvent struct {
	Type       string            `json:"type"`
	ProductID  int64             `json:"product_id"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Available  bool              `json:"available"`
	OccurredAt time.Time         `json:"occurred_at"`
	Carrier    map[string]string `json:"carrier,omitempty"`
}

func (e ProductEvent) Subject() string {
	return messaging.ProductsSubjectPrefix + e.Type
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func (e ProductEvent) Key() []byte {
	return []byte(strconv.FormatInt(e.ProductID, 10))
}

const (
	TypeCreated = "created"
	TypeUpdated = "updated"
	TypeRemoved = "removed"
)
