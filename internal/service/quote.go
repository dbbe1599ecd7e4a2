package service

import (
	"strings"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/models"
)

// Cart bounds. A basket past these is malformed or abusive.
const (
	maxQuoteLines        = 50
	maxQuoteLineQuantity = 10
)

// QuoteItem is one cart line, priced in minor units.
type QuoteItem struct {
	ProductID      uint   `json:"product_id"`
	Title          string `json:"title"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int    `json:"quantity"`
	Variation      string `json:"variation,omitempty"`
	Color          string `json:"color,omitempty"`
}

// Quote is the priced breakdown of a cart. All amounts are minor units
// and the identity subtotal - discount + shipping - gift_card = total
// holds for every quote this package produces.
type Quote struct {
	Items         []QuoteItem `json:"items"`
	SubtotalMinor int64       `json:"subtotal_minor"`
	DiscountMinor int64       `json:"discount_minor"`
	ShippingMinor int64       `json:"shipping_minor"`
	GiftCardMinor int64       `json:"gift_card_minor"`
	TotalMinor    int64       `json:"total_minor"`
	DiscountCode  string      `json:"discount_code,omitempty"`
	GiftCardCode  string      `json:"gift_card_code,omitempty"`
	FreeDelivery  bool        `json:"free_delivery"`
}

// BuildQuote prices a cart deterministically. The discount applies to
// the subtotal, shipping is decided on the discounted subtotal, and the
// gift card absorbs whatever remains last, so it can cover shipping.
// giftCardCapMinor limits how much of the card's balance may be
// applied; zero means no cap.
func BuildQuote(items []QuoteItem, discount *DiscountEvaluation, giftCard *models.GiftCard, giftCardCapMinor int64, shipping config.ShippingConfig) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	if len(items) > maxQuoteLines {
		return nil, ErrCheckoutInvalid
	}
	if giftCardCapMinor < 0 {
		return nil, ErrCheckoutInvalid
	}

	var subtotal int64
	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > maxQuoteLineQuantity ||
			item.UnitPriceMinor <= 0 || strings.TrimSpace(item.Title) == "" {
			return nil, ErrCheckoutInvalid
		}
		subtotal += item.UnitPriceMinor * int64(item.Quantity)
	}

	quote := &Quote{Items: items, SubtotalMinor: subtotal}

	if discount != nil {
		quote.DiscountMinor = models.MinMinor(discount.DiscountMinor, subtotal)
		quote.FreeDelivery = discount.FreeDelivery
		if discount.Code != nil {
			quote.DiscountCode = discount.Code.Code
		}
	}

	discounted := subtotal - quote.DiscountMinor
	if !quote.FreeDelivery && discounted < shipping.FreeThresholdMinor {
		quote.ShippingMinor = shipping.FlatRateMinor
	}

	payable := discounted + quote.ShippingMinor
	if giftCard != nil {
		quote.GiftCardCode = giftCard.Code
		applicable := giftCard.CurrentBalance.MinorUnits()
		if giftCardCapMinor > 0 {
			applicable = models.MinMinor(applicable, giftCardCapMinor)
		}
		quote.GiftCardMinor = models.MinMinor(applicable, payable)
	}

	quote.TotalMinor = payable - quote.GiftCardMinor
	return quote, nil
}

// ToOrderItems converts quote lines into the persisted order shape.
func (q *Quote) ToOrderItems() models.OrderItems {
	items := make(models.OrderItems, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, models.OrderItem{
			ProductID:      item.ProductID,
			Title:          strings.TrimSpace(item.Title),
			UnitPriceMinor: item.UnitPriceMinor,
			Quantity:       item.Quantity,
			Variation:      strings.TrimSpace(item.Variation),
			Color:          strings.TrimSpace(item.Color),
		})
	}
	return items
}
