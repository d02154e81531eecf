package dynamo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Item types share one table. pk identifies the record, sk is fixed per
// type, and gsi1 lists every record of a type ordered by creation time.
const (
	typeUser     = "USER"
	typeProduct  = "PRODUCT"
	typeCategory = "CATEGORY"
	typeOrder    = "ORDER"
	typeReview   = "REVIEW"
	typeCart     = "CART"
	typeWishlist = "WISHLIST"

	// uniqueness markers
	typeEmail     = "EMAIL"
	typeSlug      = "SLUG"
	typeReviewKey = "REVIEWKEY"

	skMeta = "META"
)

// gsiTimeLayout is fixed-width so gsi1sk sorts chronologically as a string.
const gsiTimeLayout = "2006-01-02T15:04:05.000000000Z"

type itemKeys struct {
	PK     string `dynamodbav:"pk"`
	SK     string `dynamodbav:"sk"`
	GSI1PK string `dynamodbav:"gsi1pk,omitempty"`
	GSI1SK string `dynamodbav:"gsi1sk,omitempty"`
}

func pk(itemType, id string) string {
	return itemType + "#" + id
}

func listedKeys(itemType, id string, createdAt time.Time) itemKeys {
	return itemKeys{
		PK:     pk(itemType, id),
		SK:     skMeta,
		GSI1PK: itemType,
		GSI1SK: createdAt.UTC().Format(gsiTimeLayout) + "#" + id,
	}
}

// markerRecord reserves a unique value (an email, a slug) for its owner.
type markerRecord struct {
	itemKeys
	Owner string `dynamodbav:"owner"`
}

func newMarker(itemType, value, owner string) markerRecord {
	return markerRecord{itemKeys: itemKeys{PK: pk(itemType, value), SK: skMeta}, Owner: owner}
}

type userRecord struct {
	itemKeys
	ID                string     `dynamodbav:"id"`
	Email             string     `dynamodbav:"email"`
	PasswordHash      string     `dynamodbav:"password_hash"`
	Name              string     `dynamodbav:"name"`
	Role              user.Role  `dynamodbav:"role"`
	IsActive          bool       `dynamodbav:"is_active"`
	PasswordChangedAt *time.Time `dynamodbav:"password_changed_at,omitempty"`
	LastLoginAt       *time.Time `dynamodbav:"last_login_at,omitempty"`
	CreatedAt         time.Time  `dynamodbav:"created_at"`
	UpdatedAt         time.Time  `dynamodbav:"updated_at"`
}

func toUserRecord(u *user.User) userRecord {
	return userRecord{
		itemKeys:          listedKeys(typeUser, u.ID, u.CreatedAt),
		ID:                u.ID,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Name:              u.Name,
		Role:              u.Role,
		IsActive:          u.IsActive,
		PasswordChangedAt: u.PasswordChangedAt,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (r userRecord) user() *user.User {
	return &user.User{
		ID:                r.ID,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Name:              r.Name,
		Role:              r.Role,
		IsActive:          r.IsActive,
		PasswordChangedAt: r.PasswordChangedAt,
		LastLoginAt:       r.LastLoginAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// productRecord keeps money as decimal strings; stock and sold stay numbers
// so transactions can update them in place.
type productRecord struct {
	itemKeys
	ID                 string         `dynamodbav:"id"`
	Name               string         `dynamodbav:"name"`
	Description        string         `dynamodbav:"description"`
	Price              string         `dynamodbav:"price"`
	DiscountPrice      string         `dynamodbav:"discount_price,omitempty"`
	DiscountStartsAt   *time.Time     `dynamodbav:"discount_starts_at,omitempty"`
	DiscountEndsAt     *time.Time     `dynamodbav:"discount_ends_at,omitempty"`
	Stock              int            `dynamodbav:"stock"`
	Sold               int            `dynamodbav:"sold"`
	Status             product.Status `dynamodbav:"status"`
	CategoryID         string         `dynamodbav:"category_id,omitempty"`
	Images             []string       `dynamodbav:"images"`
	RatingAverage      float64        `dynamodbav:"rating_average"`
	RatingCount        int            `dynamodbav:"rating_count"`
	RatingDistribution []int          `dynamodbav:"rating_distribution"`
	CreatedAt          time.Time      `dynamodbav:"created_at"`
	UpdatedAt          time.Time      `dynamodbav:"updated_at"`
}

func toProductRecord(p *product.Product) productRecord {
	r := productRecord{
		itemKeys:           listedKeys(typeProduct, p.ID, p.CreatedAt),
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price.String(),
		DiscountStartsAt:   p.DiscountStartsAt,
		DiscountEndsAt:     p.DiscountEndsAt,
		Stock:              p.Stock,
		Sold:               p.Sold,
		Status:             p.Status,
		CategoryID:         p.CategoryID,
		Images:             p.Images,
		RatingAverage:      p.Rating.Average,
		RatingCount:        p.Rating.Count,
		RatingDistribution: p.Rating.Distribution[:],
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if p.DiscountPrice.Valid {
		r.DiscountPrice = p.DiscountPrice.Decimal.String()
	}
	return r
}

func (r productRecord) product() (*product.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s price: %w", r.ID, err)
	}
	p := &product.Product{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Price:            price,
		DiscountStartsAt: r.DiscountStartsAt,
		DiscountEndsAt:   r.DiscountEndsAt,
		Stock:            r.Stock,
		Sold:             r.Sold,
		Status:           r.Status,
		CategoryID:       r.CategoryID,
		Images:           r.Images,
		Rating:           product.Rating{Average: r.RatingAverage, Count: r.RatingCount},
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	copy(p.Rating.Distribution[:], r.RatingDistribution)
	if r.DiscountPrice != "" {
		d, err := decimal.NewFromString(r.DiscountPrice)
		if err != nil {
			return nil, fmt.Errorf("product %s discount price: %w", r.ID, err)
		}
		p.DiscountPrice = decimal.NewNullDecimal(d)
	}
	return p, nil
}

type categoryRecord struct {
	itemKeys
	ID          string    `dynamodbav:"id"`
	Name        string    `dynamodbav:"name"`
	Slug        string    `dynamodbav:"slug"`
	Description string    `dynamodbav:"description"`
	ParentID    string    `dynamodbav:"parent_id,omitempty"`
	SortOrder   int       `dynamodbav:"sort_order"`
	IsActive    bool      `dynamodbav:"is_active"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
}

func toCategoryRecord(c *category.Category) categoryRecord {
	return categoryRecord{
		itemKeys:    listedKeys(typeCategory, c.ID, c.CreatedAt),
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		SortOrder:   c.SortOrder,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r categoryRecord) category() *category.Category {
	return &category.Category{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ParentID:    r.ParentID,
		SortOrder:   r.SortOrder,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// cartRecord stores the lines as JSON, as the order record does.
type cartRecord struct {
	itemKeys
	UserID    string    `dynamodbav:"user_id"`
	Items     string    `dynamodbav:"items"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

func toCartRecord(c *cart.Cart) (cartRecord, error) {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return cartRecord{}, fmt.Errorf("encode cart items: %w", err)
	}
	return cartRecord{
		itemKeys:  itemKeys{PK: pk(typeCart, c.UserID), SK: skMeta},
		UserID:    c.UserID,
		Items:     string(data),
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func (r cartRecord) cart() (*cart.Cart, error) {
	c := &cart.Cart{UserID: r.UserID, Items: []cart.Item{}, UpdatedAt: r.UpdatedAt}
	if err := json.Unmarshal([]byte(r.Items), &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	c.Recalculate()
	return c, nil
}

type wishlistRecord struct {
	itemKeys
	UserID     string    `dynamodbav:"user_id"`
	ProductIDs []string  `dynamodbav:"product_ids"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

type orderRecord struct {
	itemKeys
	ID              string               `dynamodbav:"id"`
	OrderNumber     string               `dynamodbav:"order_number"`
	UserID          string               `dynamodbav:"user_id"`
	Items           string               `dynamodbav:"items"`
	ShippingAddress string               `dynamodbav:"shipping_address"`
	ShippingMethod  order.ShippingMethod `dynamodbav:"shipping_method"`
	PaymentMethod   order.PaymentMethod  `dynamodbav:"payment_method"`
	PaymentStatus   order.PaymentStatus  `dynamodbav:"payment_status"`
	Status          order.Status         `dynamodbav:"status"`
	ItemsTotal      string               `dynamodbav:"items_total"`
	ShippingCost    string               `dynamodbav:"shipping_cost"`
	Discount        string               `dynamodbav:"discount"`
	GrandTotal      string               `dynamodbav:"grand_total"`
	CancelReason    string               `dynamodbav:"cancel_reason,omitempty"`
	CreatedAt       time.Time            `dynamodbav:"created_at"`
	UpdatedAt       time.Time            `dynamodbav:"updated_at"`
	ShippedAt       *time.Time           `dynamodbav:"shipped_at,omitempty"`
	DeliveredAt     *time.Time           `dynamodbav:"delivered_at,omitempty"`
	CancelledAt     *time.Time           `dynamodbav:"cancelled_at,omitempty"`
}

func toOrderRecord(o *order.Order) (orderRecord, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return orderRecord{}, fmt.Errorf("encode order items: %w", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return orderRecord{}, fmt.Errorf("encode shipping address: %w", err)
	}
	return orderRecord{
		itemKeys:        listedKeys(typeOrder, o.ID, o.CreatedAt),
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Items:           string(items),
		ShippingAddress: string(address),
		ShippingMethod:  o.ShippingMethod,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Status:          o.Status,
		ItemsTotal:      o.ItemsTotal.String(),
		ShippingCost:    o.ShippingCost.String(),
		Discount:        o.Discount.String(),
		GrandTotal:      o.GrandTotal.String(),
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
	}, nil
}

func (r orderRecord) order() (*order.Order, error) {
	o := &order.Order{
		ID:             r.ID,
		OrderNumber:    r.OrderNumber,
		UserID:         r.UserID,
		ShippingMethod: r.ShippingMethod,
		PaymentMethod:  r.PaymentMethod,
		PaymentStatus:  r.PaymentStatus,
		Status:         r.Status,
		CancelReason:   r.CancelReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		ShippedAt:      r.ShippedAt,
		DeliveredAt:    r.DeliveredAt,
		CancelledAt:    r.CancelledAt,
	}
	if err := json.Unmarshal([]byte(r.Items), &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.ShippingAddress), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("order %s address: %w", r.ID, err)
	}

	amounts := []struct {
		src string
		dst *decimal.Decimal
	}{
		{r.ItemsTotal, &o.ItemsTotal},
		{r.ShippingCost, &o.ShippingCost},
		{r.Discount, &o.Discount},
		{r.GrandTotal, &o.GrandTotal},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src)
		if err != nil {
			return nil, fmt.Errorf("order %s amount: %w", r.ID, err)
		}
		*a.dst = d
	}
	return o, nil
}

type reviewRecord struct {
	itemKeys
	ID               string        `dynamodbav:"id"`
	ProductID        string        `dynamodbav:"product_id"`
	UserID           string        `dynamodbav:"user_id"`
	Rating           int           `dynamodbav:"rating"`
	Title            string        `dynamodbav:"title"`
	Comment          string        `dynamodbav:"comment"`
	Status           review.Status `dynamodbav:"status"`
	VerifiedPurchase bool          `dynamodbav:"verified_purchase"`
	CreatedAt        time.Time     `dynamodbav:"created_at"`
	UpdatedAt        time.Time     `dynamodbav:"updated_at"`
}

func toReviewRecord(rv *review.Review) reviewRecord {
	return reviewRecord{
		itemKeys:         listedKeys(typeReview, rv.ID, rv.CreatedAt),
		ID:               rv.ID,
		ProductID:        rv.ProductID,
		UserID:           rv.UserID,
		Rating:           rv.Rating,
		Title:            rv.Title,
		Comment:          rv.Comment,
		Status:           rv.Status,
		VerifiedPurchase: rv.VerifiedPurchase,
		CreatedAt:        rv.CreatedAt,
		UpdatedAt:        rv.UpdatedAt,
	}
}

func (r reviewRecord) review() *review.Review {
	return &review.Review{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		Status:           r.Status,
		VerifiedPurchase: r.VerifiedPurchase,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func reviewKey(userID, productID string) string {
	return userID + "#" + productID
}
