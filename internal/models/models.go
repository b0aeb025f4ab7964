package models

// ==========================================
// ENUMS
// ==========================================

type ProductType string

const (
	ProductDrink ProductType = "drink"
	ProductSnack ProductType = "snack"
)

// ServingType is the preparation variant a price tier applies to.
type ServingType string

const (
	ServingHot    ServingType = "hot"
	ServingIced   ServingType = "iced"
	ServingFrappe ServingType = "frappe"
	ServingSnack  ServingType = "snack"
)

// ServingTypes lists every variant in menu order.
var ServingTypes = []ServingType{ServingHot, ServingIced, ServingFrappe, ServingSnack}

func (s ServingType) Valid() bool {
	switch s {
	case ServingHot, ServingIced, ServingFrappe, ServingSnack:
		return true
	}
	return false
}

// CustomerClass is the pricing tier of a buyer.
type CustomerClass string

const (
	ClassGeneral CustomerClass = "general"
	ClassTeacher CustomerClass = "teacher"
	ClassStudent CustomerClass = "student"
)

func (c CustomerClass) Valid() bool {
	switch c {
	case ClassGeneral, ClassTeacher, ClassStudent:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPreparing  OrderStatus = "preparing"
	StatusDelivering OrderStatus = "delivering"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusDelivering, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentTransfer
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// ==========================================
// CATALOG
// ==========================================

// PriceTier holds the unit price of one serving variant per customer class.
type PriceTier struct {
	General float64 `json:"general"`
	Teacher float64 `json:"teacher"`
	Student float64 `json:"student"`
}

// For returns the tier price for class c. The second result is false for an
// unknown class.
func (t PriceTier) For(c CustomerClass) (float64, bool) {
	switch c {
	case ClassGeneral:
		return t.General, true
	case ClassTeacher:
		return t.Teacher, true
	case ClassStudent:
		return t.Student, true
	}
	return 0, false
}

type Prices map[ServingType]PriceTier

type Category struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type Product struct {
	ID               string      `json:"id" validate:"required"`
	Name             string      `json:"name" validate:"required"`
	Category         string      `json:"category"`
	ProductType      ProductType `json:"productType" validate:"omitempty,oneof=drink snack"`
	Prices           Prices      `json:"prices"`
	Description      string      `json:"description"`
	Image            Asset       `json:"image"`
	AdditionalImages []Asset     `json:"additionalImages"`
	Video            string      `json:"video,omitempty"`
	IsPopular        bool        `json:"isPopular"`
	IsRecommended    bool        `json:"isRecommended"`
}

// Kind returns the product type, treating an empty value as a drink.
func (p Product) Kind() ProductType {
	if p.ProductType == "" {
		return ProductDrink
	}
	return p.ProductType
}

// Clone returns a copy of p that shares neither its price map nor its image
// list.
func (p Product) Clone() Product {
	if p.Prices != nil {
		prices := make(Prices, len(p.Prices))
		for v, t := range p.Prices {
			prices[v] = t
		}
		p.Prices = prices
	}
	if p.AdditionalImages != nil {
		p.AdditionalImages = append([]Asset(nil), p.AdditionalImages...)
	}
	return p
}

// Snapshot is the copy of p carried on an order line. Only stored
// references survive; inline images are dropped.
func (p Product) Snapshot() Product {
	p = p.Clone()
	if p.Image.IsInline() {
		p.Image = Asset{}
	}
	refs := make([]Asset, 0, len(p.AdditionalImages))
	for _, img := range p.AdditionalImages {
		if img.URL != "" {
			refs = append(refs, Ref(img.URL))
		}
	}
	p.AdditionalImages = refs
	return p
}

// ==========================================
// CART & ORDERS
// ==========================================

type CartItem struct {
	Product
	CartID              string        `json:"cartId"`
	Quantity            int           `json:"quantity" validate:"gte=1"`
	Sweetness           string        `json:"sweetness"`
	AppliedPrice        float64       `json:"appliedPrice" validate:"gte=0"`
	SelectedUserType    CustomerClass `json:"selectedUserType"`
	SelectedServingType ServingType   `json:"selectedServingType"`
}

type Order struct {
	ID               string        `json:"id"`
	CustomerName     string        `json:"customerName" validate:"required"`
	UserType         CustomerClass `json:"userType"`
	Items            []CartItem    `json:"items" validate:"required,min=1,dive"`
	TotalAmount      float64       `json:"totalAmount"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash transfer"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" validate:"omitempty,oneof=pending paid"`
	DeliveryLocation string        `json:"deliveryLocation"`
	Status           OrderStatus   `json:"status" validate:"omitempty,oneof=pending preparing delivering completed cancelled"`
	SlipURL          string        `json:"slipUrl,omitempty"`
	Timestamp        int64         `json:"timestamp"`
}
