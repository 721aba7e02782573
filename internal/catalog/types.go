package catalog

// Fulfillment types carried on the order wire format.
const (
	FulfillmentDineIn   = 1
	FulfillmentDelivery = 2
)

type SpecGroup struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type Goods struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Images    []string    `json:"images"`
	Price     int64       `json:"price"`
	Stock     int         `json:"stock"`
	HasSpecs  bool        `json:"hasSpecs"`
	SpecsList []SpecGroup `json:"specsList,omitempty"`
}

type Address struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

// ComposedAddress is the single-line form the order wire format expects.
func (a Address) ComposedAddress() string {
	return a.Region + " " + a.Address
}

// AddressInput is the write payload for the address book. The region line is
// carried as province/city/district on the wire.
type AddressInput struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Province  string `json:"province"`
	City      string `json:"city"`
	District  string `json:"district"`
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

type PointsBalance struct {
	Points int64 `json:"points"`
}

// Points record types: 1 sign-in, 2 purchase, 3 refund.
const (
	PointsTypeSignIn   = 1
	PointsTypePurchase = 2
	PointsTypeRefund   = 3
)

type PointsRecord struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Points    int64  `json:"points"`
	Type      int    `json:"type"`
	CreatedAt string `json:"createTime"`
}

type SignInResult struct {
	Points int64 `json:"points"`
}

type DeliveryConfig struct {
	DeliveryFee int64 `json:"deliveryFee"`
	PackingFee  int64 `json:"packingFee"`
}

type OrderSpec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OrderGoods struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Image    string      `json:"image"`
	Price    int64       `json:"price"`
	Quantity int         `json:"quantity"`
	Specs    []OrderSpec `json:"specs"`
}

// OrderDraft is the priced order payload sent to the order service. Delivery
// fields are populated only for FulfillmentDelivery, dine-in fields only for
// FulfillmentDineIn.
type OrderDraft struct {
	Type        int          `json:"type"`
	GoodsList   []OrderGoods `json:"goodsList"`
	GoodsAmount int64        `json:"goodsAmount"`
	TotalAmount int64        `json:"totalAmount"`
	Remark      string       `json:"remark,omitempty"`

	// Dine-in.
	TableNo     string `json:"tableNo,omitempty"`
	PeopleCount int    `json:"peopleCount,omitempty"`

	// Delivery.
	AddressID     int64  `json:"addressId,omitempty"`
	ReceiverName  string `json:"receiverName,omitempty"`
	ReceiverPhone string `json:"receiverPhone,omitempty"`
	Address       string `json:"address,omitempty"`
	DeliveryTime  string `json:"deliveryTime,omitempty"`
	Tableware     int    `json:"tableware,omitempty"`
	DeliveryFee   int64  `json:"deliveryFee,omitempty"`
	PackingFee    int64  `json:"packingFee,omitempty"`

	// Coupon.
	CouponID       int64 `json:"couponId,omitempty"`
	CouponDiscount int64 `json:"couponDiscount,omitempty"`
}

type CreateOrderResult struct {
	OrderID    int64  `json:"orderId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type OrderSummary struct {
	ID          int64  `json:"id"`
	Type        int    `json:"type"`
	Status      int    `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	CreatedAt   string `json:"createdAt"`
}

type OrderDetail struct {
	OrderSummary
	GoodsList []OrderGoods `json:"goodsList"`
	Remark    string       `json:"remark,omitempty"`
	TableNo   string       `json:"tableNo,omitempty"`
	Address   string       `json:"address,omitempty"`
}
