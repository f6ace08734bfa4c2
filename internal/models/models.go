package models

import "time"

// Payment methods accepted at checkout.
const (
	PaymentMethodCard     = "card"
	PaymentMethodCOD      = "cod"
	PaymentMethodInstapay = "instapay"
)

// Order statuses. An order starts at Pending (PendingApproval for instapay)
// and is advanced by admins or by payment verification.
const (
	OrderStatusPending         = "pending"
	OrderStatusPendingApproval = "pending_approval"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusCompleted       = "completed"
	OrderStatusCancelled       = "cancelled"
	OrderStatusPaid            = "paid"
)

// InitialOrderStatus maps a payment method to the status a fresh order gets.
func InitialOrderStatus(paymentMethod string) string {
	if paymentMethod == PaymentMethodInstapay {
		return OrderStatusPendingApproval
	}
	return OrderStatusPending
}

// Credential is one unit of digital inventory: an account (email+password),
// a license code, or both. Sold once, then gone from the pool.
type Credential struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Empty reports whether the credential carries nothing.
func (c Credential) Empty() bool {
	return c.Email == "" && c.Password == "" && c.Code == ""
}

// Product is a catalog entry. DigitalItems is the pool of unsold credentials,
// stored in its own table and loaded on demand; it is FIFO ordered.
type Product struct {
	ID              int64        `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	Description     string       `db:"description" json:"description"`
	CategorySlug    string       `db:"category_slug" json:"categorySlug"`
	SubCategorySlug string       `db:"sub_category_slug" json:"subCategory,omitempty"`
	Price           float64      `db:"price" json:"price"`
	Cost            float64      `db:"cost" json:"cost"`
	Stock           int          `db:"stock" json:"stock"`
	Image           string       `db:"image" json:"image"`
	Attributes      AttributeMap `db:"attributes" json:"attributes"`
	DigitalItems    []Credential `db:"-" json:"digitalItems"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// Credential pool row statuses.
const (
	CredentialAvailable = "available"
	CredentialAssigned  = "assigned"
)

// ProductCredential is one row of a product's credential pool.
type ProductCredential struct {
	ID         int64      `db:"id" json:"id"`
	ProductID  int64      `db:"product_id" json:"product_id"`
	Position   int        `db:"position" json:"position"`
	Email      string     `db:"email" json:"email,omitempty"`
	Password   string     `db:"password" json:"password,omitempty"`
	Code       string     `db:"code" json:"code,omitempty"`
	Status     string     `db:"status" json:"status"`
	AssignedAt *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
}

// Order is a checkout header. All lines of one checkout share it and were
// written in the same transaction.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	OrderNumber   string    `db:"order_number" json:"orderNumber"`
	CustomerName  string    `db:"customer_name" json:"customer"`
	CustomerEmail string    `db:"customer_email" json:"email"`
	Status        string    `db:"status" json:"status"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	PaymentProof  string    `db:"payment_proof" json:"payment_proof,omitempty"`
	TotalAmount   float64   `db:"total_amount" json:"total"`
	PlacedAt      time.Time `db:"placed_at" json:"date"`
}

// OrderLine is one purchased unit with its price/cost snapshot and the
// credential assigned to it (all empty when the unit was physical stock).
type OrderLine struct {
	ID                 int64   `db:"id" json:"id"`
	OrderID            int64   `db:"order_id" json:"order_id"`
	ProductID          int64   `db:"product_id" json:"product_id"`
	ProductName        string  `db:"product_name" json:"product"`
	UnitPrice          float64 `db:"unit_price" json:"price"`
	UnitCost           float64 `db:"unit_cost" json:"cost"`
	CredentialEmail    string  `db:"credential_email" json:"digital_email,omitempty"`
	CredentialPassword string  `db:"credential_password" json:"digital_password,omitempty"`
	CredentialCode     string  `db:"credential_code" json:"digital_code,omitempty"`
	InventoryID        int64   `db:"inventory_id" json:"inventory_id,omitempty"`
}

// Credential returns the credential snapshot carried by the line.
func (l OrderLine) Credential() Credential {
	return Credential{Email: l.CredentialEmail, Password: l.CredentialPassword, Code: l.CredentialCode}
}

// Customer is a storefront account.
type Customer struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// User is a staff account. Its role name resolves to a Role granting a
// permission set checked at the HTTP layer.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	JobTitle     string    `db:"job_title" json:"job_title,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Avatar       string    `db:"avatar" json:"avatar,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Role names a permission set.
type Role struct {
	ID          int64         `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Permissions PermissionMap `db:"permissions" json:"permissions"`
}

// Category is a top-level catalog bucket.
type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Icon         string    `db:"icon" json:"icon,omitempty"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SubCategory refines a Category.
type SubCategory struct {
	ID           int64     `db:"id" json:"id"`
	CategoryID   int64     `db:"category_id" json:"categoryId"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Description  string    `db:"description" json:"description,omitempty"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AttributeDefinition describes an admin-defined product attribute, optionally
// restricted to an enumerated option list.
type AttributeDefinition struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Type         string     `db:"type" json:"type"`
	Options      StringList `db:"options" json:"options"`
	IsRequired   bool       `db:"is_required" json:"isRequired"`
	DisplayOrder int        `db:"display_order" json:"displayOrder"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// Banner is a storefront promo slot.
type Banner struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	ImageURL  string     `db:"image_url" json:"imageUrl"`
	Link      string     `db:"link" json:"link,omitempty"`
	Position  int        `db:"position" json:"position"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	StartDate *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`
}

// Settings defaults applied when a key is absent from the store.
var SettingsDefaults = map[string]string{
	"currency_code":   "USD",
	"currency_symbol": "$",
	"tax_rate":        "8.5",
}
