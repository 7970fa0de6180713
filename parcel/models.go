package parcel

// Status enumerates the delivery progression of a parcel. The backend owns
// the progression; the client renders whatever status it is told. Regressions
// (e.g. delivered back to pending) are representable and not rejected here.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusFailed:
		return true
	default:
		return false
	}
}

// Active reports whether a parcel in this status is out for delivery, which
// is the condition for publishing the agent's live location.
func (s Status) Active() bool {
	return s == StatusPickedUp || s == StatusInTransit
}

// Terminal reports whether the status ends the delivery lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// Type enumerates the parcel categories accepted at booking time.
type Type string

const (
	TypeBox      Type = "Box"
	TypeDocument Type = "Document"
	TypeFragile  Type = "Fragile"
	TypeLiquid   Type = "Liquid"
)

// Valid reports whether t is a bookable parcel type.
func (t Type) Valid() bool {
	switch t {
	case TypeBox, TypeDocument, TypeFragile, TypeLiquid:
		return true
	default:
		return false
	}
}

// Location is a device coordinate pair. Only the most recent one per parcel
// is retained; no history is kept.
type Location struct {
	Lat float64
	Lng float64
}

// AgentRef is a lookup reference to the delivery agent assigned to a parcel.
// The parcel never owns the agent record.
type AgentRef struct {
	ID        string
	FirstName string
	LastName  string
}

// Parcel is the client-side projection of a single shipment record, tracked
// from booking through delivery or failure. Records are created server-side;
// the client only reads and patches this projection.
type Parcel struct {
	ID               string
	SenderID         string
	SenderName       string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	WeightKg         float64
	Type             Type
	Status           Status
	AssignedAgent    *AgentRef
	DeliveryCharge   float64
	LiveLocation     *Location
}

// BookingRequest contains the fields a customer supplies when booking.
type BookingRequest struct {
	RecipientName    string  `json:"recipientName"`
	RecipientPhone   string  `json:"recipientPhone"`
	RecipientAddress string  `json:"recipientAddress"`
	WeightKg         float64 `json:"parcelWeight"`
	Type             Type    `json:"parcelType"`
}
