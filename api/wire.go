package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"courierflow/auth"
	"courierflow/parcel"
)

// envelope is the response shape shared by every endpoint: a success flag,
// an optional payload and an optional error message. The deployed backend is
// not fully uniform (some endpoints return the payload bare, others nest it
// under data), so decoding tolerates both. Success is a pointer so a bare
// payload document, which has no success key, is not mistaken for a
// rejection.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// rejected reports whether the envelope carries a backend rejection: an
// explicit error message, or success:false with no further detail (the
// OTP endpoints reply with just the flag).
func (e envelope) rejected() error {
	if e.Error != "" {
		return fmt.Errorf("%w: %s", ErrRequestFailed, e.Error)
	}
	if e.Success != nil && !*e.Success {
		return ErrRequestFailed
	}
	return nil
}

// decodePayload extracts the payload from a response body into v, accepting
// either the enveloped form {success, data, error} or the payload itself.
func decodePayload(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil {
			if err := env.rejected(); err != nil {
				return err
			}
			if len(env.Data) > 0 {
				return json.Unmarshal(env.Data, v)
			}
		}
	}

	return json.Unmarshal(trimmed, v)
}

type wireUser struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

func (w wireUser) toDomain() auth.User {
	return auth.User{
		ID:        w.ID,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Phone:     w.Phone,
		Role:      auth.Role(w.Role),
	}
}

type wireLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type wireParcel struct {
	ID               string          `json:"_id"`
	Sender           json.RawMessage `json:"senderId,omitempty"`
	SenderName       string          `json:"senderName,omitempty"`
	RecipientName    string          `json:"recipientName"`
	RecipientPhone   string          `json:"recipientPhone"`
	RecipientAddress string          `json:"recipientAddress"`
	Weight           float64         `json:"parcelWeight"`
	Type             string          `json:"parcelType"`
	Status           string          `json:"status"`
	DeliveryMan      *wireUser       `json:"deliveryManId,omitempty"`
	DeliveryCharge   float64         `json:"deliveryCharge"`
	LiveLocation     *wireLocation   `json:"liveLocation,omitempty"`
}

// sender decodes the senderId field, which the backend returns either as a
// populated user document or as a bare identifier string.
func (w wireParcel) sender() (id, name string) {
	if len(w.Sender) == 0 {
		return "", w.SenderName
	}
	var populated wireUser
	if err := json.Unmarshal(w.Sender, &populated); err == nil && populated.ID != "" {
		u := populated.toDomain()
		return u.ID, u.FullName()
	}
	var bare string
	if err := json.Unmarshal(w.Sender, &bare); err == nil {
		return bare, w.SenderName
	}
	return "", w.SenderName
}

func (w wireParcel) toDomain() parcel.Parcel {
	p := parcel.Parcel{
		ID:               w.ID,
		SenderName:       w.SenderName,
		RecipientName:    w.RecipientName,
		RecipientPhone:   w.RecipientPhone,
		RecipientAddress: w.RecipientAddress,
		WeightKg:         w.Weight,
		Type:             parcel.Type(w.Type),
		Status:           parcel.Status(w.Status),
		DeliveryCharge:   w.DeliveryCharge,
	}
	p.SenderID, p.SenderName = w.sender()
	if w.DeliveryMan != nil {
		p.AssignedAgent = &parcel.AgentRef{
			ID:        w.DeliveryMan.ID,
			FirstName: w.DeliveryMan.FirstName,
			LastName:  w.DeliveryMan.LastName,
		}
	}
	if w.LiveLocation != nil {
		p.LiveLocation = &parcel.Location{Lat: w.LiveLocation.Lat, Lng: w.LiveLocation.Lng}
	}
	return p
}

func parcelsToDomain(wire []wireParcel) []parcel.Parcel {
	out := make([]parcel.Parcel, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out
}

func usersToDomain(wire []wireUser) []auth.User {
	out := make([]auth.User, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out
}
