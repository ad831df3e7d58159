package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking ties a user to a dentist at an appointment time. The user field is
// set from the caller's token at creation and never changes afterwards.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Dentist   primitive.ObjectID `bson:"dentist" json:"dentist"`
	ApptDate  time.Time          `bson:"apptDate" json:"apptDate"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// BookingWithDentist is the list/read shape: the dentist reference joined
// with the fields the UI shows next to a booking.
type BookingWithDentist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Dentist   DentistRef         `bson:"dentist" json:"dentist"`
	ApptDate  time.Time          `bson:"apptDate" json:"apptDate"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// DentistRef is the populated subset of Dentist carried on joined bookings.
type DentistRef struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	Exp  int                `bson:"exp" json:"exp"`
	Area string             `bson:"area" json:"area"`
}
