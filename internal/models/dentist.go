package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dentist has a unique name and is referenced by bookings through their
// "dentist" field. Deleting a dentist removes those bookings as well.
type Dentist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Exp       int                `bson:"exp" json:"exp"`
	Area      string             `bson:"area" json:"area"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
