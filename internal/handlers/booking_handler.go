package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentaheal/booking-api/internal/middleware"
	"github.com/dentaheal/booking-api/internal/models"
)

// findBookingsJoined runs the bookings query with the dentist reference
// populated (name, exp, area), the aggregation equivalent of the old
// populate call.
func (h *Handler) findBookingsJoined(ctx context.Context, filter bson.M) ([]models.BookingWithDentist, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "dentists",
			"localField":   "dentist",
			"foreignField": "_id",
			"as":           "dentist",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$dentist",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"user":         1,
			"apptDate":     1,
			"createdAt":    1,
			"dentist._id":  1,
			"dentist.name": 1,
			"dentist.exp":  1,
			"dentist.area": 1,
		}}},
	}

	cursor, err := h.DB.Collection("bookings").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := make([]models.BookingWithDentist, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// caller pulls the authenticated identity set by the auth middleware.
func caller(c *gin.Context) (id string, role string) {
	return c.GetString(middleware.CtxUserID), c.GetString(middleware.CtxUserRole)
}

// GetBookings lists bookings scoped by role: regular users see only their
// own; admins see everything, or one dentist's bookings when the route
// carries a dentistId.
func (h *Handler) GetBookings(c *gin.Context) {
	callerID, role := caller(c)

	filter := bson.M{}
	if role != models.RoleAdmin {
		userID, err := primitive.ObjectIDFromHex(callerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find bookings"})
			return
		}
		filter["user"] = userID
	} else if dentistParam := c.Param("id"); dentistParam != "" {
		// Mounted under /dentists/:id/bookings.
		dentistID, err := primitive.ObjectIDFromHex(dentistParam)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find bookings"})
			return
		}
		filter["dentist"] = dentistID
	}

	bookings, err := h.findBookingsJoined(context.TODO(), filter)
	if err != nil {
		h.Log.Error().Err(err).Msg("find bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(bookings), "data": bookings})
}

// GetBooking fetches one booking by id with its dentist populated.
func (h *Handler) GetBooking(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find the booking"})
		return
	}

	bookings, err := h.findBookingsJoined(context.TODO(), bson.M{"_id": id})
	if err != nil {
		h.Log.Error().Err(err).Msg("find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot find the booking"})
		return
	}
	if len(bookings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no booking with the id of %s", c.Param("id"))})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": bookings[0]})
}

type bookingRequest struct {
	ApptDate time.Time `json:"apptDate" binding:"required"`
}

// CreateBooking books an appointment with the dentist named in the route.
// Regular users may hold one booking at a time; admins are exempt. On
// success a reminder is scheduled seven hours before the appointment, keyed
// by the caller's id.
func (h *Handler) CreateBooking(c *gin.Context) {
	// The dentist comes from the route: /dentists/:id/bookings.
	dentistParam := c.Param("id")
	dentistID, err := primitive.ObjectIDFromHex(dentistParam)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no dentist with the id of %s", dentistParam)})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(context.TODO(), bson.M{"_id": dentistID}).Decode(&dentist)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no dentist with the id of %s", dentistParam)})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("find dentist")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the booking"})
		return
	}

	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	callerID, role := caller(c)
	userID, err := primitive.ObjectIDFromHex(callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the booking"})
		return
	}

	// A user can book only one session. Admins book freely, e.g. on
	// behalf of walk-ins.
	if role != models.RoleAdmin {
		count, err := h.DB.Collection("bookings").CountDocuments(context.TODO(), bson.M{"user": userID})
		if err != nil {
			h.Log.Error().Err(err).Msg("count bookings")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the booking"})
			return
		}
		if count >= 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("The user with ID %s has already made a booking", callerID)})
			return
		}
	}

	booking := models.Booking{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Dentist:   dentistID,
		ApptDate:  req.ApptDate,
		CreatedAt: time.Now(),
	}

	if _, err := h.DB.Collection("bookings").InsertOne(context.TODO(), booking); err != nil {
		h.Log.Error().Err(err).Msg("insert booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the booking"})
		return
	}

	// Reminders are keyed by the acting caller's id, not the booking id.
	h.Reminders.Schedule(callerID, booking)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
}

type updateBookingRequest struct {
	ApptDate *time.Time `json:"apptDate"`
	Dentist  *string    `json:"dentist"`
}

// UpdateBooking lets the owner or an admin move a booking. The pending
// reminder for the caller is replaced with one computed from the new
// appointment time.
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no booking with the id of %s", c.Param("id"))})
		return
	}

	var existing models.Booking
	err = h.DB.Collection("bookings").FindOne(context.TODO(), bson.M{"_id": id}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no booking with the id of %s", c.Param("id"))})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot update the booking"})
		return
	}

	callerID, role := caller(c)
	if existing.User.Hex() != callerID && role != models.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": fmt.Sprintf("User %s is not authorized to make change on this booking", callerID)})
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	update := bson.M{}
	if req.ApptDate != nil {
		update["apptDate"] = *req.ApptDate
	}
	if req.Dentist != nil {
		dentistID, err := primitive.ObjectIDFromHex(*req.Dentist)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid dentist id"})
			return
		}
		update["dentist"] = dentistID
	}
	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No fields to update"})
		return
	}

	var booking models.Booking
	err = h.DB.Collection("bookings").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&booking)
	if err != nil {
		h.Log.Error().Err(err).Msg("update booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot update the booking"})
		return
	}

	h.Reminders.Cancel(callerID)
	h.Reminders.Schedule(callerID, booking)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
}

// DeleteBooking removes a booking owned by the caller (or any booking, for
// an admin) and drops the caller's pending reminder.
func (h *Handler) DeleteBooking(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no booking with the id of %s", c.Param("id"))})
		return
	}

	var existing models.Booking
	err = h.DB.Collection("bookings").FindOne(context.TODO(), bson.M{"_id": id}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("There is no booking with the id of %s", c.Param("id"))})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot delete the booking"})
		return
	}

	callerID, role := caller(c)
	if existing.User.Hex() != callerID && role != models.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": fmt.Sprintf("User %s is not authorized to delete this booking", callerID)})
		return
	}

	if _, err := h.DB.Collection("bookings").DeleteOne(context.TODO(), bson.M{"_id": id}); err != nil {
		h.Log.Error().Err(err).Msg("delete booking")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot delete the booking"})
		return
	}

	h.Reminders.Cancel(callerID)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}
