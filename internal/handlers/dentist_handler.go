package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentaheal/booking-api/internal/models"
	"github.com/dentaheal/booking-api/internal/query"
)

const maxDentistNameLen = 50

// GetDentists lists dentists with filtering, field selection, sorting and
// pagination driven by the query string.
func (h *Handler) GetDentists(c *gin.Context) {
	opts, err := query.Parse(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	collection := h.DB.Collection("dentists")

	total, err := collection.CountDocuments(context.TODO(), bson.M{})
	if err != nil {
		h.Log.Error().Err(err).Msg("count dentists")
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	findOpts := options.Find().
		SetSort(opts.Sort).
		SetSkip(opts.Skip()).
		SetLimit(opts.Limit)
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := collection.Find(context.TODO(), opts.Filter, findOpts)
	if err != nil {
		h.Log.Error().Err(err).Msg("find dentists")
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	defer cursor.Close(context.TODO())

	dentists := make([]models.Dentist, 0)
	if err = cursor.All(context.TODO(), &dentists); err != nil {
		h.Log.Error().Err(err).Msg("decode dentists")
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(dentists),
		"pagination": opts.Paginate(total),
		"data":       dentists,
	})
}

// GetDentist fetches one dentist by id. A missing id yields 200 with null
// data rather than 404, matching the behavior clients already rely on.
func (h *Handler) GetDentist(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOne(context.TODO(), bson.M{"_id": id}).Decode(&dentist)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("find dentist")
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

type createDentistRequest struct {
	Name string `json:"name" binding:"required,max=50"`
	Exp  *int   `json:"exp" binding:"required"`
	Area string `json:"area" binding:"required"`
}

// CreateDentist validates and inserts a dentist. The unique name constraint
// is enforced by the index created at startup.
func (h *Handler) CreateDentist(c *gin.Context) {
	var req createDentistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	dentist := models.Dentist{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Exp:       *req.Exp,
		Area:      req.Area,
		CreatedAt: time.Now(),
	}

	if _, err := h.DB.Collection("dentists").InsertOne(context.TODO(), dentist); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			h.Log.Error().Err(err).Msg("insert dentist")
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": dentist})
}

type updateDentistRequest struct {
	Name *string `json:"name" binding:"omitempty,max=50"`
	Exp  *int    `json:"exp"`
	Area *string `json:"area" binding:"omitempty,min=1"`
}

// UpdateDentist applies a partial update, re-running the validation rules.
func (h *Handler) UpdateDentist(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	var req updateDentistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	update := bson.M{}
	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > maxDentistNameLen {
			c.JSON(http.StatusBadRequest, gin.H{"success": false})
			return
		}
		update["name"] = *req.Name
	}
	if req.Exp != nil {
		update["exp"] = *req.Exp
	}
	if req.Area != nil {
		update["area"] = *req.Area
	}
	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No fields to update"})
		return
	}

	var dentist models.Dentist
	err = h.DB.Collection("dentists").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&dentist)
	if err != nil {
		if err != mongo.ErrNoDocuments && !mongo.IsDuplicateKeyError(err) {
			h.Log.Error().Err(err).Msg("update dentist")
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": dentist})
}

// DeleteDentist removes a dentist and cascades to every booking that
// references it, the way the store-level pre-delete hook used to.
func (h *Handler) DeleteDentist(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	err = h.DB.Collection("dentists").FindOneAndDelete(context.TODO(), bson.M{"_id": id}).Err()
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.Log.Error().Err(err).Msg("delete dentist")
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	res, err := h.DB.Collection("bookings").DeleteMany(context.TODO(), bson.M{"dentist": id})
	if err != nil {
		h.Log.Error().Err(err).Msg("cascade booking delete")
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	h.Log.Info().Str("dentist", id.Hex()).Int64("bookings", res.DeletedCount).Msg("bookings removed with dentist")

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}
