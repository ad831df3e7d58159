package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dentaheal/booking-api/internal/middleware"
	"github.com/dentaheal/booking-api/internal/models"
	"github.com/dentaheal/booking-api/internal/utils"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

// Register creates an account and hands back a token right away.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		h.Log.Error().Err(err).Msg("hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the user"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		ID:       primitive.NewObjectID(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     role,
	}

	if _, err := h.DB.Collection("users").InsertOne(context.TODO(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "An account with this email already exists"})
			return
		}
		h.Log.Error().Err(err).Msg("insert user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cannot create the user"})
		return
	}

	token, err := utils.GenerateJWT(h.JWTSecret, user.ID.Hex(), user.Role)
	if err != nil {
		h.Log.Error().Err(err).Msg("generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "data": user})
}

// Login verifies credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide an email and password"})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.TODO(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWT(h.JWTSecret, user.ID.Hex(), user.Role)
	if err != nil {
		h.Log.Error().Err(err).Msg("generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Invalid user id in token"})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOne(context.TODO(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
