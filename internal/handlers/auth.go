package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"omitempty,email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"omitempty,min=8"`
}

func setSessionCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   deps.Config.Server.CookieDomain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func startSession(ctx *gin.Context, user models.User) bool {
	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		serverError(ctx, "Internal server error", err)
		return false
	}

	setSessionCookie(ctx, token, int(auth.TokenTTL().Seconds()))
	return true
}

func userResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if !bindJSON(ctx, &body) {
		return
	}

	body.Email = utils.NormalizeEmail(body.Email)

	var existingUser models.User

	err := db.DB.Where("email = ?", body.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		serverError(ctx, "Internal server error", err)
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)

	if err != nil {
		serverError(ctx, "Internal server error", err)
		return
	}

	newUser := models.User{
		Name:         strings.TrimSpace(body.Name),
		Email:        body.Email,
		PasswordHash: passwordHash,
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}
		serverError(ctx, "Internal server error", err)
		return
	}

	if !startSession(ctx, newUser) {
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": userResponse(newUser)})
}

func LoginUser(ctx *gin.Context) {
	var body LoginUserRequest

	if !bindJSON(ctx, &body) {
		return
	}

	var existingUser models.User

	err := db.DB.Where("email = ?", utils.NormalizeEmail(body.Email)).First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		serverError(ctx, "Internal server error", err)
		return
	}

	if !auth.CheckPassword(existingUser.PasswordHash, body.Password) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	if !startSession(ctx, existingUser) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(existingUser)})
}

func Me(ctx *gin.Context) {
	currentUser, ok := utils.RequireUser(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:    currentUser.ID,
			Name:  currentUser.Name,
			Email: currentUser.Email,
		},
	})
}

func LogoutUser(ctx *gin.Context) {
	setSessionCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// loadCurrentUser fetches the full record, including the password hash.
func loadCurrentUser(ctx *gin.Context) (models.User, bool) {
	user, ok := utils.RequireUser(ctx)
	if !ok {
		return models.User{}, false
	}

	var dbUser models.User
	if err := db.DB.Where("id = ?", user.ID).First(&dbUser).Error; err != nil {
		serverError(ctx, "Internal server error", err)
		return models.User{}, false
	}

	return dbUser, true
}

func UpdateUser(ctx *gin.Context) {
	dbUser, ok := loadCurrentUser(ctx)
	if !ok {
		return
	}

	var updateReq UpdateUserRequest
	if !bindJSON(ctx, &updateReq) {
		return
	}

	updates := make(map[string]interface{})

	if name := strings.TrimSpace(updateReq.Name); name != "" {
		updates["name"] = name
	}

	if updateReq.Email != "" {
		newEmail := utils.NormalizeEmail(updateReq.Email)

		if newEmail != dbUser.Email {
			var existingUser models.User
			err := db.DB.Where("email = ? AND id <> ?", newEmail, dbUser.ID).First(&existingUser).Error
			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				serverError(ctx, "Internal server error", err)
				return
			}
		}

		updates["email"] = newEmail
	}

	if updateReq.NewPassword != "" {
		if updateReq.CurrentPassword == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is required to change password"})
			return
		}

		if !auth.CheckPassword(dbUser.PasswordHash, updateReq.CurrentPassword) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}

		passwordHash, err := auth.HashPassword(updateReq.NewPassword)
		if err != nil {
			serverError(ctx, "Internal server error", err)
			return
		}

		updates["password_hash"] = passwordHash
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(&dbUser).Updates(updates).Error; err != nil {
		serverError(ctx, "Internal server error", err)
		return
	}

	if err := db.DB.Where("id = ?", dbUser.ID).First(&dbUser).Error; err != nil {
		serverError(ctx, "Internal server error", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    userResponse(dbUser),
	})
}

func DeleteUser(ctx *gin.Context) {
	dbUser, ok := loadCurrentUser(ctx)
	if !ok {
		return
	}

	var deleteReq struct {
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&deleteReq); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Password is required for account deletion"})
		return
	}

	if !auth.CheckPassword(dbUser.PasswordHash, deleteReq.Password) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect password"})
		return
	}

	// owned brands cascade through the foreign keys
	if err := db.DB.Delete(&dbUser).Error; err != nil {
		serverError(ctx, "Internal server error", err)
		return
	}

	setSessionCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
