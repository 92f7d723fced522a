package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"gorm.io/gorm"
)

var (
	ErrBrandNotFound     = errors.New("Brand not found")
	ErrInsufficientRole  = errors.New("Insufficient permissions for this brand")
	ErrNotAuthenticated  = errors.New("User not authenticated")
	errBrandLookupFailed = errors.New("Failed to retrieve brand")
)

var roleRank = map[string]int{
	types.RoleViewer: 1,
	types.RoleEditor: 2,
	types.RoleOwner:  3,
}

// BrandAccess is the brand a request operates on and the caller's role in it.
type BrandAccess struct {
	Brand  models.Brand
	Role   string
	UserID string
}

// CanWrite reports whether the role allows modifying brand resources.
func (a BrandAccess) CanWrite() bool {
	return roleRank[a.Role] >= roleRank[types.RoleEditor]
}

// LoadBrandAccess resolves the :brand_id parameter for the current user and
// checks the caller holds at least minRole. Brands the user cannot see are
// reported as not found.
func LoadBrandAccess(ctx *gin.Context, minRole string) (BrandAccess, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return BrandAccess{}, err
	}

	brandID, err := GetBrandID(ctx)
	if err != nil {
		return BrandAccess{}, err
	}

	return BrandAccessFor(user.ID, brandID, minRole)
}

// BrandAccessFor resolves userID's role in brandID and checks it reaches minRole.
func BrandAccessFor(userID, brandID, minRole string) (BrandAccess, error) {
	var brand models.Brand

	if err := db.DB.Where("id = ?", brandID).First(&brand).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BrandAccess{}, ErrBrandNotFound
		}
		return BrandAccess{}, errBrandLookupFailed
	}

	role := ""

	if brand.OwnerID == userID {
		role = types.RoleOwner
	} else {
		var share models.BrandShare
		err := db.DB.Where("brand_id = ? AND user_id = ?", brandID, userID).First(&share).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return BrandAccess{}, ErrBrandNotFound
			}
			return BrandAccess{}, errBrandLookupFailed
		}
		role = share.Role
	}

	if roleRank[role] < roleRank[minRole] {
		return BrandAccess{}, ErrInsufficientRole
	}

	return BrandAccess{Brand: brand, Role: role, UserID: userID}, nil
}

// RequireBrand loads brand access and writes the matching error response on
// failure. Handlers return when ok is false.
func RequireBrand(ctx *gin.Context, minRole string) (BrandAccess, bool) {
	access, err := LoadBrandAccess(ctx, minRole)
	if err == nil {
		return access, true
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBrandNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInsufficientRole):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errBrandLookupFailed):
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}

	return BrandAccess{}, false
}
