package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

// metaAccount resolves the ad account to query, ?ad_account_id overriding the brand's.
func metaAccount(ctx *gin.Context, access utils.BrandAccess) (string, bool) {
	if deps.Meta == nil {
		upstreamError(ctx, "Failed to reach Meta", services.ErrNotConfigured)
		return "", false
	}

	account := ctx.DefaultQuery("ad_account_id", access.Brand.MetaAdAccountID)
	if account == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Brand has no Meta ad account"})
		return "", false
	}
	return account, true
}

func ListMetaCampaigns(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	account, ok := metaAccount(ctx, access)
	if !ok {
		return
	}

	campaigns, err := deps.Meta.ListCampaigns(ctx.Request.Context(), account)
	if err != nil {
		upstreamError(ctx, "Failed to load campaigns", err)
		return
	}

	if campaigns == nil {
		campaigns = []services.MetaCampaign{}
	}

	ctx.JSON(http.StatusOK, campaigns)
}

func ListMetaAdSets(ctx *gin.Context) {
	if _, ok := utils.RequireBrand(ctx, types.RoleViewer); !ok {
		return
	}

	if deps.Meta == nil {
		upstreamError(ctx, "Failed to reach Meta", services.ErrNotConfigured)
		return
	}

	campaignID := ctx.Param("campaign_id")

	adSets, err := deps.Meta.ListAdSets(ctx.Request.Context(), campaignID)
	if err != nil {
		upstreamError(ctx, "Failed to load ad sets", err)
		return
	}

	if adSets == nil {
		adSets = []services.MetaAdSet{}
	}

	ctx.JSON(http.StatusOK, adSets)
}
