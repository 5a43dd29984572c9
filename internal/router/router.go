package router

import (
	"github.com/0xdevcollins/boundless-backend/internal/auth"
	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/handler"
	"github.com/0xdevcollins/boundless-backend/internal/ledger"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/0xdevcollins/boundless-backend/internal/settlement"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, settlementClient *settlement.Client, emitter logic.EventEmitter, cfg *config.Config) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "boundless-backend",
		})
	})

	authorizer := auth.NewRegistry(cfg.Auth.Admins)
	bounds := ledger.Bounds{Min: cfg.Funding.MinContribution, Max: cfg.Funding.MaxContribution}

	projectLogic := logic.NewProjectLogic(db)
	voteLogic := logic.NewVoteLogic(db, emitter)
	campaignLogic := logic.NewCampaignLogic(db, authorizer, settlementClient, emitter)
	fundingLogic := logic.NewFundingLogic(db, bounds, emitter)
	grantLogic := logic.NewGrantLogic(db)
	applicationLogic := logic.NewApplicationLogic(db, authorizer, emitter)
	escrowLogic := logic.NewEscrowLogic(db, authorizer, settlementClient, emitter)

	projectHandler := handler.NewProjectHandler(projectLogic, fundingLogic)
	voteHandler := handler.NewVoteHandler(voteLogic)
	campaignHandler := handler.NewCampaignHandler(campaignLogic, fundingLogic)
	grantHandler := handler.NewGrantHandler(grantLogic)
	applicationHandler := handler.NewApplicationHandler(applicationLogic)
	escrowHandler := handler.NewEscrowHandler(escrowLogic)

	v1 := r.Group("/api/v1")
	{
		projects := v1.Group("/projects")
		{
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/contributions", projectHandler.GetProjectContributions)

			authed := projects.Group("", auth.RequireActor())
			{
				authed.POST("", projectHandler.CreateProject)
				authed.POST("/:id/voting", projectHandler.OpenVoting)
				authed.POST("/:id/funding", projectHandler.OpenFunding)
				authed.POST("/:id/vote", voteHandler.CastVote)
				authed.DELETE("/:id/vote", voteHandler.RemoveVote)
				authed.POST("/:id/fund", projectHandler.FundProject)
			}
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/contributions", campaignHandler.GetCampaignContributions)

			authed := campaigns.Group("", auth.RequireActor())
			{
				authed.POST("", campaignHandler.CreateCampaign)
				authed.PATCH("/:id/approve", campaignHandler.ApproveCampaign)
				authed.POST("/:id/back", campaignHandler.BackCampaign)
				authed.DELETE("/:id", campaignHandler.CancelCampaign)
			}
		}

		grants := v1.Group("/grants")
		{
			grants.GET("", grantHandler.GetGrants)
			grants.GET("/:id", grantHandler.GetGrant)
			grants.GET("/:id/grant-applications", applicationHandler.GetGrantApplications)

			authed := grants.Group("", auth.RequireActor())
			{
				authed.POST("", grantHandler.CreateGrant)
				authed.PATCH("/:id/status", grantHandler.SetGrantStatus)
				authed.POST("/grant-applications", applicationHandler.SubmitApplication)
			}
		}

		applications := v1.Group("/grant-applications")
		{
			applications.GET("/:id", applicationHandler.GetApplication)

			authed := applications.Group("", auth.RequireActor())
			{
				authed.PATCH("/:id/milestones", applicationHandler.ReviseMilestones)
				authed.PATCH("/:id/review", applicationHandler.ReviewApplication)
				authed.PATCH("/:id/escrow", escrowHandler.UpdateEscrow)
				authed.POST("/:id/milestones/:index/release", escrowHandler.ReleaseMilestone)
			}
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Actor-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
