package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	domainUser "github.com/ndavydoff/music-finder/domains/user"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
	"github.com/ndavydoff/music-finder/pkg/utils"
)

type User struct {
	Service domainUser.IUserUsecase
}

func InitRestUser(app fiber.Router, service domainUser.IUserUsecase) User {
	rest := User{Service: service}
	app.Get("/users/:id/stats", rest.GetStats)
	app.Put("/users/:id/plan", rest.SetPlan)

	return rest
}

func (handler *User) GetStats(c *fiber.Ctx) error {
	userID := c.Params("id")

	stats, err := handler.Service.GetStats(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	remaining, err := handler.Service.GetRemaining(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "User stats retrieved",
		Results: fiber.Map{
			"stats":     stats,
			"remaining": remaining,
		},
	})
}

type setPlanRequest struct {
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (handler *User) SetPlan(c *fiber.Ctx) error {
	userID := c.Params("id")

	var request setPlanRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	switch request.Plan {
	case domainUser.PlanFree, domainUser.PlanPro, domainUser.PlanPremium:
	default:
		utils.PanicIfNeeded(pkgError.ValidationError("plan must be one of: free, pro, premium"))
	}

	utils.PanicIfNeeded(handler.Service.SetPlan(c.UserContext(), userID, request.Plan, request.ExpiresAt))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Plan updated",
	})
}
