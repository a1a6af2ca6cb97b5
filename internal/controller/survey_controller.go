package controller

import (
	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/serverutils"
	"enculture-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISurveyController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Publish(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	SubmitResponse(ctx *fiber.Ctx) error
	Responses(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type surveyController struct {
	service   service.ISurveyService
	jwtSecret string
}

func NewSurveyController(service service.ISurveyService, jwtSecret string) ISurveyController {
	return &surveyController{service: service, jwtSecret: jwtSecret}
}

func (c *surveyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/surveys")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/create", c.Create)
	h.Post("/publish", c.Publish)
	h.Post("/submit-response", c.SubmitResponse)
	h.Get("/list", c.List)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Get("/:id/responses", c.Responses)
	h.Get("/:id/stats", c.Stats)
}

func (c *surveyController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSurveyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if userId := tokenUser(ctx); userId != "" {
		req.CreatedBy = userId
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) Publish(ctx *fiber.Ctx) error {
	var req dto.PublishSurveyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Publish(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), ctx.Query("created_by"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateSurveyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = ctx.Params("id")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) SubmitResponse(ctx *fiber.Ctx) error {
	var req dto.SubmitSurveyResponseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	// a signed-in respondent always answers as themselves
	if userId := tokenUser(ctx); userId != "" {
		req.UserId = userId
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SubmitResponse(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) Responses(ctx *fiber.Ctx) error {
	res, err := c.service.Responses(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *surveyController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.Stats(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
