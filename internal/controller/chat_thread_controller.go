package controller

import (
	"context"

	"enculture-be/internal/dto"
	"enculture-be/internal/entity"
	"enculture-be/internal/pkg/apperror"
	"enculture-be/internal/pkg/serverutils"
	"enculture-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatThreadController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Recent(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	UpdateTitle(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	GenerateTitle(ctx *fiber.Ctx) error
}

type chatThreadController struct {
	service   service.IChatThreadService
	jwtSecret string
}

func NewChatThreadController(service service.IChatThreadService, jwtSecret string) IChatThreadController {
	return &chatThreadController{service: service, jwtSecret: jwtSecret}
}

func (c *chatThreadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/threads")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("/recent", c.Recent)
	h.Post("/search", c.Search)
	h.Post("/generate-title", c.GenerateTitle)
	h.Get("/:id", c.Show)
	h.Post("/:id/messages", c.AddMessage)
	h.Put("/:id/title", c.UpdateTitle)
	h.Delete("/:id", c.Delete)
}

// tokenUser is the user id from a verified JWT, or "" when auth is off.
func tokenUser(ctx *fiber.Ctx) string {
	userId, _ := ctx.Locals("user_id").(string)
	return userId
}

// requestUser is the authenticated user when auth is on, otherwise the
// optional user_id query parameter.
func requestUser(ctx *fiber.Ctx) string {
	if userId := tokenUser(ctx); userId != "" {
		return userId
	}
	return ctx.Query("user_id")
}

// ownedThread loads a thread for the request. With an authenticated user, a
// thread owned by someone else is reported as missing.
func ownedThread(ctx *fiber.Ctx, chats service.IChatThreadService, id string) (*entity.ChatThread, error) {
	thread, err := chats.Get(ctx.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if userId := tokenUser(ctx); userId != "" && thread.Owner() != userId {
		return nil, apperror.NotFound("chat thread %s not found", id)
	}
	return thread, nil
}

// withOwnedThread runs fn on the thread id once the caller may touch it.
func (c *chatThreadController) withOwnedThread(ctx *fiber.Ctx, fn func(ctx context.Context, id string) error) error {
	thread, err := ownedThread(ctx, c.service, ctx.Params("id"))
	if err != nil {
		return err
	}
	return fn(ctx.UserContext(), thread.Id)
}

func (c *chatThreadController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateChatThreadRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if userId := tokenUser(ctx); userId != "" {
		req.UserId = &userId
	}

	thread, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(dto.NewChatThreadResponse(*thread))
}

func (c *chatThreadController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext(), requestUser(ctx), ctx.QueryInt("limit", 50), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatThreadController) Recent(ctx *fiber.Ctx) error {
	res, err := c.service.Recent(ctx.UserContext(), requestUser(ctx), ctx.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatThreadController) Show(ctx *fiber.Ctx) error {
	thread, err := ownedThread(ctx, c.service, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(thread)
}

func (c *chatThreadController) AddMessage(ctx *fiber.Ctx) error {
	var req dto.AddMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	var msg *entity.ChatMessage
	err := c.withOwnedThread(ctx, func(uctx context.Context, id string) error {
		var err error
		msg, err = c.service.AddMessage(uctx, id, &req)
		return err
	})
	if err != nil {
		return err
	}
	return ctx.JSON(dto.AddMessageResponse{Message: "Message added successfully", MessageId: msg.Id})
}

func (c *chatThreadController) UpdateTitle(ctx *fiber.Ctx) error {
	var req dto.UpdateChatTitleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	err := c.withOwnedThread(ctx, func(uctx context.Context, id string) error {
		return c.service.UpdateTitle(uctx, id, req.Title)
	})
	if err != nil {
		return err
	}
	return ctx.JSON(dto.MessageResponse{Message: "Title updated successfully"})
}

func (c *chatThreadController) Delete(ctx *fiber.Ctx) error {
	if err := c.withOwnedThread(ctx, c.service.Delete); err != nil {
		return err
	}
	return ctx.JSON(dto.MessageResponse{Message: "Chat thread deleted successfully"})
}

func (c *chatThreadController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchChatsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), requestUser(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatThreadController) GenerateTitle(ctx *fiber.Ctx) error {
	var req dto.GenerateTitleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	title, err := c.service.GenerateTitle(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(dto.GenerateTitleResponse{Title: title})
}
