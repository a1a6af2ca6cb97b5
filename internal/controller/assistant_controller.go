package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/pkg/serverutils"
	"enculture-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Completion(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	StreamWithThread(ctx *fiber.Ctx) error
	GenerateSurvey(ctx *fiber.Ctx) error
	EnhanceSurveyName(ctx *fiber.Ctx) error
	EnhanceSurveyContext(ctx *fiber.Ctx) error
	GenerateClassifiers(ctx *fiber.Ctx) error
	GenerateFormula(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type assistantController struct {
	service   service.IAssistantService
	chats     service.IChatThreadService
	logger    logger.ILogger
	jwtSecret string
	// streamTimeout bounds a streamed answer; the stream outlives the handler.
	streamTimeout time.Duration
}

func NewAssistantController(
	service service.IAssistantService,
	chats service.IChatThreadService,
	log logger.ILogger,
	jwtSecret string,
	streamTimeout time.Duration,
) IAssistantController {
	if streamTimeout <= 0 {
		streamTimeout = 2 * time.Minute
	}
	return &assistantController{
		service:       service,
		chats:         chats,
		logger:        log,
		jwtSecret:     jwtSecret,
		streamTimeout: streamTimeout,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Get("/health", c.Health)

	protected := h.Group("", serverutils.JwtMiddleware(c.jwtSecret))
	protected.Post("/completion", c.Completion)
	protected.Post("/stream", c.Stream)
	protected.Post("/stream-with-thread", c.StreamWithThread)
	protected.Post("/generate-survey", c.GenerateSurvey)
	protected.Post("/enhance-survey-name", c.EnhanceSurveyName)
	protected.Post("/enhance-survey-context", c.EnhanceSurveyContext)
	protected.Post("/generate-classifiers", c.GenerateClassifiers)
	protected.Post("/generate-formula", c.GenerateFormula)
}

func (c *assistantController) Completion(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Complete(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) Stream(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	c.streamSSE(ctx, func(sctx context.Context, emit func(string) error) error {
		return c.service.Stream(sctx, &req, emit)
	})
	return nil
}

func (c *assistantController) StreamWithThread(ctx *fiber.Ctx) error {
	var req dto.StreamWithThreadRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	// fail with a proper status before the event stream starts
	if _, err := ownedThread(ctx, c.chats, req.ThreadId); err != nil {
		return err
	}

	c.streamSSE(ctx, func(sctx context.Context, emit func(string) error) error {
		return c.service.StreamWithThread(sctx, &req, emit)
	})
	return nil
}

func (c *assistantController) GenerateSurvey(ctx *fiber.Ctx) error {
	var req dto.SurveyGenerationRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.GenerateSurvey(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) EnhanceSurveyName(ctx *fiber.Ctx) error {
	var req dto.EnhanceSurveyNameRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.EnhanceSurveyName(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) EnhanceSurveyContext(ctx *fiber.Ctx) error {
	var req dto.EnhanceSurveyContextRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.EnhanceSurveyContext(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) GenerateClassifiers(ctx *fiber.Ctx) error {
	var req dto.GenerateClassifiersRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.GenerateClassifiers(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) GenerateFormula(ctx *fiber.Ctx) error {
	var req dto.GenerateFormulaRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.GenerateFormula(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	res := c.service.Health(ctx.UserContext())
	if res.Status != "healthy" {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(res)
	}
	return ctx.JSON(res)
}

// streamSSE writes each chunk as a server-sent event and finishes with a
// done marker. The writer runs after the handler returns, so it gets its
// own context.
func (c *assistantController) streamSSE(ctx *fiber.Ctx, run func(ctx context.Context, emit func(string) error) error) {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	timeout := c.streamTimeout
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		emit := func(content string) error {
			return writeEvent(w, dto.StreamChunk{Content: content})
		}
		if err := run(sctx, emit); err != nil {
			c.logger.Warn("AssistantController", "Stream ended with error", map[string]interface{}{"error": err.Error()})
			_ = writeEvent(w, dto.StreamChunk{Error: "stream interrupted"})
			return
		}
		_ = writeEvent(w, dto.StreamChunk{Done: true})
	})
}

func writeEvent(w *bufio.Writer, chunk dto.StreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

func parseAndValidate(ctx *fiber.Ctx, req any) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return serverutils.ValidateRequest(req)
}
