package controller

import (
	"mime/multipart"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/pkg/serverutils"
	"chatbots-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
}

type sessionController struct {
	service        service.ISessionService
	messageService service.IMessageService
}

func NewSessionController(service service.ISessionService, messageService service.IMessageService) ISessionController {
	return &sessionController{service: service, messageService: messageService}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbots/:chatbotId/sessions")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/:sessionId", c.Show)
	h.Delete("/:sessionId", c.Delete)
	h.Get("/:sessionId/messages", c.ListMessages)
	h.Post("/:sessionId/messages", c.SendMessage)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), chatbotId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create session", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), chatbotId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), chatbotId, stringParam(ctx, "sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), chatbotId, stringParam(ctx, "sessionId")); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// SendMessage accepts JSON, or a multipart form when files are attached.
func (c *sessionController) SendMessage(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
		}
		if err := messageFromForm(form, &req); err != nil {
			return err
		}
	} else if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.messageService.Send(ctx.UserContext(), chatbotId, stringParam(ctx, "sessionId"), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success send message", res))
}

func (c *sessionController) ListMessages(ctx *fiber.Ctx) error {
	chatbotId, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	res, err := c.messageService.List(ctx.UserContext(), chatbotId, stringParam(ctx, "sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func messageFromForm(form *multipart.Form, req *dto.SendMessageRequest) error {
	var err error
	req.Content = formValue(form, "content")
	req.SenderType = formValue(form, "sender_type")
	if req.ResponseId, err = formInt64(form, "response_id"); err != nil {
		return err
	}
	if req.ParentResponseId, err = formInt64(form, "parent_response_id"); err != nil {
		return err
	}
	if err := formJSON(form, "metadata", &req.Metadata); err != nil {
		return err
	}
	if err := formJSON(form, "usage", &req.Usage); err != nil {
		return err
	}
	if req.MetadataForFiles, err = parseFileMetadata(form); err != nil {
		return err
	}
	req.Files = formFiles(form)
	return nil
}
