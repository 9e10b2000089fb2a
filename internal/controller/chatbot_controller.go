package controller

import (
	"chatbots-be/internal/dto"
	"chatbots-be/internal/pkg/serverutils"
	"chatbots-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
	UploadFiles(ctx *fiber.Ctx) error
	DeleteFile(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service     service.IChatbotService
	fileService service.IChatbotFileService
}

func NewChatbotController(service service.IChatbotService, fileService service.IChatbotFileService) IChatbotController {
	return &chatbotController{service: service, fileService: fileService}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbots")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/:chatbotId", c.Show)
	h.Put("/:chatbotId", c.Update)
	h.Delete("/:chatbotId", c.Delete)

	h.Get("/:chatbotId/files", c.ListFiles)
	h.Post("/:chatbotId/files", c.UploadFiles)
	h.Delete("/:chatbotId/files/:fileId", c.DeleteFile)
}

func (c *chatbotController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all chatbots", res))
}

func (c *chatbotController) Show(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show chatbot", res))
}

func (c *chatbotController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateChatbotRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create chatbot", res))
}

func (c *chatbotController) Update(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	var req dto.UpdateChatbotRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update chatbot", res))
}

func (c *chatbotController) Delete(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *chatbotController) ListFiles(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	res, err := c.fileService.List(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chatbot files", res))
}

func (c *chatbotController) UploadFiles(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a multipart form")
	}
	meta, err := parseFileMetadata(form)
	if err != nil {
		return err
	}

	req := dto.UploadChatbotFilesRequest{
		Files:            formFiles(form),
		MetadataForFiles: meta,
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.fileService.Upload(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success upload chatbot files", res))
}

func (c *chatbotController) DeleteFile(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "chatbotId")
	if err != nil {
		return err
	}
	fileId, err := idParam(ctx, "fileId")
	if err != nil {
		return err
	}

	if err := c.fileService.Delete(ctx.UserContext(), id, fileId); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
