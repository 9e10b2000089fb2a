package controller

import (
	"chatbots-be/internal/pkg/serverutils"
	"chatbots-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	DownloadURL(ctx *fiber.Ctx) error
}

type fileController struct {
	service service.IFileService
}

func NewFileController(service service.IFileService) IFileController {
	return &fileController{service: service}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	r.Get("/files/:fileId/download-url", c.DownloadURL)
}

func (c *fileController) DownloadURL(ctx *fiber.Ctx) error {
	fileId, err := idParam(ctx, "fileId")
	if err != nil {
		return err
	}

	res, err := c.service.DownloadURL(ctx.UserContext(), fileId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create download url", res))
}
