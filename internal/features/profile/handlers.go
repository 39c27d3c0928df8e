package profile

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMine handles GET /profile.
func (h *Handler) GetMine(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	p, err := h.service.Get(userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("Profile not found"))
		}
		slog.Error("get profile failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load profile"))
	}
	return c.JSON(ToResponse(p))
}

// Update handles PUT /profile.
func (h *Handler) Update(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req UpdateRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	p, err := h.service.Update(userID, &req)
	if err != nil {
		slog.Error("update profile failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to save profile"))
	}
	return c.JSON(ToResponse(p))
}

// GetMember handles GET /profile/:userId within the caller's community.
func (h *Handler) GetMember(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid user ID"))
	}

	p, err := h.service.GetInCommunity(targetID, session.GetCommunityID(c))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("Profile not found"))
		}
		slog.Error("get member profile failed", "target_id", targetID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load profile"))
	}
	return c.JSON(ToResponse(p))
}

// UploadImage handles POST /profile/image with multipart field "image".
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Image file is required"))
	}
	if file.Size > MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err(ErrImageTooLarge.Error()))
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Unreadable image file"))
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Unreadable image file"))
	}

	imageURL, err := h.service.SaveImage(userID, &Upload{
		Filename: file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Content:  content,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrImageTooLarge), errors.Is(err, ErrImageType), errors.Is(err, ErrImageEmpty):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Err(err.Error()))
		case errors.Is(err, ErrProfileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("Profile not found"))
		}
		slog.Error("profile image upload failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to save image"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"imageUrl": imageURL})
}
