package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/application/usecase"
)

// AccountHandler maneja lectura y actualización de perfil.
type AccountHandler struct {
	uc *usecase.AccountUseCase
}

// NewAccountHandler construye el handler de cuentas.
func NewAccountHandler(uc *usecase.AccountUseCase) *AccountHandler {
	return &AccountHandler{uc: uc}
}

// GetProfile godoc
// @Summary      Obtener perfil por email
// @Tags         accounts
// @Produce      json
// @Param        email  query  string  true  "email exacto de la cuenta"
// @Success      200   {object}  dto.AccountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/accounts [get]
func (h *AccountHandler) GetProfile(c *fiber.Ctx) error {
	out, err := h.uc.GetProfile(c.UserContext(), c.Query("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateProfile godoc
// @Summary      Actualizar perfil
// @Tags         accounts
// @Accept       json
// @Param        body  body  dto.UpdateProfileRequest  true  "email y campos de perfil"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/accounts/profile [put]
func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.UpdateProfile(c.UserContext(), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
