package controllers

import (
	"context"

	z "github.com/Oudwins/zog"
	"github.com/gofiber/fiber/v2"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// AccountManager is the slice of the account service the HTTP layer uses.
type AccountManager interface {
	Register(ctx context.Context, role models.Role, name, password, phone string) (models.Account, error)
	Login(ctx context.Context, role models.Role, name, password string) (models.Account, error)
	List(ctx context.Context, role models.Role) ([]models.Account, error)
	Remove(ctx context.Context, role models.Role, phone string) error
}

type AccountController struct {
	accounts AccountManager
}

func NewAccountController(accounts AccountManager) *AccountController {
	return &AccountController{accounts: accounts}
}

type registerRequest struct {
	Name        string `json:"lname"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

var registerSchema = z.Struct(z.Shape{
	"Name":        z.String().Min(1).Required(),
	"Password":    z.String().Min(1).Required(),
	"PhoneNumber": z.String().Min(1).Required(),
})

type loginRequest struct {
	Name     string `json:"lname"`
	Password string `json:"password"`
}

var loginSchema = z.Struct(z.Shape{
	"Name":     z.String().Min(1).Required(),
	"Password": z.String().Min(1).Required(),
})

// Register handles POST /{role}/register.
func (ac *AccountController) Register(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
		}
		if issues := registerSchema.Validate(&req); issues != nil {
			return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "all fields are required"))
		}

		account, err := ac.accounts.Register(c.Context(), role, req.Name, req.Password, req.PhoneNumber)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":    string(role) + " registered successfully",
			string(role): account,
		})
	}
}

// Login handles POST /{role}/login.
func (ac *AccountController) Login(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errorResponse(c, apperrors.Wrap(apperrors.ErrValidation, err))
		}
		if issues := loginSchema.Validate(&req); issues != nil {
			return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "please provide a username and password"))
		}

		account, err := ac.accounts.Login(c.Context(), role, req.Name, req.Password)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"userId":  account.ID,
			"role":    string(role),
			"user":    fiber.Map{"lname": account.Name},
		})
	}
}

// List handles GET /{role}/all.
func (ac *AccountController) List(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accounts, err := ac.accounts.List(c.Context(), role)
		if err != nil {
			return errorResponse(c, err)
		}
		if accounts == nil {
			accounts = []models.Account{}
		}
		return c.JSON(fiber.Map{string(role) + "s": accounts})
	}
}

// Remove handles DELETE /{role}/remove/:phone_number.
func (ac *AccountController) Remove(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		phone := c.Params("phone_number")
		if phone == "" {
			return errorResponse(c, apperrors.Wrapf(apperrors.ErrValidation, "missing phone_number"))
		}

		if err := ac.accounts.Remove(c.Context(), role, phone); err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{"message": string(role) + " removed successfully"})
	}
}

// errorResponse converts a taxonomy error into the structured JSON error
// shape every endpoint shares.
func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(apperrors.Status(err)).JSON(fiber.Map{"error": err.Error()})
}
