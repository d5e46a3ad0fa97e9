package handler

import (
	"github.com/gofiber/fiber/v2"

	"docportal/internal/model"
	"docportal/internal/service"
)

// Login exchanges credentials for a bearer session.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body model.LoginRequest true "credentials"
// @Success 200 {object} model.ApiResponse[model.Session]
// @Failure 401 {object} model.ApiResponse[any]
// @Router /api/auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.LoginRequest
		if ok, err := validateBody(c, &req); !ok {
			return err
		}
		sess, err := svc.Login(c.UserContext(), req)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, sess, "login successful")
	}
}

// Register creates an account and returns its session.
//
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body model.RegisterRequest true "account"
// @Success 201 {object} model.ApiResponse[model.Session]
// @Failure 400 {object} model.ApiResponse[any]
// @Failure 409 {object} model.ApiResponse[any]
// @Failure 429 {object} model.ApiResponse[any]
// @Router /api/auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.RegisterRequest
		if ok, err := validateBody(c, &req); !ok {
			return err
		}
		sess, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusCreated, sess, "registration successful")
	}
}

// CheckUsername reports whether a username is still free.
//
// @Summary Username availability
// @Tags auth
// @Param username path string true "username"
// @Success 200 {object} model.ApiResponse[bool]
// @Router /api/auth/check-username/{username} [get]
func CheckUsername(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := svc.IsUsernameAvailable(c.UserContext(), c.Params("username"))
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, ok, "")
	}
}

// CheckEmail reports whether an email is still free.
//
// @Summary Email availability
// @Tags auth
// @Param email path string true "email"
// @Success 200 {object} model.ApiResponse[bool]
// @Router /api/auth/check-email/{email} [get]
func CheckEmail(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := svc.IsEmailAvailable(c.UserContext(), c.Params("email"))
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, ok, "")
	}
}
