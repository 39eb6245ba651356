package server

import (
	"github.com/fanalyst/trading-api/internal/auth"
	"github.com/fanalyst/trading-api/internal/crud"
	"github.com/fanalyst/trading-api/internal/files"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Trading API is running",
		})
	})

	// ==========================================
	// AUTH
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Post("/login", auth.LoginHandler)
	authGroup.Post("/login-with-third", auth.LoginWithThirdHandler)
	authGroup.Get("/verify", auth.JWTProtected(), auth.VerifyHandler)
	authGroup.Post("/signup", auth.SignupHandler)
	authGroup.Post("/edit-profile", auth.JWTProtected(), auth.EditProfileHandler)
	authGroup.Post("/forgot", auth.ForgotHandler)
	authGroup.Post("/reset", auth.ResetHandler)
	authGroup.Delete("/delete-account", auth.JWTProtected(), auth.DeleteAccountHandler)
	authGroup.Get("/google/login", auth.GoogleLoginHandler)
	authGroup.Get("/google/callback", auth.GoogleCallbackHandler)

	// ==========================================
	// ENTITY COLLECTIONS
	// All bearer-gated except material-categories.
	// ==========================================
	crud.NewHandler[models.Currency]("Currency").
		Register(app.Group("/currencies", auth.JWTProtected()))
	crud.NewHandler[models.Customer]("Customer").
		Register(app.Group("/customers", auth.JWTProtected()))
	crud.NewHandler[models.Hscode]("Hscode").
		Register(app.Group("/hscodes", auth.JWTProtected()))
	crud.NewHandler[models.OriginArea]("OriginArea").
		Register(app.Group("/origin-areas", auth.JWTProtected()))
	crud.NewHandler[models.Supplier]("Supplier").
		Register(app.Group("/suppliers", auth.JWTProtected()))
	crud.NewHandler[models.Item]("Item").
		Register(app.Group("/items", auth.JWTProtected()))
	crud.NewHandler[models.MaterialCategory]("MaterialCategory").
		Register(app.Group("/material-categories"))

	usersHandler := crud.NewHandler[models.User]("User")
	usersHandler.Decode = decodeUserBody
	usersHandler.BeforeCreate = hashUserPassword
	usersHandler.BeforeUpdate = hashUserPasswordUpdate
	usersHandler.Register(app.Group("/users", auth.JWTProtected()))

	// ==========================================
	// FILE MANAGER
	// ==========================================
	app.Post("/files/upload", files.UploadHandler)
}

// decodeUserBody accepts the password field the model hides on output.
func decodeUserBody(c *fiber.Ctx) (*models.User, error) {
	var body struct {
		models.User
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return nil, err
	}
	body.User.Password = body.Password
	return &body.User, nil
}

func hashUserPassword(u *models.User) error {
	if u.Password == "" {
		return nil
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

func hashUserPasswordUpdate(updates map[string]interface{}) error {
	password, ok := updates["password"].(string)
	if !ok || password == "" {
		delete(updates, "password")
		return nil
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	updates["password"] = hashed
	return nil
}
