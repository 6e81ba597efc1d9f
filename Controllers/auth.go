package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"Hearth/Models"
	"Hearth/middleware"
)

type RegisterFamilyInput struct {
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// RegisterFamily creates a family with its first parent account
func RegisterFamily(ctx *fiber.Ctx) error {
	var input RegisterFamilyInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.FamilyName == "" || input.Name == "" || input.Email == "" || len(input.Password) < 6 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "family_name, name, email and a password of at least 6 characters are required",
		})
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	family := Models.Family{Name: input.FamilyName}
	if err := Models.DB.Create(&family).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create family"})
	}

	parent := Models.Member{
		FamilyID: family.ID,
		Name:     input.Name,
		Email:    &input.Email,
		Password: passwordHash,
		Role:     Models.RoleParent,
	}
	if err := Models.DB.Create(&parent).Error; err != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A member with this email already exists"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"family_id": family.ID,
		"member_id": parent.ID,
	})
}

type AddMemberInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AddMember adds a member to the requesting parent's family
func AddMember(ctx *fiber.Ctx) error {
	parent, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	var input AddMemberInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Role != Models.RoleParent && input.Role != Models.RoleChild {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role must be parent or child"})
	}
	if input.Name == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	member := Models.Member{
		FamilyID: parent.FamilyID,
		Name:     input.Name,
		Role:     input.Role,
	}

	// Children may be created without a login. Parents, and any member
	// given an email, need credentials.
	if input.Role == Models.RoleParent || input.Email != "" {
		if input.Email == "" || len(input.Password) < 6 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "email and a password of at least 6 characters are required",
			})
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}
		member.Email = &input.Email
		member.Password = passwordHash
	}
	if err := Models.DB.Create(&member).Error; err != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A member with this email already exists"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(member)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and sets the jwt session cookie
func Login(ctx *fiber.Ctx) error {
	var input LoginInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var member Models.Member
	if err := Models.DB.Where("email = ?", input.Email).First(&member).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	if err := bcrypt.CompareHashAndPassword(member.Password, []byte(input.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	claims := jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(member.ID)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(middleware.SecretKey))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
	})

	return ctx.JSON(fiber.Map{"message": "Logged in"})
}

// Logout clears the session cookie
func Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return ctx.JSON(fiber.Map{"message": "Logged out"})
}

// User returns the currently authenticated member
func User(ctx *fiber.Ctx) error {
	member, err := requestMember(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not logged in"})
	}

	return ctx.JSON(member)
}
