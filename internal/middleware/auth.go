package middleware

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleStaff = "staff"

const (
	localStaff    = "staff"
	localUsername = "username"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("staff login is not configured")
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword hashes the password using bcrypt
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword checks if the provided password is correct
func CheckPassword(password, hashedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// StaffAuth guards staff-only actions with one shared account. With no
// account configured every caller is let through as a customer and login
// is refused.
type StaffAuth struct {
	username     string
	passwordHash string
	secret       []byte
	ttl          time.Duration
}

// NewStaffAuth builds the guard. An empty secret is replaced by a random
// one, so tokens stop working after a restart.
func NewStaffAuth(username, passwordHash, secret string) *StaffAuth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &StaffAuth{username: username, passwordHash: passwordHash, secret: key, ttl: 12 * time.Hour}
}

func (a *StaffAuth) Enabled() bool {
	return a != nil && a.username != "" && a.passwordHash != ""
}

// Login checks the credentials and returns a signed token.
func (a *StaffAuth) Login(username, password string) (string, error) {
	if !a.Enabled() {
		return "", ErrAuthDisabled
	}
	if username != a.username || CheckPassword(password, a.passwordHash) != nil {
		return "", ErrInvalidCredentials
	}
	return a.GenerateJWT(username)
}

// GenerateJWT generates a JWT token for the given user
func (a *StaffAuth) GenerateJWT(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Role:     RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *StaffAuth) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != RoleStaff {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearer(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	return tokenString, tokenString != authHeader
}

// Identify marks the request as staff when it carries a valid token. A
// request without a token passes through as a customer; a bad token is
// rejected.
func (a *StaffAuth) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !a.Enabled() {
			return c.Next()
		}
		tokenString, ok := bearer(c)
		if !ok {
			return c.Next()
		}
		claims, err := a.Parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"code":    "unauthorized",
				"message": "Invalid or expired token",
			})
		}
		c.Locals(localStaff, true)
		c.Locals(localUsername, claims.Username)
		return c.Next()
	}
}

// StaffProtected requires a staff token when staff login is configured.
func (a *StaffAuth) StaffProtected() fiber.Handler {
	identify := a.Identify()
	return func(c *fiber.Ctx) error {
		if !a.Enabled() {
			return c.Next()
		}
		if _, ok := bearer(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"code":    "unauthorized",
				"message": "Authorization header is missing",
			})
		}
		return identify(c)
	}
}

// IsStaff reports whether Identify accepted a staff token for this request.
func IsStaff(c *fiber.Ctx) bool {
	staff, _ := c.Locals(localStaff).(bool)
	return staff
}

// Username returns the staff name from the token, if any.
func Username(c *fiber.Ctx) string {
	name, _ := c.Locals(localUsername).(string)
	return name
}
