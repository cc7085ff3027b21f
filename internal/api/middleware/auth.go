package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
	"github.com/orrn/printdesk/internal/utils"
)

const (
	cookieName           = "printdesk_auth"
	defaultTokenDuration = 24 * time.Hour
	settingsKeyJWTSecret = "jwt_secret"
	workerTokenHeader    = "X-Worker-Token"

	ContextKeyAdminEmail = "admin_email"
	contextKeyClaims     = "claims"
)

type AdminStore interface {
	CreateAdmin(ctx context.Context, a *db.Admin) error
	GetAdmin(ctx context.Context, email string) (*db.Admin, error)
	CountAdmins(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, email, hash string) error
}

type SettingStore interface {
	GetSetting(ctx context.Context, key string) (*db.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type AuthMiddleware struct {
	admins        AdminStore
	secret        []byte
	tokenDuration time.Duration
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

type SetupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	SetupRequired bool   `json:"setup_required"`
	Email         string `json:"email,omitempty"`
}

func NewAuthMiddleware(admins AdminStore, settings SettingStore, tokenDuration time.Duration) (*AuthMiddleware, error) {
	if tokenDuration <= 0 {
		tokenDuration = defaultTokenDuration
	}
	a := &AuthMiddleware{admins: admins, tokenDuration: tokenDuration}

	secret, err := getOrCreateSecret(settings)
	if err != nil {
		return nil, err
	}
	a.secret = secret

	return a, nil
}

func getOrCreateSecret(settings SettingStore) ([]byte, error) {
	ctx := context.Background()
	setting, err := settings.GetSetting(ctx, settingsKeyJWTSecret)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			secret := utils.GenerateRandomKey()
			if err := settings.SetSetting(ctx, settingsKeyJWTSecret, hex.EncodeToString(secret)); err != nil {
				return nil, err
			}
			return secret, nil
		}
		return nil, err
	}
	return hex.DecodeString(setting.Value)
}

func (a *AuthMiddleware) isSetupRequired(ctx context.Context) bool {
	count, err := a.admins.CountAdmins(ctx)
	if err != nil {
		log.Printf("[auth] failed to count admins: %v", err)
		return false
	}
	return count == 0
}

func (a *AuthMiddleware) GenerateToken(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenDuration)),
			Issuer:    "printdesk",
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Email != "" {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func (a *AuthMiddleware) getTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	return bearerToken(c)
}

func (a *AuthMiddleware) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(cookieName, token, int(a.tokenDuration.Seconds()), "/", "", true, true)
}

func (a *AuthMiddleware) clearAuthCookie(c *gin.Context) {
	c.SetCookie(cookieName, "", -1, "/", "", true, true)
}

func (a *AuthMiddleware) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Success: false, Message: "Invalid request"})
		return
	}

	if a.isSetupRequired(c.Request.Context()) {
		c.JSON(http.StatusForbidden, LoginResponse{Success: false, Message: "Setup required"})
		return
	}

	admin, err := a.admins.GetAdmin(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, LoginResponse{Success: false, Message: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, LoginResponse{Success: false, Message: "Server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, LoginResponse{Success: false, Message: "Invalid email or password"})
		return
	}

	a.issue(c, admin.Email, "")
}

func (a *AuthMiddleware) issue(c *gin.Context, email, message string) {
	token, err := a.GenerateToken(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{Success: false, Message: "Failed to generate token"})
		return
	}

	a.setAuthCookie(c, token)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, Message: message})
}

func (a *AuthMiddleware) LogoutHandler(c *gin.Context) {
	a.clearAuthCookie(c)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Message: "Logged out"})
}

func (a *AuthMiddleware) StatusHandler(c *gin.Context) {
	token := a.getTokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusOK, StatusResponse{Authenticated: false, SetupRequired: a.isSetupRequired(c.Request.Context())})
		return
	}

	claims, err := a.validateToken(token)
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{Authenticated: false, SetupRequired: a.isSetupRequired(c.Request.Context())})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Authenticated: true, Email: claims.Email})
}

// SetupHandler creates the first admin account. It is refused once any
// admin exists.
func (a *AuthMiddleware) SetupHandler(c *gin.Context) {
	ctx := c.Request.Context()
	if !a.isSetupRequired(ctx) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Setup already completed"})
		return
	}

	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request, a valid email and a password of at least 6 characters are required"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	admin := &db.Admin{Email: strings.ToLower(req.Email), PasswordHash: string(hashedPassword)}
	if err := a.admins.CreateAdmin(ctx, admin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin"})
		return
	}

	log.Printf("[auth] admin %s created", admin.Email)
	a.issue(c, admin.Email, "Setup completed")
}

func (a *AuthMiddleware) ChangePasswordHandler(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	email := c.GetString(ContextKeyAdminEmail)
	admin, err := a.admins.GetAdmin(ctx, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := a.admins.UpdatePassword(ctx, email, string(hashedPassword)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	a.issue(c, email, "Password changed")
}

func (a *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.getTokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := a.validateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextKeyAdminEmail, claims.Email)
		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// RequireWorker accepts requests carrying the shared worker token in the
// X-Worker-Token header or as a bearer token.
func RequireWorker(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(workerTokenHeader)
		if got == "" {
			got = bearerToken(c)
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid worker token"})
			return
		}
		c.Next()
	}
}

// RequireWorkerOrAdmin accepts either the worker token or a valid admin
// token. Admin requests carry their identity into the handler.
func (a *AuthMiddleware) RequireWorkerOrAdmin(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(workerTokenHeader)
		if got == "" {
			got = bearerToken(c)
		}
		if len(expected) > 0 && subtle.ConstantTimeCompare([]byte(got), expected) == 1 {
			c.Next()
			return
		}
		if jwt := a.getTokenFromRequest(c); jwt != "" {
			if claims, err := a.validateToken(jwt); err == nil {
				c.Set(ContextKeyAdminEmail, claims.Email)
				c.Set(contextKeyClaims, claims)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Worker or admin token required"})
	}
}

// ActorFromContext returns the admin behind the request, or an anonymous
// actor.
func ActorFromContext(c *gin.Context) core.Actor {
	email := c.GetString(ContextKeyAdminEmail)
	if email == "" {
		return core.Actor{}
	}
	return core.Actor{Email: email, IsAdmin: true}
}
