package api

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/virevo/virevo/internal/auth"
	"github.com/virevo/virevo/internal/mongodb"
)

const refreshCookie = "refreshToken"

// AuthHandler serves /api/auth.
type AuthHandler struct {
	deps Deps
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks the email and password. Unknown email and wrong password get the same answer.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Email and password are required.", "validation"))
		return
	}
	ctx := c.Request.Context()

	acc, err := h.deps.Accounts.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		internalError(c, err)
		return
	}
	if acc == nil || !auth.CheckPassword(acc.Password, req.Password) {
		h.deps.Metrics.Auth("login", "rejected")
		respond(c, http.StatusOK, Failure("Invalid email or password", nil))
		return
	}

	if h.issueSession(c, http.StatusOK, "Login successful", acc) {
		h.deps.Metrics.Auth("login", "success")
	}
}

type signupRequest struct {
	AnonymousName string `json:"anonymousName" binding:"required,min=3,max=32"`
	Email         string `json:"email"         binding:"required,email"`
	Password      string `json:"password"      binding:"required,min=6"`
}

// Signup creates an account after the OTP step has verified the email.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Anonymous name, email and password are required.", "validation"))
		return
	}
	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)

	if field, msg, err := h.collision(c, req.AnonymousName, email); err != nil {
		internalError(c, err)
		return
	} else if field != "" {
		respond(c, http.StatusOK, Failure(msg, field))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.deps.Config.Auth.BcryptCost)
	if err != nil {
		internalError(c, err)
		return
	}
	acc := mongodb.NewAccount(email, req.AnonymousName, hash, h.deps.now())
	if err := h.deps.Accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, mongodb.ErrDuplicate) {
			respond(c, http.StatusOK, Failure("Anonymous name or email is already taken", nil))
			return
		}
		internalError(c, err)
		return
	}

	if h.issueSession(c, http.StatusCreated, "User registered successfully", acc) {
		h.deps.Metrics.Auth("signup", "success")
	}
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// NewOTP mails a code to an already registered email.
func (h *AuthHandler) NewOTP(c *gin.Context) {
	var req emailRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("A valid email is required.", "validation"))
		return
	}
	email := normalizeEmail(req.Email)

	taken, err := h.deps.Accounts.EmailTaken(c.Request.Context(), email)
	if err != nil {
		internalError(c, err)
		return
	}
	if !taken {
		respond(c, http.StatusOK, Failure("Email is not registered. Try with another.", "email"))
		return
	}
	h.sendOTP(c, email)
}

type newUserRequest struct {
	AnonymousName string `json:"anonymousName" binding:"required,min=3,max=32"`
	Email         string `json:"email"         binding:"required,email"`
}

// NewUser mails a code when both the anonymous name and the email are free.
func (h *AuthHandler) NewUser(c *gin.Context) {
	var req newUserRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Anonymous name and email are required.", "validation"))
		return
	}
	email := normalizeEmail(req.Email)

	if field, msg, err := h.collision(c, req.AnonymousName, email); err != nil {
		internalError(c, err)
		return
	} else if field != "" {
		respond(c, http.StatusOK, Failure(msg, field))
		return
	}
	h.sendOTP(c, email)
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP consumes a matching code.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Email and OTP are required.", "validation"))
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		respond(c, http.StatusBadRequest, Failure("Email and OTP are required.", "validation"))
		return
	}

	ok, err := h.deps.OTP.Consume(c.Request.Context(), normalizeEmail(req.Email), strings.TrimSpace(req.OTP))
	if err != nil {
		internalError(c, err)
		return
	}
	if !ok {
		h.deps.Metrics.Auth("otp", "rejected")
		respond(c, http.StatusOK, Failure("Invalid or expired OTP.", "otp"))
		return
	}
	h.deps.Metrics.Auth("otp", "success")
	respond(c, http.StatusOK, Success("OTP verified successfully.", nil))
}

type updatePasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatePassword replaces the password of the account with the given email.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Email and password are required.", "validation"))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond(c, http.StatusOK, Failure("Email and password are required.", nil))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.deps.Config.Auth.BcryptCost)
	if err != nil {
		internalError(c, err)
		return
	}
	err = h.deps.Accounts.SetPasswordByEmail(c.Request.Context(), normalizeEmail(req.Email), hash)
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusOK, Failure("User not found.", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, Success("Password updated successfully.", nil))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges the current refresh token for a new token pair.
// A refresh token that was already rotated away is rejected.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req refreshRequest
		if err := bindRequest(c, &req); err != nil && !errors.Is(err, errEmptyBody) {
			respond(c, http.StatusBadRequest, Failure("Invalid request body.", "validation"))
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		respond(c, http.StatusUnauthorized, Failure("Unauthorized", nil))
		return
	}
	ctx := c.Request.Context()

	claims, err := h.deps.Tokens.ParseRefresh(token)
	if err != nil {
		h.deps.Metrics.Auth("refresh", "rejected")
		respond(c, http.StatusUnauthorized, Failure("Invalid Token", nil))
		return
	}

	acc, err := h.deps.Accounts.FindByID(ctx, claims.AccountID)
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusUnauthorized, Failure("Invalid Token", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}

	pair, err := h.deps.Tokens.Issue(identityOf(acc))
	if err != nil {
		internalError(c, err)
		return
	}
	rotated, err := h.deps.Refresh.Rotate(ctx, claims.AccountID, claims.ID, pair.RefreshID)
	if err != nil {
		internalError(c, err)
		return
	}
	if !rotated {
		h.deps.Metrics.Auth("refresh", "reused")
		respond(c, http.StatusUnauthorized, Failure("Invalid Token", nil))
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	h.deps.Metrics.Auth("refresh", "success")
	respond(c, http.StatusOK, Success("Token refreshed", gin.H{"accessToken": pair.AccessToken}))
}

type googleRequest struct {
	UserInfo struct {
		Sub     string `json:"sub"     binding:"required"`
		Email   string `json:"email"   binding:"required,email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	} `json:"userInfo" binding:"required"`
}

// Google signs in with profile data from Google, creating the account on first use.
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Google profile is required.", "validation"))
		return
	}
	ctx := c.Request.Context()
	info := req.UserInfo
	email := normalizeEmail(info.Email)

	acc, err := h.deps.Accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if acc.GoogleID == "" {
			if err := h.deps.Accounts.LinkGoogle(ctx, acc.ID, info.Sub); err != nil {
				internalError(c, err)
				return
			}
			acc.GoogleID = info.Sub
		}
		if h.issueSession(c, http.StatusOK, "Login successful", acc) {
			h.deps.Metrics.Auth("google", "login")
		}
	case errors.Is(err, mongodb.ErrNotFound):
		acc, err = h.createGoogleAccount(c, email, info.Sub, info.Name, info.Picture)
		if err != nil {
			internalError(c, err)
			return
		}
		if h.issueSession(c, http.StatusCreated, "User registered successfully", acc) {
			h.deps.Metrics.Auth("google", "signup")
		}
	default:
		internalError(c, err)
	}
}

// Logout revokes the caller's refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	id, _ := identity(c)
	if err := h.deps.Refresh.Revoke(c.Request.Context(), id.AccountID); err != nil {
		internalError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", h.deps.Config.API.CookieSecure, true)
	respond(c, http.StatusOK, Success("Logged out", nil))
}

const googleNameAttempts = 5

func (h *AuthHandler) createGoogleAccount(c *gin.Context, email, sub, name, picture string) (*mongodb.Account, error) {
	ctx := c.Request.Context()
	for range googleNameAttempts {
		acc := mongodb.NewAccount(email, anonymousName(), "", h.deps.now())
		acc.GoogleID = sub
		acc.Name = name
		acc.ProfilePic = picture

		err := h.deps.Accounts.Create(ctx, acc)
		if err == nil {
			return acc, nil
		}
		if !errors.Is(err, mongodb.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to find a free anonymous name after %d attempts", googleNameAttempts)
}

// collision reports which of anonymousName or email is already taken.
func (h *AuthHandler) collision(c *gin.Context, anonymousName, email string) (field, message string, err error) {
	ctx := c.Request.Context()
	taken, err := h.deps.Accounts.AnonymousNameTaken(ctx, anonymousName)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "anonymousName", "Anonymous name is already taken", nil
	}
	taken, err = h.deps.Accounts.EmailTaken(ctx, email)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "email", "Email is already taken. Try with another.", nil
	}
	return "", "", nil
}

func (h *AuthHandler) sendOTP(c *gin.Context, email string) {
	ctx := c.Request.Context()
	log := h.deps.Logger.With("component", "auth")

	code, err := auth.GenerateOTP()
	if err != nil {
		internalError(c, err)
		return
	}
	if err := h.deps.OTP.Save(ctx, email, code); err != nil {
		internalError(c, err)
		return
	}
	if err := h.deps.Mailer.SendOTP(ctx, email, code); err != nil {
		log.ErrorContext(ctx, "Failed to send verification email", "error", err)
		h.deps.Metrics.Error("mailer")
		respond(c, http.StatusOK, Failure("Failed to send verification email", "email"))
		return
	}
	respond(c, http.StatusOK, Success("OTP sent successfully", nil))
}

// issueSession signs a token pair, records its refresh id and replies with the account.
func (h *AuthHandler) issueSession(c *gin.Context, status int, message string, acc *mongodb.Account) bool {
	pair, err := h.deps.Tokens.Issue(identityOf(acc))
	if err != nil {
		internalError(c, err)
		return false
	}
	if err := h.deps.Refresh.Issue(c.Request.Context(), acc.ID.Hex(), pair.RefreshID); err != nil {
		internalError(c, err)
		return false
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	respond(c, status, Success(message, gin.H{
		"userData":    acc,
		"accessToken": pair.AccessToken,
	}))
	return true
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, int(h.deps.Tokens.RefreshTTL().Seconds()), "/", "", h.deps.Config.API.CookieSecure, true)
}

func identityOf(acc *mongodb.Account) auth.Identity {
	return auth.Identity{
		AccountID:     acc.ID.Hex(),
		AnonymousName: acc.AnonymousName,
		Email:         acc.Email,
		Role:          acc.Role,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	nameAdjectives = []string{"quiet", "brave", "gentle", "curious", "bright", "calm", "kind", "swift", "hidden", "wandering"}
	nameNouns      = []string{"fox", "owl", "river", "cedar", "comet", "harbor", "lynx", "meadow", "sparrow", "willow"}
)

func anonymousName() string {
	return fmt.Sprintf("%s-%s-%04d",
		nameAdjectives[rand.IntN(len(nameAdjectives))],
		nameNouns[rand.IntN(len(nameNouns))],
		rand.IntN(10000))
}
