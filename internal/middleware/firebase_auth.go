package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/farmerhub/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// userResolver resolves a Firebase UID to a local account. Satisfied by
// repositories.UserRepository.
type userResolver interface {
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
}

// firebaseClaims verifies a Firebase ID token and resolves its UID to a
// local account's claims. The account must exist; registration happens
// through the firebase-login endpoint.
func firebaseClaims(c echo.Context, authClient *auth.Client, users userResolver, idToken string) (*models.JwtCustomClaims, error) {
	token, err := authClient.VerifyIDToken(c.Request().Context(), idToken)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
	}

	user, err := users.GetUserByFirebaseUID(token.UID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Firebase account is not registered")
	}

	c.Set("firebaseUID", token.UID)
	return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email}, nil
}

// FirebaseAuthMiddleware creates an Echo middleware that authenticates
// requests with Firebase ID tokens only.
func FirebaseAuthMiddleware(authClient *auth.Client, users userResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := firebaseClaims(c, authClient, users, idToken)
			if err != nil {
				return err
			}

			c.Set("user", claims)
			return next(c)
		}
	}
}

// JWTOrFirebaseAuthMiddleware accepts either a locally issued JWT or a
// Firebase ID token on the same Authorization header. The local JWT is
// tried first; on failure the token is verified against Firebase.
func JWTOrFirebaseAuthMiddleware(secret string, authClient *auth.Client, users userResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			if claims, err := parseLocalClaims(tokenString, secret); err == nil {
				c.Set("user", claims)
				return next(c)
			}

			claims, err := firebaseClaims(c, authClient, users, tokenString)
			if err != nil {
				return err
			}

			c.Set("user", claims)
			return next(c)
		}
	}
}
