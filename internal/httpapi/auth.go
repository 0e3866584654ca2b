package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authClaimsKey = "auth_claims"
	bearerPrefix  = "Bearer "
)

var errMissingBearer = errors.New("auth: missing bearer token")

type tokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

func newTokenValidator(cfg Config) *tokenValidator {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer := strings.TrimSpace(cfg.AuthIssuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	return &tokenValidator{secret: []byte(cfg.AuthSigningKey), parser: jwt.NewParser(options...)}
}

func (validator *tokenValidator) validate(header string) (*jwt.RegisteredClaims, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, errMissingBearer
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tokenString == "" {
		return nil, errMissingBearer
	}
	claims := &jwt.RegisteredClaims{}
	token, err := validator.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return validator.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

func (validator *tokenValidator) ginMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, err := validator.validate(ctx.GetHeader("Authorization"))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing or invalid bearer token"))
			return
		}
		ctx.Set(authClaimsKey, claims)
		ctx.Next()
	}
}
