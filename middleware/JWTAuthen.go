package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskboard/model"
	"taskboard/response"
)

// AccessTokenMiddleware requires an HS256 bearer token signed with secret.
// The token's userId claim is stored in the context under "userId".
func AccessTokenMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		if header == "" {
			response.HandleError(response.NewUnauthorizedError("Authorization header is missing"), c)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &model.AccessClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			response.HandleError(response.NewForbiddenError("Token is expired or invalid"), c)
			return
		}

		if claims.UserID == "" {
			response.HandleError(response.NewUnauthorizedError("Invalid userId in token claims"), c)
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("claims", claims)
		c.Next()
	}
}
