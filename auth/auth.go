package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"tupilaqs/models"
	"tupilaqs/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrBlacklistedToken = errors.New("token has been revoked")
)

type Claims struct {
	UserIdent string
	UserName  string
	ExpiresAt time.Time
}

// Issuer signs and verifies session tokens and remembers revoked ones until
// they would have expired anyway.
type Issuer struct {
	key []byte
	ttl time.Duration

	blacklist struct {
		sync.RWMutex
		tokens map[string]time.Time
	}
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	i := &Issuer{key: []byte(secret), ttl: ttl}
	i.blacklist.tokens = make(map[string]time.Time)
	return i
}

// RunCleanup drops expired blacklist entries every interval until ctx ends.
func (i *Issuer) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.cleanupBlacklist(time.Now())
		}
	}
}

func (i *Issuer) cleanupBlacklist(now time.Time) {
	i.blacklist.Lock()
	defer i.blacklist.Unlock()

	for token, expiry := range i.blacklist.tokens {
		if now.After(expiry) {
			delete(i.blacklist.tokens, token)
		}
	}
}

func (i *Issuer) Blacklist(tokenString string, expiry time.Time) {
	i.blacklist.Lock()
	defer i.blacklist.Unlock()
	i.blacklist.tokens[tokenString] = expiry
}

func (i *Issuer) IsBlacklisted(tokenString string) bool {
	i.blacklist.RLock()
	defer i.blacklist.RUnlock()
	_, exists := i.blacklist.tokens[tokenString]
	return exists
}

func (i *Issuer) Generate(userIdent, userName string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_ident": userIdent,
		"user_name":  userName,
		"exp":        now.Add(i.ttl).Unix(),
		"iat":        now.Unix(),
		"jti":        uuid.New().String(),
	})

	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Parse verifies signature, expiry and revocation and returns the claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if i.IsBlacklisted(tokenString) {
		return nil, ErrBlacklistedToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	ident, _ := mapClaims["user_ident"].(string)
	name, _ := mapClaims["user_name"].(string)
	exp, _ := mapClaims["exp"].(float64)
	if ident == "" || exp == 0 {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserIdent: ident,
		UserName:  name,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// Revoke blacklists a token that still verifies. Invalid tokens are ignored.
func (i *Issuer) Revoke(tokenString string) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return
	}
	i.Blacklist(tokenString, claims.ExpiresAt)
}

func ExtractToken(r *http.Request) string {
	tokenString := r.Header.Get("Authorization")
	if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
		return tokenString[7:]
	}

	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}

	return ""
}

type UserFinder interface {
	GetUserByIdent(ctx context.Context, ident string) (*models.User, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}

// JwtVerify rejects requests without a valid token for a user that still
// exists, and stores that user on the request context.
func JwtVerify(issuer *Issuer, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				utils.SendError(w, http.StatusUnauthorized, "Token not found")
				return
			}

			claims, err := issuer.Parse(tokenString)
			if errors.Is(err, ErrBlacklistedToken) {
				utils.SendError(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}
			if err != nil {
				utils.SendError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.GetUserByIdent(r.Context(), claims.UserIdent)
			if err != nil {
				log.Printf("token for unknown user %s: %v", claims.UserIdent, err)
				utils.SendError(w, http.StatusUnauthorized, "User not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
