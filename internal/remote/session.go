package remote

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// FileSession reads the auth token the login flow wrote to disk. It inspects
// the JWT expiry locally without verifying the signature, which the backend
// owns, so a stale token reads as no session instead of a guaranteed 401.
type FileSession struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFileSession constructs the provider.
func NewFileSession(path string, logger *zap.Logger) *FileSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSession{path: path, logger: logger, now: time.Now}
}

// Token returns the current auth token, or ok=false when the user is
// unauthenticated or the stored token has expired.
func (s *FileSession) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", false
	}
	if expired, known := s.expired(token); known && expired {
		s.logger.Debug("stored session token expired")
		return "", false
	}
	return token, true
}

// Clear removes the stored token, logging the user out locally.
func (s *FileSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileSession) expired(token string) (expired, known bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens are passed through untouched; the backend decides.
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return exp.Before(s.now()), true
}
