package render

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrURLExpired     = errors.New("signed url expired")
	ErrBadSignature   = errors.New("signed url signature mismatch")
)

type ObjectMeta struct {
	Key         string
	Size        int
	ContentType string
	UpdatedAt   time.Time
}

type Object struct {
	ObjectMeta
	Body []byte
}

// Storage holds exported artifacts until the user downloads them.
type Storage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Head(ctx context.Context, key string) (ObjectMeta, error)
	Get(ctx context.Context, key string) (Object, error)
}

// InMemoryStorage keeps objects in process memory. Signed URLs point at
// BaseURL and carry an expiry plus an HMAC over key and expiry.
type InMemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewInMemoryStorage(baseURL string, secret []byte) *InMemoryStorage {
	if baseURL == "" {
		baseURL = "https://storage.local"
	}
	return &InMemoryStorage{
		objects: map[string]Object{},
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
}

func (s *InMemoryStorage) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("storage: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{
		ObjectMeta: ObjectMeta{
			Key:         key,
			Size:        len(body),
			ContentType: contentType,
			UpdatedAt:   s.now().UTC(),
		},
		Body: append([]byte(nil), body...),
	}
	return nil
}

func (s *InMemoryStorage) GetSignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	exp := s.now().UTC().Add(ttl).Format(time.RFC3339)
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("storage: base url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + key
	u.RawPath = ""
	q := url.Values{}
	q.Set("exp", exp)
	q.Set("sig", s.sign(key, exp))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *InMemoryStorage) Head(_ context.Context, key string) (ObjectMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return ObjectMeta{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return obj.ObjectMeta, nil
}

func (s *InMemoryStorage) Get(_ context.Context, key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return obj, nil
}

// Verify checks the exp and sig query values of a URL issued by GetSignedURL.
func (s *InMemoryStorage) Verify(key, exp, sig string) error {
	expiry, err := time.Parse(time.RFC3339, exp)
	if err != nil {
		return fmt.Errorf("%w: bad expiry", ErrBadSignature)
	}
	want := s.sign(key, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return ErrBadSignature
	}
	if !s.now().Before(expiry) {
		return ErrURLExpired
	}
	return nil
}

func (s *InMemoryStorage) sign(key, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(exp))
	return hex.EncodeToString(mac.Sum(nil))
}
