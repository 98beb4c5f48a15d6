// Package auth maneja el login del dashboard: usuarios con password
// hasheado en un archivo JSON y sesiones en memoria.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
)

var hashCost = bcrypt.DefaultCost

// dummyHash se compara cuando el usuario no existe, para que la respuesta
// tarde lo mismo que con un usuario válido.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

// Users es el archivo {"usuario": "hash bcrypt"}. Entradas en texto plano
// se hashean al cargar y el archivo se reescribe.
type Users struct {
	mu     sync.RWMutex
	path   string
	hashes map[string]string
	logger *zap.Logger
}

func LoadUsers(path, defaultUser, defaultPassword string, logger *zap.Logger) (*Users, error) {
	if logger == nil {
		logger = zap.L()
	}
	u := &Users{
		path:   path,
		hashes: make(map[string]string),
		logger: logger.With(zap.String("component", "users")),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if defaultUser == "" || defaultPassword == "" {
			u.logger.Warn("users file not found and no default credentials configured, login disabled",
				zap.String("path", path))
			return u, nil
		}
		if err := u.Set(defaultUser, defaultPassword); err != nil {
			return nil, err
		}
		u.logger.Info("users file created with default user", zap.String("path", path), zap.String("user", defaultUser))
		return u, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}

	upgraded := 0
	for name, secret := range stored {
		if isHash(secret) {
			u.hashes[name] = secret
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		u.hashes[name] = string(hash)
		upgraded++
	}
	if upgraded > 0 {
		if err := u.save(); err != nil {
			return nil, err
		}
		u.logger.Info("plaintext passwords hashed", zap.Int("users", upgraded))
	}
	return u, nil
}

func isHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Authenticate devuelve ErrUnauthorized ante usuario o password incorrectos,
// sin distinguir cuál de los dos falló.
func (u *Users) Authenticate(username, password string) error {
	u.mu.RLock()
	hash, ok := u.hashes[username]
	u.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return apperrors.ErrUnauthorized("invalid username or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperrors.ErrUnauthorized("invalid username or password", nil)
	}
	return nil
}

// Set crea o cambia la password de un usuario y persiste el archivo.
func (u *Users) Set(username, password string) error {
	if username == "" || password == "" {
		return apperrors.ErrValidation("username and password are required", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u.mu.Lock()
	u.hashes[username] = string(hash)
	u.mu.Unlock()
	return u.save()
}

func (u *Users) save() error {
	u.mu.RLock()
	data, err := json.MarshalIndent(u.hashes, "", "    ")
	u.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.WriteFile(u.path, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}
