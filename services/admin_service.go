package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"hotel-inventory/models"
	"hotel-inventory/repository"
	"hotel-inventory/utils"
)

// AdminService authenticates back-office staff.
type AdminService struct {
	store  repository.Store
	secret string
	ttl    time.Duration
	opts   Options
	log    *logrus.Entry
}

func NewAdminService(store repository.Store, secret string, ttl time.Duration, opts Options) *AdminService {
	opts = opts.withDefaults()
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminService{store: store, secret: secret, ttl: ttl, opts: opts, log: opts.Log.WithField("service", "admin")}
}

// Create stores an admin with a bcrypt-hashed password.
func (s *AdminService) Create(ctx context.Context, fullName, username, password, role string) (*models.Admin, error) {
	const op = "AdminService.Create"
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return nil, invalid(op, "username and a password of at least 8 characters are required")
	}
	if role == "" {
		role = utils.RoleAdmin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, E(KindCommand, op, fmt.Errorf("hash password: %w", err))
	}
	admin := &models.Admin{FullName: strings.TrimSpace(fullName), Username: username, Password: string(hash), Role: role}
	err = s.store.Transact(ctx, func(tx repository.Tx) error {
		return tx.Create(ctx, admin)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, invalid(op, "username %s is taken", username)
	}
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"admin_id": admin.ID, "username": username}).Info("admin created")
	return admin, nil
}

// Login checks credentials and issues a signed token. Unknown users and
// wrong passwords look the same to the caller.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, *models.Admin, error) {
	const op = "AdminService.Login"
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	admin, err := s.store.AdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithField("username", username).Warn("login for unknown admin")
		return "", nil, E(KindAuth, op, errors.New("invalid username or password"))
	}
	if err != nil {
		return "", nil, queryErr(op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		s.log.WithField("username", username).Warn("login with wrong password")
		return "", nil, E(KindAuth, op, errors.New("invalid username or password"))
	}

	token, err := utils.IssueAdminToken(s.secret, strconv.FormatUint(uint64(admin.ID), 10), admin.Username, admin.Role, s.ttl)
	if err != nil {
		return "", nil, E(KindCommand, op, err)
	}
	return token, admin, nil
}
