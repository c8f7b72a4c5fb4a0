package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"chatty/apperror"
	"chatty/database"
	"chatty/models"
	"chatty/presence"
)

// Messages shown to clients
const (
	msgUsernameTaken = "Username already used"
	msgEmailTaken    = "Email already used"
	msgBadLogin      = "Incorrect username or password"
	msgNoSuchUser    = "User does not exist."
)

// UserService handles accounts, credentials and user listings
type UserService struct {
	users     database.UserStore
	directory *presence.Directory
	opts      Options
	logger    *slog.Logger
}

func NewUserService(users database.UserStore, directory *presence.Directory, opts Options, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		directory: directory,
		opts:      opts,
		logger:    logger,
	}
}

// Register creates an account. Username and email must both be unused.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username", msgUsernameTaken)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, storeFailure(err)
	}

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email", msgEmailTaken)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, storeFailure(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.hashCost())
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}

	// The unique indexes catch a duplicate that raced past the checks above
	switch err := s.users.CreateUser(ctx, user); {
	case errors.Is(err, database.ErrDuplicateUsername):
		return nil, apperror.Conflict("username", msgUsernameTaken)
	case errors.Is(err, database.ErrDuplicateEmail):
		return nil, apperror.Conflict("email", msgEmailTaken)
	case err != nil:
		return nil, storeFailure(err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user.Public(), nil
}

// Login checks credentials. Unknown usernames and wrong passwords produce
// the same error.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.Unauthorized(msgBadLogin)
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized(msgBadLogin)
	}

	return user.Public(), nil
}

// GetAllUsers lists every user except the caller
func (s *UserService) GetAllUsers(ctx context.Context, req *models.GetAllUsersRequest) ([]*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.list(ctx, req.ID, "")
}

// GetMentionUsers lists users other than the caller whose username starts
// with req.Starts
func (s *UserService) GetMentionUsers(ctx context.Context, req *models.GetMentionUsersRequest) ([]*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.list(ctx, req.ID, req.Starts)
}

func (s *UserService) list(ctx context.Context, excludeID, prefix string) ([]*models.User, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	users, err := s.users.ListUsers(ctx, excludeID, prefix)
	if err != nil {
		return nil, storeFailure(err)
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		pub := u.Public()
		pub.Online = s.directory.Online(u.ID)
		out = append(out, pub)
	}
	return out, nil
}

// SetAvatar stores the user's avatar image
func (s *UserService) SetAvatar(ctx context.Context, req *models.SetAvatarRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	user, err := s.users.SetAvatar(ctx, req.ID, req.Image)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.NotFound(msgNoSuchUser)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return user.Public(), nil
}

// Logout drops the user's presence entry so relays stop reaching the old socket
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	s.directory.Forget(userID)
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}
