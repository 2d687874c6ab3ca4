package account

import (
	"context"
	"regexp"
	"strings"

	"assetmarket/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)

// Repository is the persistence surface accounts need
type Repository interface {
	CreateUser(ctx context.Context, u *domain.User) error // ErrEmailTaken on a duplicate email
	FindUser(ctx context.Context, id uint) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SaveUser(ctx context.Context, u *domain.User) error
}

// ProfileInput carries profile fields; empty values leave the field unchanged
type ProfileInput struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	Website  string `json:"website"`
	GitHub   string `json:"github"`
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
}

// Service registers, authenticates and edits users
type Service struct {
	repo Repository
	cost int // bcrypt cost
}

// NewService creates an account service using bcrypt.DefaultCost
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register creates a buyer account
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, domain.Validation("Please add a name")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.Validation("Please add a valid email")
	}
	if len(password) < MinPasswordLength {
		return nil, domain.Validation("Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: name, Email: email, Password: string(hash), Role: domain.RoleBuyer}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("User registered")
	return u, nil
}

// Authenticate checks credentials and returns the user
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.Unauthorized("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, domain.Unauthorized("Invalid credentials")
	}
	return u, nil
}

// Profile returns the user's own profile
func (s *Service) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.repo.FindUser(ctx, userID)
}

// UpdateProfile applies the non-empty fields of in
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*domain.User, error) {
	u, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&u.Name, in.Name)
	set(&u.Bio, in.Bio)
	set(&u.Avatar, in.Avatar)
	set(&u.Website, in.Website)
	set(&u.Social.GitHub, in.GitHub)
	set(&u.Social.Twitter, in.Twitter)
	set(&u.Social.LinkedIn, in.LinkedIn)
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureAdmin promotes the account with email to admin, creating it with
// password first when it does not exist
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if domain.KindOf(err) == domain.KindNotFound {
		u, err = s.Register(ctx, "Admin", email, password)
	}
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return u, nil
	}
	u.Role = domain.RoleAdmin
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	logrus.WithField("user_id", u.ID).Info("Admin account ready")
	return u, nil
}
