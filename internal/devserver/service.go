// Package devserver is a local implementation of the SynergySphere REST API,
// used for development and for exercising the client end to end.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/synergysphere/sphere/internal/audit"
	"github.com/synergysphere/sphere/internal/models"
	"github.com/synergysphere/sphere/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Service provides the server's business logic.
type Service struct {
	store      *store.Store
	tokens     *TokenIssuer
	audit      *audit.Recorder
	validate   *validator.Validate
	bcryptCost int
}

// registration is the validated shape of a sign-up request.
type registration struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=72"`
}

// NewService creates a new service.
func NewService(s *store.Store, tokens *TokenIssuer) *Service {
	return &Service{
		store:      s,
		tokens:     tokens,
		audit:      audit.NewRecorder(s, nil),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// --- Users ---

// Register creates a user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	reg := registration{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(reg); err != nil {
		return nil, registrationError(err)
	}
	name, email = reg.Name, reg.Email

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, name, email, string(hash), "member")
	if err != nil {
		s.audit.Record(ctx, "user.register", map[string]string{"email": email}, audit.Outcome(err), "", "", err.Error())
		return nil, err
	}
	s.audit.Record(ctx, "user.register", map[string]string{"email": email}, audit.OutcomeSuccess, u.ID.String(), "", "")
	return &u.User, nil
}

// registrationError turns validator failures into the message shown to the
// user. Missing fields are reported together.
func registrationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &models.ValidationError{Message: "Name, email and password are required"}
		}
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "email":
		return &models.ValidationError{Field: "email", Message: "Email is not valid"}
	case fe.Field() == "Password":
		return &models.ValidationError{Field: "password", Message: "Password must be at most 72 bytes"}
	default:
		return &models.ValidationError{Field: strings.ToLower(fe.Field()), Message: fe.Field() + " is too long"}
	}
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	inputs := map[string]string{"email": email}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.audit.Record(ctx, "user.login", inputs, audit.OutcomeDenied, "", "", "unknown email")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.audit.Record(ctx, "user.login", inputs, audit.OutcomeDenied, u.ID.String(), "", "wrong password")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.User)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit.Record(ctx, "user.login", inputs, audit.OutcomeSuccess, u.ID.String(), "", "")
	return token, &u.User, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, models.ID(claims.Subject))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &u.User, nil
}

// --- Projects and tasks ---

// List returns the records of kind visible to user. Projects are limited to
// those user is a member of.
func (s *Service) List(ctx context.Context, kind models.Kind, user models.User) ([]models.Resource, error) {
	if kind == models.KindProject {
		return s.store.ListMemberProjects(ctx, user.ID)
	}
	return s.store.ListResources(ctx, kind)
}

// Get returns one record of kind. A project is only returned to its members.
func (s *Service) Get(ctx context.Context, kind models.Kind, user models.User, id models.ID) (*models.Resource, error) {
	r, err := s.store.GetResource(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if kind == models.KindProject {
		ok, err := s.store.IsProjectMember(ctx, id, user.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotMember
		}
	}
	return r, nil
}

// AddMember adds memberID to a project owned by user.
func (s *Service) AddMember(ctx context.Context, user models.User, projectID, memberID models.ID) (*models.Member, error) {
	const action = "project.add_member"
	inputs := map[string]string{"project_id": projectID.String(), "user_id": memberID.String()}

	p, err := s.store.GetResource(ctx, models.KindProject, projectID)
	if err != nil {
		return nil, err
	}
	if p.CreatedBy != user.ID {
		s.audit.Record(ctx, action, inputs, audit.OutcomeDenied, user.ID.String(), projectID.String(), "not the project owner")
		return nil, ErrNotOwner
	}
	u, err := s.store.GetUser(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.AddProjectMember(ctx, projectID, memberID); err != nil {
		s.audit.Record(ctx, action, inputs, audit.OutcomeFailure, user.ID.String(), projectID.String(), err.Error())
		return nil, err
	}
	s.audit.Record(ctx, action, inputs, audit.OutcomeSuccess, user.ID.String(), projectID.String(), "")
	return &models.Member{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Create validates r and stores it as created by user.
func (s *Service) Create(ctx context.Context, kind models.Kind, user models.User, r models.Resource) (*models.Resource, error) {
	action := string(kind) + ".create"
	if err := normalize(kind, &r); err != nil {
		s.audit.Record(ctx, action, r, audit.OutcomeFailure, user.ID.String(), "", err.Error())
		return nil, err
	}
	r.ID = ""
	r.CreatedBy = user.ID
	created, err := s.store.CreateResource(ctx, kind, r)
	if err != nil {
		s.audit.Record(ctx, action, r, audit.OutcomeFailure, user.ID.String(), "", err.Error())
		return nil, err
	}
	s.audit.Record(ctx, action, r, audit.OutcomeSuccess, user.ID.String(), created.ID.String(), "")
	return created, nil
}

// Update validates r and overwrites the stored record with id. Only the
// creator may update a project.
func (s *Service) Update(ctx context.Context, kind models.Kind, user models.User, id models.ID, r models.Resource) (*models.Resource, error) {
	action := string(kind) + ".update"
	existing, err := s.store.GetResource(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if kind == models.KindProject && existing.CreatedBy != "" && existing.CreatedBy != user.ID {
		s.audit.Record(ctx, action, r, audit.OutcomeDenied, user.ID.String(), id.String(), "not the project owner")
		return nil, ErrForbidden
	}
	if err := normalize(kind, &r); err != nil {
		s.audit.Record(ctx, action, r, audit.OutcomeFailure, user.ID.String(), id.String(), err.Error())
		return nil, err
	}
	r.ID = id
	updated, err := s.store.UpdateResource(ctx, kind, r)
	s.audit.Record(ctx, action, r, audit.Outcome(err), user.ID.String(), id.String(), errText(err))
	return updated, err
}

// Activity returns the most recent audit entries, newest first.
func (s *Service) Activity(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	return s.store.ListAudit(ctx, limit)
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// normalize applies defaults and rejects values the client could not have
// produced through its form.
func normalize(kind models.Kind, r *models.Resource) error {
	r.Name = strings.TrimSpace(r.Name)
	if err := models.ValidateDraft(kind, *r); err != nil {
		return err
	}

	if r.Status == "" {
		r.Status = models.StatusPlanning
	} else {
		st, err := models.ParseStatus(string(r.Status))
		if err != nil {
			return err
		}
		r.Status = st
	}

	if r.Priority == "" {
		r.Priority = models.PriorityMedium
	} else {
		p, err := models.ParsePriority(string(r.Priority))
		if err != nil {
			return err
		}
		r.Priority = p
	}

	if !r.DueDate.IsZero() && !r.DueDate.Valid() {
		return &models.ValidationError{Field: "due_date", Message: "due date must be YYYY-MM-DD"}
	}
	return nil
}
