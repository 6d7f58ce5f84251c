// Package store provides SQLite-backed persistence for the development
// server: users, projects, tasks and the audit log.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/synergysphere/sphere/internal/models"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email twice.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAlreadyMember is returned when adding a user to a project twice.
	ErrAlreadyMember = errors.New("user is already a project member")
)

// Store provides access to the server's SQLite database.
type Store struct {
	db *sql.DB
}

// UserRecord is a stored user including the password hash.
type UserRecord struct {
	models.User
	PasswordHash string
	CreatedAt    time.Time
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Planning',
		priority TEXT NOT NULL DEFAULT 'Medium',
		due_date TEXT,
		progress INTEGER NOT NULL DEFAULT 0,
		created_by INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Planning',
		priority TEXT NOT NULL DEFAULT 'Medium',
		due_date TEXT,
		progress INTEGER NOT NULL DEFAULT 0,
		created_by INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (project_id, user_id),
		FOREIGN KEY (project_id) REFERENCES projects(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_project_members_user_id ON project_members(user_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- User Operations ---

// CreateUser inserts a user. The email is matched case-insensitively.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (*UserRecord, error) {
	email = normalizeEmail(email)
	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, email, passwordHash, role, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &UserRecord{
		User:         models.User{ID: formatID(id), Name: name, Email: email, Role: role},
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByEmail looks a user up by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?`,
		normalizeEmail(email),
	))
}

// GetUser looks a user up by id.
func (s *Store) GetUser(ctx context.Context, id models.ID) (*UserRecord, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?`, n,
	))
}

func (s *Store) scanUser(row *sql.Row) (*UserRecord, error) {
	var (
		u  UserRecord
		id int64
	)
	err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.ID = formatID(id)
	return &u, nil
}

// --- Resource Operations ---

// ListResources returns every project or task in creation order.
func (s *Store) ListResources(ctx context.Context, kind models.Kind) ([]models.Resource, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return s.listResources(ctx, kind,
		`SELECT id, name, description, status, priority, due_date, progress, created_by FROM `+table+` ORDER BY id`)
}

// ListMemberProjects returns the projects userID belongs to, in creation
// order.
func (s *Store) ListMemberProjects(ctx context.Context, userID models.ID) ([]models.Resource, error) {
	u, err := parseID(userID)
	if err != nil {
		return []models.Resource{}, nil
	}
	return s.listResources(ctx, models.KindProject,
		`SELECT p.id, p.name, p.description, p.status, p.priority, p.due_date, p.progress, p.created_by
		 FROM projects p JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = ? ORDER BY p.id`, u)
}

func (s *Store) listResources(ctx context.Context, kind models.Kind, query string, args ...interface{}) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind.Plural(), err)
	}
	defer rows.Close()

	items := []models.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind.Plural(), err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if kind == models.KindProject {
		for i := range items {
			if items[i].Members, err = s.projectMembers(ctx, items[i].ID); err != nil {
				return nil, err
			}
		}
	}
	return items, nil
}

// GetResource returns one project or task.
func (s *Store) GetResource(ctx context.Context, kind models.Kind, id models.ID) (*models.Resource, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, priority, due_date, progress, created_by FROM `+table+` WHERE id = ?`, n,
	)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	if kind == models.KindProject {
		if r.Members, err = s.projectMembers(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// CreateResource inserts a project or task and returns it with its assigned
// id. The creator of a project becomes its first member.
func (s *Store) CreateResource(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	createdBy, err := nullableID(r.CreatedBy)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO `+table+` (name, description, status, priority, due_date, progress, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.Status, r.Priority, dueValue(r.DueDate), r.Progress, createdBy, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	if kind == models.KindProject && createdBy.Valid {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`, id, createdBy.Int64,
		); err != nil {
			return nil, fmt.Errorf("insert project member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetResource(ctx, kind, formatID(id))
}

// UpdateResource overwrites the editable fields of an existing record.
// created_by is never changed.
func (s *Store) UpdateResource(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	n, err := parseID(r.ID)
	if err != nil {
		return nil, ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET name = ?, description = ?, status = ?, priority = ?, due_date = ?, progress = ?, updated_at = ?
		 WHERE id = ?`,
		r.Name, r.Description, r.Status, r.Priority, dueValue(r.DueDate), r.Progress, time.Now().UTC(), n,
	)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetResource(ctx, kind, r.ID)
}

// AddProjectMember adds a user to a project. It returns ErrAlreadyMember if
// the user already belongs to it.
func (s *Store) AddProjectMember(ctx context.Context, projectID, userID models.ID) error {
	p, err := parseID(projectID)
	if err != nil {
		return ErrNotFound
	}
	u, err := parseID(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`, p, u,
	)
	if err != nil {
		return fmt.Errorf("insert project member: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// IsProjectMember reports whether userID belongs to the project.
func (s *Store) IsProjectMember(ctx context.Context, projectID, userID models.ID) (bool, error) {
	p, err := parseID(projectID)
	if err != nil {
		return false, nil
	}
	u, err := parseID(userID)
	if err != nil {
		return false, nil
	}
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?`, p, u,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query project member: %w", err)
	}
	return n > 0, nil
}

func (s *Store) projectMembers(ctx context.Context, projectID models.ID) ([]models.Member, error) {
	p, err := parseID(projectID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email FROM project_members m JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = ? ORDER BY u.id`, p,
	)
	if err != nil {
		return nil, fmt.Errorf("query project members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var (
			m  models.Member
			id int64
		)
		if err := rows.Scan(&id, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		m.ID = formatID(id)
		members = append(members, m)
	}
	return members, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(sc scanner) (models.Resource, error) {
	var (
		r         models.Resource
		id        int64
		dueDate   sql.NullString
		createdBy sql.NullInt64
		status    string
		priority  string
	)
	if err := sc.Scan(&id, &r.Name, &r.Description, &status, &priority, &dueDate, &r.Progress, &createdBy); err != nil {
		return models.Resource{}, err
	}
	r.ID = formatID(id)
	r.Status = models.Status(status)
	r.Priority = models.Priority(priority)
	if dueDate.Valid {
		r.DueDate = models.ParseDate(dueDate.String)
	}
	if createdBy.Valid {
		r.CreatedBy = formatID(createdBy.Int64)
	}
	return r, nil
}

func tableFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindProject:
		return "projects", nil
	case models.KindTask:
		return "tasks", nil
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
}

func dueValue(d models.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	if d.Valid() {
		return d.Time().Format("2006-01-02")
	}
	return d.String()
}

func nullableID(id models.ID) (sql.NullInt64, error) {
	if id.IsZero() {
		return sql.NullInt64{}, nil
	}
	n, err := parseID(id)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func parseID(id models.ID) (int64, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", id)
	}
	return n, nil
}

func formatID(n int64) models.ID {
	return models.ID(strconv.FormatInt(n, 10))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
