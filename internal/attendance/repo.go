package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventcheckin/internal/store"
)

// Repository persists activities, students and check-ins via sqlx.
// Queries are written with ? placeholders and rebound per driver.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// InTx runs fn inside one database transaction.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

// CreateAdministrator inserts an administrator and fills in its id.
func (r *Repository) CreateAdministrator(ctx context.Context, a *Administrator) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	q := r.db.Client.Rebind(`
		INSERT INTO administrators (username, password_hash, email, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.Client.QueryRowxContext(ctx, q, a.Username, a.PasswordHash, a.Email, a.CreatedAt).Scan(&a.ID)
	if store.IsUniqueViolation(err) {
		return NewConflictError("administrator username or email already exists")
	}
	return err
}

// ListAdministrators returns all administrators ordered by id.
func (r *Repository) ListAdministrators(ctx context.Context) ([]Administrator, error) {
	var admins []Administrator
	err := r.db.Client.SelectContext(ctx, &admins, `
		SELECT id, username, password_hash, email, created_at
		FROM administrators ORDER BY id
	`)
	return admins, err
}

// AdministratorExists reports whether an administrator with id exists.
func (r *Repository) AdministratorExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM administrators WHERE id = ?`, id)
}

// ActivityExists reports whether an activity with id exists.
func (r *Repository) ActivityExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM activities WHERE id = ?`, id)
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.db.Client.GetContext(ctx, &one, r.db.Client.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertActivity writes the first phase of an activity (no QR payload) and
// sets the storage-assigned id on a.
func (r *Repository) InsertActivity(ctx context.Context, a *Activity) error {
	q := r.db.Client.Rebind(`
		INSERT INTO activities (name, description, start_time, end_time, location, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	return r.db.Client.QueryRowxContext(ctx, q,
		a.Name, a.Description, a.StartTime, a.EndTime, a.Location, a.CreatedBy, a.CreatedAt,
	).Scan(&a.ID)
}

// UpdateActivityQR stores the QR payload of an existing activity.
func (r *Repository) UpdateActivityQR(ctx context.Context, id int64, payload string) error {
	res, err := r.db.Client.ExecContext(ctx, r.db.Client.Rebind(`UPDATE activities SET qr_code_url = ? WHERE id = ?`), payload, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update qr: activity %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// GetActivity returns an activity by id, or nil when absent.
func (r *Repository) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	var a Activity
	err := r.db.Client.GetContext(ctx, &a, r.db.Client.Rebind(`
		SELECT id, name, description, start_time, end_time, location, created_by, created_at, qr_code_url
		FROM activities WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetStudent returns a student by primary key, or nil when absent.
func (r *Repository) GetStudent(ctx context.Context, tx store.Tx, id int64) (*Student, error) {
	var st Student
	err := tx.GetContext(ctx, &st, tx.Rebind(`
		SELECT id, student_id_number, name, email, department, birthday, unit, title, created_at
		FROM students WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// FindOrCreateStudent returns the student with st.StudentIDNumber, inserting
// st first when no such row exists. An existing row is returned unchanged.
func (r *Repository) FindOrCreateStudent(ctx context.Context, tx store.Tx, st Student) (Student, error) {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO students (student_id_number, name, email, department, birthday, unit, title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id_number) DO NOTHING
	`), st.StudentIDNumber, st.Name, st.Email, st.Department, st.Birthday, st.Unit, st.Title, st.CreatedAt)
	if store.IsUniqueViolation(err) {
		return Student{}, NewConflictError("email already registered to another student")
	}
	if err != nil {
		return Student{}, err
	}

	var found Student
	err = tx.GetContext(ctx, &found, tx.Rebind(`
		SELECT id, student_id_number, name, email, department, birthday, unit, title, created_at
		FROM students WHERE student_id_number = ?
	`), st.StudentIDNumber)
	return found, err
}

// InsertCheckIn writes a check-in. A second check-in for the same
// (activity, student) pair is rejected by the schema and reported as a
// conflict.
func (r *Repository) InsertCheckIn(ctx context.Context, tx store.Tx, c *CheckIn) error {
	err := tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO check_ins (activity_id, student_id, check_in_time, check_in_method)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), c.ActivityID, c.StudentID, c.CheckInTime, c.CheckInMethod).Scan(&c.ID)
	if store.IsUniqueViolation(err) {
		return NewConflictError("student already checked in for this activity")
	}
	return err
}

// ListCheckIns returns the roster of an activity in check-in order.
func (r *Repository) ListCheckIns(ctx context.Context, activityID int64) ([]RosterEntry, error) {
	entries := []RosterEntry{}
	err := r.db.Client.SelectContext(ctx, &entries, r.db.Client.Rebind(`
		SELECT c.id, c.activity_id, c.student_id, c.check_in_time, c.check_in_method,
		       s.student_id_number, s.name AS student_name
		FROM check_ins c
		JOIN students s ON s.id = c.student_id
		WHERE c.activity_id = ?
		ORDER BY c.check_in_time, c.id
	`), activityID)
	return entries, err
}
