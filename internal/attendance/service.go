package attendance

import (
	"context"
	"time"

	"eventcheckin/internal/metrics"
	"eventcheckin/internal/store"
)

// CheckInInput identifies the activity and the attendee. The attendee is
// either an existing student by internal id (StudentID) or an external id
// number plus profile fields (StudentIDNumber, StudentName, ...), in which
// case the student is created on first check-in.
type CheckInInput struct {
	ActivityID      int64
	StudentID       int64
	StudentIDNumber string
	StudentName     string
	Email           string
	Department      string
	Birthday        string
	Unit            string
	Title           string
}

// Service records check-ins.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CheckIn records at most one check-in per (activity, student) pair.
func (s *Service) CheckIn(ctx context.Context, in CheckInInput) (CheckIn, error) {
	rec, err := s.checkIn(ctx, in)
	metrics.CheckIns.WithLabelValues(resultLabel(err)).Inc()
	return rec, err
}

func (s *Service) checkIn(ctx context.Context, in CheckInInput) (CheckIn, error) {
	if in.ActivityID <= 0 {
		return CheckIn{}, NewInvalidArgumentError("missing required fields")
	}
	byNumber := in.StudentIDNumber != ""
	if byNumber && in.StudentName == "" || !byNumber && in.StudentID <= 0 {
		return CheckIn{}, NewInvalidArgumentError("missing required fields")
	}

	ok, err := s.repo.ActivityExists(ctx, in.ActivityID)
	if err != nil {
		return CheckIn{}, NewInternalError("lookup activity", err)
	}
	if !ok {
		return CheckIn{}, NewNotFoundError("activity not found")
	}

	var profile Student
	if byNumber {
		p, err := studentProfile(in)
		if err != nil {
			return CheckIn{}, err
		}
		profile = p
	}

	rec := CheckIn{
		ActivityID:    in.ActivityID,
		CheckInTime:   s.now(),
		CheckInMethod: MethodQRCode,
	}
	err = s.repo.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if byNumber {
			st, err := s.repo.FindOrCreateStudent(ctx, tx, profile)
			if err != nil {
				return err
			}
			rec.StudentID = st.ID
		} else {
			st, err := s.repo.GetStudent(ctx, tx, in.StudentID)
			if err != nil {
				return err
			}
			if st == nil {
				return NewNotFoundError("student not found")
			}
			rec.StudentID = st.ID
		}
		return s.repo.InsertCheckIn(ctx, tx, &rec)
	})
	if err != nil {
		if CodeOf(err) != CodeInternal {
			return CheckIn{}, err
		}
		return CheckIn{}, NewInternalError("record check-in", err)
	}
	return rec, nil
}

// ListCheckIns returns the roster of an existing activity.
func (s *Service) ListCheckIns(ctx context.Context, activityID int64) ([]RosterEntry, error) {
	ok, err := s.repo.ActivityExists(ctx, activityID)
	if err != nil {
		return nil, NewInternalError("lookup activity", err)
	}
	if !ok {
		return nil, NewNotFoundError("activity not found")
	}
	entries, err := s.repo.ListCheckIns(ctx, activityID)
	if err != nil {
		return nil, NewInternalError("list check-ins", err)
	}
	return entries, nil
}

func studentProfile(in CheckInInput) (Student, error) {
	st := Student{
		StudentIDNumber: in.StudentIDNumber,
		Name:            in.StudentName,
		Email:           optional(in.Email),
		Department:      optional(in.Department),
		Unit:            optional(in.Unit),
		Title:           optional(in.Title),
	}
	if in.Birthday != "" {
		b, err := ParseDate(in.Birthday)
		if err != nil {
			return Student{}, NewInvalidArgumentError("invalid birthday format, expected YYYY-MM-DD")
		}
		st.Birthday = &b
	}
	return st, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultCreated
	}
	switch CodeOf(err) {
	case CodeConflict:
		return metrics.ResultConflict
	case CodeNotFound:
		return metrics.ResultNotFound
	case CodeInvalidArgument:
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
