package attendance

import (
	"context"
	"time"

	"eventcheckin/internal/logger"
	"eventcheckin/internal/metrics"
)

// QREncoder renders a sign-in URL as an inline image payload.
type QREncoder interface {
	DataURI(content string) (string, error)
}

// CreateActivityInput carries the raw fields of an activity creation request.
type CreateActivityInput struct {
	Name        string
	Description *string
	StartTime   string
	EndTime     string
	Location    *string
	CreatedBy   int64
}

// ActivityService creates activities and attaches their sign-in QR codes.
type ActivityService struct {
	repo      *Repository
	encoder   QREncoder
	signInURL func(activityID int64) string
	log       *logger.Logger
	now       func() time.Time
}

// NewActivityService wires the activity flow. signInURL builds the URL
// encoded into each activity's QR code.
func NewActivityService(repo *Repository, enc QREncoder, signInURL func(int64) string, log *logger.Logger) *ActivityService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ActivityService{
		repo:      repo,
		encoder:   enc,
		signInURL: signInURL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and persists an activity in two phases: the row is
// inserted to obtain its id, then the QR payload encoding that id is stored.
// If the second phase fails the row stays without a QR payload; see
// RegenerateQR.
func (s *ActivityService) Create(ctx context.Context, in CreateActivityInput) (Activity, error) {
	if in.Name == "" || in.StartTime == "" || in.EndTime == "" || in.CreatedBy == 0 {
		return Activity{}, NewInvalidArgumentError("missing required fields")
	}

	start, errStart := ParseTime(in.StartTime)
	end, errEnd := ParseTime(in.EndTime)
	if errStart != nil || errEnd != nil {
		return Activity{}, NewInvalidArgumentError("invalid date format. Use ISO format (YYYY-MM-DDTHH:MM:SS) or YYYY-MM-DD")
	}

	ok, err := s.repo.AdministratorExists(ctx, in.CreatedBy)
	if err != nil {
		return Activity{}, NewInternalError("lookup administrator", err)
	}
	if !ok {
		return Activity{}, NewNotFoundError("administrator not found")
	}

	act := Activity{
		Name:        in.Name,
		Description: in.Description,
		StartTime:   start,
		EndTime:     end,
		Location:    in.Location,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now(),
	}
	if err := s.repo.InsertActivity(ctx, &act); err != nil {
		return Activity{}, NewInternalError("insert activity", err)
	}
	metrics.ActivitiesCreated.Inc()

	if err := s.attachQR(ctx, &act); err != nil {
		s.log.Warn("activity stored without qr code", "activity_id", act.ID, "error", err)
		return Activity{}, err
	}
	return act, nil
}

// Get returns an activity with its sign-in URL.
func (s *ActivityService) Get(ctx context.Context, id int64) (Activity, error) {
	act, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, NewInternalError("lookup activity", err)
	}
	if act == nil {
		return Activity{}, NewNotFoundError("activity not found")
	}
	act.SignInURL = s.signInURL(act.ID)
	return *act, nil
}

// RegenerateQR recomputes and stores the QR payload of an existing activity.
// It repairs rows whose second creation phase failed and picks up a changed
// sign-in URL template.
func (s *ActivityService) RegenerateQR(ctx context.Context, id int64) (Activity, error) {
	act, err := s.Get(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	if err := s.attachQR(ctx, &act); err != nil {
		return Activity{}, err
	}
	return act, nil
}

func (s *ActivityService) attachQR(ctx context.Context, act *Activity) error {
	act.SignInURL = s.signInURL(act.ID)

	started := time.Now()
	payload, err := s.encoder.DataURI(act.SignInURL)
	metrics.QREncode.Observe(time.Since(started).Seconds())
	if err != nil {
		return NewInternalError("generate qr code", err)
	}
	if err := s.repo.UpdateActivityQR(ctx, act.ID, payload); err != nil {
		return NewInternalError("store qr code", err)
	}
	act.QRCodeURL = &payload
	return nil
}
