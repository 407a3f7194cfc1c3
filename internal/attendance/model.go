package attendance

import "time"

// MethodQRCode tags check-ins made by scanning an activity's QR code.
const MethodQRCode = "QR_CODE"

// Administrator may create activities. Rows are bootstrapped out-of-band.
type Administrator struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Email        string    `db:"email"`
	CreatedAt    time.Time `db:"created_at"`
}

// Activity is an event window attendees check into.
type Activity struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	Location    *string   `db:"location"`
	CreatedBy   int64     `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	// QRCodeURL is the data URI of the sign-in QR code; nil until the
	// second phase of creation succeeds.
	QRCodeURL *string `db:"qr_code_url"`
	// SignInURL is derived from ID and config, never stored.
	SignInURL string `db:"-"`
}

// Student is an attendee keyed by an externally assigned id number.
type Student struct {
	ID              int64      `db:"id"`
	StudentIDNumber string     `db:"student_id_number"`
	Name            string     `db:"name"`
	Email           *string    `db:"email"`
	Department      *string    `db:"department"`
	Birthday        *time.Time `db:"birthday"`
	Unit            *string    `db:"unit"`
	Title           *string    `db:"title"`
	CreatedAt       time.Time  `db:"created_at"`
}

// CheckIn records that a student attended an activity.
type CheckIn struct {
	ID            int64     `db:"id"`
	ActivityID    int64     `db:"activity_id"`
	StudentID     int64     `db:"student_id"`
	CheckInTime   time.Time `db:"check_in_time"`
	CheckInMethod string    `db:"check_in_method"`
}

// RosterEntry is a check-in joined with the student it belongs to.
type RosterEntry struct {
	CheckIn
	StudentIDNumber string `db:"student_id_number"`
	StudentName     string `db:"student_name"`
}
