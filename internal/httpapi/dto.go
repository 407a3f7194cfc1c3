package httpapi

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"

	"eventcheckin/internal/attendance"
)

// flexID is an integer id that may also arrive as a quoted number,
// as HTML forms and some scanner apps send it. null and "" mean absent.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(int64(0))}
	}
	*f = flexID(n)
	return nil
}

type createActivityRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Location    *string `json:"location"`
	CreatedBy   flexID  `json:"created_by"`
}

type checkInRequest struct {
	ActivityID      flexID `json:"activity_id"`
	StudentID       flexID `json:"student_id"`
	StudentIDNumber string `json:"student_id_number"`
	StudentName     string `json:"student_name"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	Birthday        string `json:"birthday"`
	Unit            string `json:"unit"`
	Title           string `json:"title"`
}

type activityResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Location    *string `json:"location"`
	CreatedBy   int64   `json:"created_by"`
	QRCodeURL   *string `json:"qr_code_url"`
	QRData      string  `json:"qr_data,omitempty"`
}

func toActivityResponse(a attendance.Activity) activityResponse {
	return activityResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		StartTime:   attendance.FormatTime(a.StartTime),
		EndTime:     attendance.FormatTime(a.EndTime),
		Location:    a.Location,
		CreatedBy:   a.CreatedBy,
		QRCodeURL:   a.QRCodeURL,
		QRData:      a.SignInURL,
	}
}

type checkInResponse struct {
	ID            int64  `json:"id"`
	ActivityID    int64  `json:"activity_id"`
	StudentID     int64  `json:"student_id"`
	CheckInTime   string `json:"check_in_time"`
	CheckInMethod string `json:"check_in_method"`
}

func toCheckInResponse(c attendance.CheckIn) checkInResponse {
	return checkInResponse{
		ID:            c.ID,
		ActivityID:    c.ActivityID,
		StudentID:     c.StudentID,
		CheckInTime:   attendance.FormatTime(c.CheckInTime),
		CheckInMethod: c.CheckInMethod,
	}
}

type rosterEntryResponse struct {
	checkInResponse
	StudentIDNumber string `json:"student_id_number"`
	StudentName     string `json:"student_name"`
}

func toRosterResponse(entries []attendance.RosterEntry) []rosterEntryResponse {
	out := make([]rosterEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, rosterEntryResponse{
			checkInResponse: toCheckInResponse(e.CheckIn),
			StudentIDNumber: e.StudentIDNumber,
			StudentName:     e.StudentName,
		})
	}
	return out
}
