package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/eleave/leave-engine/generic"
)

type leaveDocument struct {
	ID            string     `bson:"_id"`
	UserID        string     `bson:"user_id"`
	UserName      string     `bson:"user_name"`
	UserEmail     string     `bson:"user_email,omitempty"`
	RollNumber    string     `bson:"roll_number,omitempty"`
	Stream        string     `bson:"stream,omitempty"`
	LeaveType     string     `bson:"leave_type,omitempty"`
	Reason        string     `bson:"reason"`
	Status        string     `bson:"status"`
	Kind          string     `bson:"kind"`
	StartDate     string     `bson:"start_date,omitempty"`
	EndDate       string     `bson:"end_date,omitempty"`
	SelectedDates []string   `bson:"selected_dates,omitempty"`
	SubmittedAt   time.Time  `bson:"submitted_at"`
	DecidedAt     *time.Time `bson:"decided_at,omitempty"`
	DecidedBy     string     `bson:"decided_by,omitempty"`
}

func toDocument(r generic.LeaveRecord) leaveDocument {
	doc := leaveDocument{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		RollNumber:  r.RollNumber,
		Stream:      r.Stream,
		LeaveType:   r.LeaveType,
		Reason:      r.Reason,
		Status:      string(r.Status),
		Kind:        string(r.Kind),
		SubmittedAt: r.SubmittedAt.UTC(),
		DecidedBy:   r.DecidedBy,
	}
	if !r.StartDate.IsZero() {
		doc.StartDate = r.StartDate.String()
	}
	if !r.EndDate.IsZero() {
		doc.EndDate = r.EndDate.String()
	}
	for _, d := range r.SelectedDates {
		doc.SelectedDates = append(doc.SelectedDates, d.String())
	}
	if !r.DecidedAt.IsZero() {
		at := r.DecidedAt.UTC()
		doc.DecidedAt = &at
	}
	return doc
}

func (d leaveDocument) record() generic.LeaveRecord {
	r := generic.LeaveRecord{
		ID:          d.ID,
		UserID:      d.UserID,
		UserName:    d.UserName,
		UserEmail:   d.UserEmail,
		RollNumber:  d.RollNumber,
		Stream:      d.Stream,
		LeaveType:   d.LeaveType,
		Reason:      d.Reason,
		Status:      generic.LeaveStatus(d.Status),
		Kind:        generic.RequestKind(d.Kind),
		SubmittedAt: d.SubmittedAt.UTC(),
		DecidedBy:   d.DecidedBy,
	}
	r.StartDate, _ = generic.ParseDate(d.StartDate)
	r.EndDate, _ = generic.ParseDate(d.EndDate)
	for _, s := range d.SelectedDates {
		// Unreadable entries are dropped; a calendar record left without
		// dates still counts as one day.
		if day, err := generic.ParseDate(s); err == nil {
			r.SelectedDates = append(r.SelectedDates, day)
		}
	}
	if d.DecidedAt != nil {
		r.DecidedAt = d.DecidedAt.UTC()
	}
	return r
}

func filterDocument(f generic.LeaveFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Stream != "" {
		filter["stream"] = f.Stream
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}
