/*
Package mongo provides a MongoDB-backed generic.LeaveStore.

PURPOSE:
  Alternative home for leave records when LEAVE_STORE=mongo. Accounts,
  holidays and feedback stay in SQLite; the quota checker only ever reads
  leaves, so it works unchanged against either backend.

DOCUMENT SHAPE (collection "leaves"):
  _id            string (uuid)
  user_id        string
  status         "pending" | "approved" | "rejected"
  kind           "range" | "calendar"
  start_date     "2006-01-02", omitted when absent
  end_date       "2006-01-02", omitted when absent
  selected_dates ["2006-01-02", ...]
  submitted_at   date
  decided_at     date, omitted while pending

  Calendar days are stored as strings so that no timezone conversion can
  move them. BSON dates have millisecond precision.

INDEXES:
  - {user_id, status}: the quota checker's per-user scan
  - {status, submitted_at}: admin listings

SEE ALSO:
  - generic/store.go: LeaveStore
  - store/sqlite: The default backend
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/eleave/leave-engine/generic"
)

const leavesCollection = "leaves"

// LeaveStore implements generic.LeaveStore on a MongoDB collection.
type LeaveStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ generic.LeaveStore = (*LeaveStore)(nil)

// Connect dials uri and returns a store on database dbName. Indexes are
// created on first use.
func Connect(ctx context.Context, uri, dbName string) (*LeaveStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &LeaveStore{
		client: client,
		coll:   client.Database(dbName).Collection(leavesCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *LeaveStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create leave indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *LeaveStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *LeaveStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *LeaveStore) CreateLeave(ctx context.Context, r generic.LeaveRecord) error {
	if r.Status == "" {
		r.Status = generic.StatusPending
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now()
	}
	if _, err := s.coll.InsertOne(ctx, toDocument(r)); err != nil {
		return wrapUnavailable("create leave", err)
	}
	return nil
}

func (s *LeaveStore) GetLeave(ctx context.Context, id string) (generic.LeaveRecord, error) {
	var doc leaveDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return generic.LeaveRecord{}, generic.ErrLeaveNotFound
	}
	if err != nil {
		return generic.LeaveRecord{}, wrapUnavailable("get leave", err)
	}
	return doc.record(), nil
}

// ListLeaves returns matching records, newest submission first.
func (s *LeaveStore) ListLeaves(ctx context.Context, f generic.LeaveFilter) ([]generic.LeaveRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.coll.Find(ctx, filterDocument(f), opts)
	if err != nil {
		return nil, wrapUnavailable("list leaves", err)
	}
	var docs []leaveDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapUnavailable("decode leaves", err)
	}
	out := make([]generic.LeaveRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

func (s *LeaveStore) LeavesByUser(ctx context.Context, userID string) ([]generic.LeaveRecord, error) {
	return s.ListLeaves(ctx, generic.LeaveFilter{UserID: userID})
}

// DecideLeave moves a pending leave to approved or rejected. The status
// guard is part of the update filter so concurrent decisions cannot both
// apply.
func (s *LeaveStore) DecideLeave(ctx context.Context, id string, status generic.LeaveStatus, by string, at time.Time) (generic.LeaveRecord, error) {
	if !status.Decided() {
		return generic.LeaveRecord{}, &generic.TransitionError{LeaveID: id, From: generic.StatusPending, To: status}
	}

	update := bson.M{"$set": bson.M{
		"status":     string(status),
		"decided_by": by,
		"decided_at": at.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc leaveDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(generic.StatusPending)}, update, opts,
	).Decode(&doc)
	if err == nil {
		return doc.record(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return generic.LeaveRecord{}, wrapUnavailable("decide leave", err)
	}

	current, err := s.GetLeave(ctx, id)
	if err != nil {
		return generic.LeaveRecord{}, err
	}
	return generic.LeaveRecord{}, &generic.TransitionError{LeaveID: id, From: current.Status, To: status}
}

func (s *LeaveStore) DeleteLeave(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapUnavailable("delete leave", err)
	}
	if res.DeletedCount == 0 {
		return generic.ErrLeaveNotFound
	}
	return nil
}

func (s *LeaveStore) DeleteLeavesByUser(ctx context.Context, userID string) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, wrapUnavailable("delete user leaves", err)
	}
	return int(res.DeletedCount), nil
}

func wrapUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, generic.ErrStoreUnavailable, err)
}
