package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore initializes a Firebase app and opens its Firestore client.
// credentialsFile may be empty to use application default credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open Firestore client: %w", err)
	}

	logger.Info("Firestore client initialized", logger.Fields{
		"project_id": projectID,
	})
	return &FirestoreStore{client: client}, nil
}

type firestoreDoc struct {
	snap *firestore.DocumentSnapshot
}

func (d firestoreDoc) ID() string {
	return d.snap.Ref.ID
}

func (d firestoreDoc) DataTo(v interface{}) error {
	return d.snap.DataTo(v)
}

func (s *FirestoreStore) NewID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return firestoreDoc{snap: snap}, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data interface{}) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, data)
	return translate(err)
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, data interface{}) error {
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, data)
	return translate(err)
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, updates []Update) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		value := u.Value
		if op, ok := value.(arrayOp); ok {
			if op.remove {
				value = firestore.ArrayRemove(op.elems...)
			} else {
				value = firestore.ArrayUnion(op.elems...)
			}
		}
		fsUpdates = append(fsUpdates, firestore.Update{Path: u.Field, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, fsUpdates)
	return translate(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return translate(err)
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range q.Where {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
		if q.StartAfter != nil {
			query = query.StartAfter(q.StartAfter)
		}
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, firestoreDoc{snap: snap})
	}
	return docs, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
