package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"fintrack/internal/storage"
)

func TestOwnerFilter(t *testing.T) {
	id := bson.NewObjectID()
	user := bson.NewObjectID()

	f, err := ownerFilter(user.Hex(), id.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f["_id"] != id || f["userId"] != user {
		t.Errorf("unexpected filter %v", f)
	}

	if _, err := ownerFilter(user.Hex(), "not-an-id"); !errors.Is(err, storage.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if _, err := ownerFilter("", id.Hex()); !errors.Is(err, storage.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for empty user, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	invalid := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: documentValidationFailure, Message: "Document failed validation"}}}
	other := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no documents", in: mongo.ErrNoDocuments, want: storage.ErrNotFound},
		{name: "wrapped no documents", in: fmt.Errorf("find: %w", mongo.ErrNoDocuments), want: storage.ErrNotFound},
		{name: "duplicate key", in: dup, want: storage.ErrDuplicate},
		{name: "schema validation", in: invalid, want: storage.ErrInvalidData},
		{name: "passthrough", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if mapError(nil) != nil {
		t.Error("mapError(nil) should be nil")
	}
}
