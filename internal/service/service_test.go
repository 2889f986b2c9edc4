package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	topic string
	args  []interface{}
}

type recordingBus struct {
	mu     sync.Mutex
	events []published
}

func (b *recordingBus) Publish(topic string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{topic: topic, args: args})
}

func (b *recordingBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.topic)
	}
	return out
}

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	store  *repository.Store
	bus    *recordingBus
	buyer  *domain.User
	farmer *domain.User
	admin  *domain.User
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	return &fixture{
		ctx:    context.Background(),
		db:     db,
		store:  repository.NewStore(db),
		bus:    &recordingBus{},
		buyer:  dbtest.CreateUser(t, db, domain.RoleBuyer, "buyer@example.com"),
		farmer: dbtest.CreateUser(t, db, domain.RoleFarmer, "farmer@example.com"),
		admin:  dbtest.CreateUser(t, db, domain.RoleAdmin, "admin@example.com"),
	}
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	assert.Equal(t, kind, ae.Kind, ae.Message)
}

func TestParseProductRef(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"number", `1733994812345678912`, 1733994812345678912, false},
		{"string", `"42"`, 42, false},
		{"object _id", `{"_id":"77","name":"tomato"}`, 77, false},
		{"object id", `{"id":78}`, 78, false},
		{"null", `null`, 0, true},
		{"empty", ``, 0, true},
		{"garbage string", `"abc"`, 0, true},
		{"negative", `-3`, 0, true},
		{"object without id", `{"name":"x"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProductRef(json.RawMessage(tt.raw))
			if tt.wantErr {
				assertKind(t, err, apperr.KindValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
