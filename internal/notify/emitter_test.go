package notify

import (
	"testing"
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/database"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestEmitPersistsEvent(t *testing.T) {
	db := newTestDB(t)
	emitter, err := NewEmitter(db, 2)
	require.NoError(t, err)
	defer emitter.Close()

	emitter.Emit(EventGoalMet, "campaign", 7, map[string]interface{}{
		"raised_amount": 1100,
		"goal_amount":   1000,
	})

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Event{}).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var event model.Event
	require.NoError(t, db.First(&event).Error)
	assert.Equal(t, EventGoalMet, event.EventType)
	assert.Equal(t, "campaign", event.TargetType)
	assert.Equal(t, int64(7), event.TargetId)
	assert.NotEmpty(t, event.EventId)
	assert.Contains(t, event.Payload, "raised_amount")
}

func TestEmitUnmarshalablePayloadDropped(t *testing.T) {
	db := newTestDB(t)
	emitter, err := NewEmitter(db, 2)
	require.NoError(t, err)
	defer emitter.Close()

	emitter.Emit(EventGoalMet, "campaign", 7, map[string]interface{}{
		"bad": make(chan int),
	})

	time.Sleep(50 * time.Millisecond)
	var count int64
	require.NoError(t, db.Model(&model.Event{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
