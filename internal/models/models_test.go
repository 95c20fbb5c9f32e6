package models_test

import (
	"bhrc/backend/internal/models"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemberBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestMemberBeforeCreate_GeneratesUUID(t *testing.T) {
	member := &models.Member{Name: "Asha", Email: "asha@example.org"}
	assert.Empty(t, member.ID, "Member ID should be empty before BeforeCreate")

	err := member.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(member.ID)
	assert.NoError(t, parseErr, "Member ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestBeforeCreate_PreservesExistingID verifies that the hook does not overwrite an existing ID.
func TestBeforeCreate_PreservesExistingID(t *testing.T) {
	existing := "a3bb189e-8bf9-3888-9912-ace4e6543002"
	event := &models.Event{ID: existing}

	assert.NoError(t, event.BeforeCreate(nil))
	assert.Equal(t, existing, event.ID)
}

func TestSubscriberBeforeCreate_FillsTokenAndTimestamp(t *testing.T) {
	sub := &models.NewsletterSubscriber{Email: "reader@example.org"}
	require.NoError(t, sub.BeforeCreate(nil))

	assert.NotEmpty(t, sub.ID)
	assert.NotEmpty(t, sub.UnsubscribeToken)
	assert.NotEqual(t, sub.ID, sub.UnsubscribeToken)
	assert.False(t, sub.SubscribedAt.IsZero())
}

func TestSubscriberTokenIsNotSerialized(t *testing.T) {
	sub := models.NewsletterSubscriber{Email: "reader@example.org", UnsubscribeToken: "secret"}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestEventTagsRoundTrip(t *testing.T) {
	event := models.Event{Title: "Legal aid camp", Tags: pq.StringArray{"legal", "rural"}}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pq.StringArray{"legal", "rural"}, decoded.Tags)
}

func TestDateJSON(t *testing.T) {
	var d models.Date
	require.NoError(t, json.Unmarshal([]byte(`"2001-05-17"`), &d))
	assert.Equal(t, "2001-05-17", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2001-05-17"`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`"2001-05-17T23:30:00+05:30"`), &d))
	assert.Equal(t, "2001-05-17", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"17/05/2001"`), &d))
}

func TestDateScanAndValue(t *testing.T) {
	var d models.Date
	require.NoError(t, d.Scan(time.Date(1990, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "1990-01-02", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC), v)

	var zero models.Date
	v, err = zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestIsComplaintStatus(t *testing.T) {
	for _, s := range models.ComplaintStatuses {
		assert.True(t, models.IsComplaintStatus(s), s)
	}
	assert.False(t, models.IsComplaintStatus("archived"))
	assert.False(t, models.IsComplaintStatus(""))
}

func TestComplaintDocumentPaths(t *testing.T) {
	c := models.Complaint{Documents: []models.ComplaintDocument{
		{Path: "complaints/a.pdf"},
		{Path: "complaints/b.png"},
	}}
	assert.Equal(t, []string{"complaints/a.pdf", "complaints/b.png"}, c.DocumentPaths())
}

func TestAdminUserPassword(t *testing.T) {
	u := &models.AdminUser{}
	assert.ErrorIs(t, u.SetPassword("short"), models.ErrPasswordTooShort)

	require.NoError(t, u.SetPassword("correct horse battery"))
	assert.NotEqual(t, "correct horse battery", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("correct horse battery"))
	assert.ErrorIs(t, u.CheckPassword("wrong horse battery"), models.ErrWrongPassword)
}
