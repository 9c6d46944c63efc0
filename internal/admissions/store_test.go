package admissions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college-helpdesk-backend/models"
)

func submission(name string) models.AdmissionSubmission {
	return models.AdmissionSubmission{
		FullName:    name,
		Email:       "student@example.com",
		Phone:       "9876543210",
		Category:    "Undergraduate (UG)",
		Course:      "B.Sc Computer Science",
		Address:     "12 College Road, Trichy",
		Marks:       "88%",
		PrevCollege: "Govt Higher Secondary School",
	}
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	id1, _, err := store.Insert(submission("First Student"))
	require.NoError(t, err)
	id2, _, err := store.Insert(submission("Second Student"))
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestInsertStampsTimestamp(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, stamp, err := store.Insert(submission("Student"))
	require.NoError(t, err)

	parsed, err := time.Parse(TimestampFormat, stamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Insert(submission("Older"))
	require.NoError(t, err)
	// The timestamp column has second resolution.
	time.Sleep(1100 * time.Millisecond)
	_, _, err = store.Insert(submission("Newer"))
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Newer", records[0].FullName)
	assert.Equal(t, "Older", records[1].FullName)
}

func TestListRoundTripsAllFields(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	sub := submission("Full Record")
	_, _, err = store.Insert(sub)
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, sub.FullName, got.FullName)
	assert.Equal(t, sub.Email, got.Email)
	assert.Equal(t, sub.Phone, got.Phone)
	assert.Equal(t, sub.Category, got.Category)
	assert.Equal(t, sub.Course, got.Course)
	assert.Equal(t, sub.Address, got.Address)
	assert.Equal(t, sub.Marks, got.Marks)
	assert.Equal(t, sub.PrevCollege, got.PrevCollege)
	assert.NotEmpty(t, got.SubmittedAt)
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	_, _, err = first.Insert(submission("Persistent"))
	require.NoError(t, err)

	second, err := NewStore(dir)
	require.NoError(t, err)
	records, err := second.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Persistent", records[0].FullName)
}
