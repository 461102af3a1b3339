package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}, &models.Category{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createRepoUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestNoteRepository_ListFiltersByCategoryToken(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	user := createRepoUser(t, db, "alice@example.com")

	require.NoError(t, repo.Create(&models.Note{UserID: user.ID, Title: "a", Categories: []string{"work", "meeting"}}))
	require.NoError(t, repo.Create(&models.Note{UserID: user.ID, Title: "b", Categories: []string{"personal"}}))
	// A label that merely contains another as a substring must not match.
	require.NoError(t, repo.Create(&models.Note{UserID: user.ID, Title: "c", Categories: []string{"homework"}}))

	notes, total, err := repo.List(NoteFilter{UserID: user.ID, Categories: []string{"work"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "a", notes[0].Title)
}

func TestNoteRepository_ListScopedToUser(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	alice := createRepoUser(t, db, "alice@example.com")
	bob := createRepoUser(t, db, "bob@example.com")

	require.NoError(t, repo.Create(&models.Note{UserID: alice.ID, Title: "mine"}))
	require.NoError(t, repo.Create(&models.Note{UserID: bob.ID, Title: "theirs"}))

	_, total, err := repo.List(NoteFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = repo.FindByID("", alice.ID)
	require.Error(t, err)
}

func TestNoteRepository_ListSortWhitelist(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	user := createRepoUser(t, db, "alice@example.com")

	for i, d := range []int{30, 10, 20} {
		require.NoError(t, repo.Create(&models.Note{UserID: user.ID, Title: fmt.Sprintf("n%d", i), Duration: d}))
	}

	notes, _, err := repo.List(NoteFilter{UserID: user.ID, SortBy: "duration", Order: "asc"})
	require.NoError(t, err)
	require.Equal(t, 10, notes[0].Duration)
	require.Equal(t, 30, notes[2].Duration)

	// Unknown sort columns quietly fall back instead of reaching the SQL.
	_, _, err = repo.List(NoteFilter{UserID: user.ID, SortBy: "duration; DROP TABLE notes"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Note{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestNoteRepository_ListDateWindow(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	user := createRepoUser(t, db, "alice@example.com")

	old := &models.Note{UserID: user.ID, Title: "old"}
	require.NoError(t, repo.Create(old))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -30)).Error)
	require.NoError(t, repo.Create(&models.Note{UserID: user.ID, Title: "recent"}))

	from := time.Now().AddDate(0, 0, -7)
	notes, total, err := repo.List(NoteFilter{UserID: user.ID, DateFrom: &from})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "recent", notes[0].Title)
}

func TestNoteRepository_DeleteIsSoftAndScoped(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNoteRepository(db)
	alice := createRepoUser(t, db, "alice@example.com")
	bob := createRepoUser(t, db, "bob@example.com")

	note := &models.Note{UserID: alice.ID, Title: "mine"}
	require.NoError(t, repo.Create(note))

	// Another user cannot delete it.
	err := repo.Delete(note.ID, bob.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(note.ID, alice.ID))
	_, err = repo.FindByID(note.ID, alice.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The row survives as a soft delete.
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Note{}).Where("id = ?", note.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUserRepository_FindByEmailNormalized(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	require.NoError(t, repo.Create(&models.User{Email: "alice@example.com"}))

	user, err := repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)

	_, err = repo.FindByEmail("nobody@example.com")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUserRepository_CreatePersistsInactiveFlags(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	// Auto-provisioned accounts start inactive and unverified; the stored
	// row must not flip those flags.
	require.NoError(t, repo.Create(&models.User{Email: "inbound@example.com", IsActive: false, IsVerified: false}))

	user, err := repo.FindByEmail("inbound@example.com")
	require.NoError(t, err)
	require.False(t, user.IsActive)
	require.False(t, user.IsVerified)
}

func TestUserRepository_FindByResetTokenIgnoresExpired(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Create(&models.User{
		Email:                "alice@example.com",
		ResetPasswordToken:   "tok-1",
		ResetPasswordExpires: &expired,
	}))

	_, err := repo.FindByResetToken("tok-1")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCategoryRepository_IncrementUsage(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCategoryRepository(db)

	for _, cat := range models.DefaultCategories() {
		c := cat
		require.NoError(t, db.Create(&c).Error)
	}

	require.NoError(t, repo.IncrementUsage([]string{"meeting", "work"}))
	require.NoError(t, repo.IncrementUsage([]string{"meeting"}))

	meeting, err := repo.FindBySlug("meeting")
	require.NoError(t, err)
	require.Equal(t, 2, meeting.UsageCount)

	work, err := repo.FindBySlug("work")
	require.NoError(t, err)
	require.Equal(t, 1, work.UsageCount)
}
