package photo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/photo/dto"
	photoRepo "anoa.com/datingapp/internal/modules/photo/repository"
	photo "anoa.com/datingapp/internal/modules/photo/service"
	"anoa.com/datingapp/internal/testutil"
	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/storage"
	"anoa.com/datingapp/pkg/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     photo.PhotoService
	storage *mock.MockImageStorage
	owner   *entity.User
	other   *entity.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := testutil.NewDB(t)
	store := mock.NewMockImageStorage(ctrl)

	return &fixture{
		db:      db,
		svc:     photo.NewPhotoService(photoRepo.NewPhotoRepository(db), store, "test"),
		storage: store,
		owner:   testutil.CreateUser(t, db, "dina", entity.GenderFemale, 27),
		other:   testutil.CreateUser(t, db, "eko", entity.GenderMale, 31),
	}
}

func (f *fixture) reload(t *testing.T, id uint) *entity.Photo {
	t.Helper()
	var p entity.Photo
	require.NoError(t, f.db.First(&p, id).Error)
	return &p
}

func (f *fixture) mainCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.Photo{}).Where("user_id = ? AND is_main = ?", userID, true).Count(&n).Error)
	return n
}

func assertKind(t *testing.T, err error, kind error, message string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "unexpected kind for %v", err)
	assert.Equal(t, message, apperror.Message(err))
}

func TestUpload_StoresPendingPhoto(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.storage.EXPECT().
		UploadImage(gomock.Any(), gomock.Any(), "test/members", "me.jpg").
		Return(&storage.UploadResult{URL: "https://img/abc.webp", PublicID: "test/members/abc"}, nil)

	resp, err := f.svc.Upload(ctx, f.owner.ID, dto.PhotoFile{Reader: strings.NewReader("jpeg"), FileName: "me.jpg"}, "<i>beach</i>")
	require.NoError(t, err)
	assert.False(t, resp.IsApproved)
	assert.False(t, resp.IsMain)
	assert.Equal(t, "beach", resp.Description)

	stored := f.reload(t, resp.ID)
	require.NotNil(t, stored.PublicID)
	assert.Equal(t, "test/members/abc", *stored.PublicID)
	assert.Equal(t, f.owner.ID, stored.UserID)
}

func TestUpload_HostFailure(t *testing.T) {
	f := setup(t)
	f.storage.EXPECT().UploadImage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("boom"))

	_, err := f.svc.Upload(context.Background(), f.owner.ID, dto.PhotoFile{Reader: strings.NewReader("x"), FileName: "x.png"}, "")
	assertKind(t, err, apperror.ErrGeneric, "failed to upload photo")
}

func TestGetPhoto_PendingVisibleToOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pending := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)

	got, err := f.svc.GetPhoto(ctx, f.owner.ID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)

	_, err = f.svc.GetPhoto(ctx, f.other.ID, pending.ID)
	assertKind(t, err, apperror.ErrNotFound, "photo not found")
}

func TestGetPhoto_OnlyOwnPhotos(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	theirs := testutil.CreatePhoto(t, f.db, f.other.ID, true, true)

	_, err := f.svc.GetPhoto(ctx, f.owner.ID, theirs.ID)
	assertKind(t, err, apperror.ErrNotFound, "photo not found")

	got, err := f.svc.GetPhoto(ctx, f.other.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.ID, got.ID)
}

func TestApprove_FirstPhotoBecomesMain(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	first := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)
	second := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)

	require.NoError(t, f.svc.Approve(ctx, first.ID))
	got := f.reload(t, first.ID)
	assert.True(t, got.IsApproved)
	assert.True(t, got.IsMain)

	require.NoError(t, f.svc.Approve(ctx, second.ID))
	got = f.reload(t, second.ID)
	assert.True(t, got.IsApproved)
	assert.False(t, got.IsMain)

	assert.Equal(t, int64(1), f.mainCount(t, f.owner.ID))
}

func TestApprove_Rejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	approved := testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)

	assertKind(t, f.svc.Approve(ctx, approved.ID), apperror.ErrGeneric, "photo is already approved")
	assertKind(t, f.svc.Approve(ctx, 424242), apperror.ErrUnauthorized, "photo not found")
}

func TestReject_DeletesRemoteAndRow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pending := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)

	f.storage.EXPECT().DeleteImage(gomock.Any(), *pending.PublicID).Return(nil)

	require.NoError(t, f.svc.Reject(ctx, pending.ID))

	var count int64
	require.NoError(t, f.db.Model(&entity.Photo{}).Where("id = ?", pending.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReject_HostFailureKeepsRow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pending := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)

	f.storage.EXPECT().DeleteImage(gomock.Any(), gomock.Any()).Return(errors.New("host down"))

	assertKind(t, f.svc.Reject(ctx, pending.ID), apperror.ErrGeneric, "failed to delete photo from image host")
	f.reload(t, pending.ID)
}

func TestReject_WithoutPublicIDSkipsHost(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	local := &entity.Photo{URL: "https://example.com/seed.jpg", UserID: f.owner.ID}
	require.NoError(t, f.db.Create(local).Error)

	require.NoError(t, f.svc.Reject(ctx, local.ID))
}

func TestReject_Rejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	approved := testutil.CreatePhoto(t, f.db, f.owner.ID, true, false)

	assertKind(t, f.svc.Reject(ctx, approved.ID), apperror.ErrUnauthorized, "only pending photos can be rejected")
	assertKind(t, f.svc.Reject(ctx, 424242), apperror.ErrUnauthorized, "photo not found")
}

func TestSetMain_Swaps(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	main := testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)
	next := testutil.CreatePhoto(t, f.db, f.owner.ID, true, false)

	require.NoError(t, f.svc.SetMain(ctx, f.owner.ID, next.ID))

	assert.False(t, f.reload(t, main.ID).IsMain)
	assert.True(t, f.reload(t, next.ID).IsMain)
	assert.Equal(t, int64(1), f.mainCount(t, f.owner.ID))
}

func TestSetMain_Rejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	main := testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)
	pending := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)
	foreign := testutil.CreatePhoto(t, f.db, f.other.ID, true, false)

	tests := []struct {
		name    string
		photoID uint
		kind    error
		message string
	}{
		{name: "already main", photoID: main.ID, kind: apperror.ErrGeneric, message: "this is already your main photo"},
		{name: "not approved", photoID: pending.ID, kind: apperror.ErrGeneric, message: "only approved photos can be set as main"},
		{name: "not owned", photoID: foreign.ID, kind: apperror.ErrUnauthorized, message: "photo not found"},
		{name: "missing", photoID: 424242, kind: apperror.ErrUnauthorized, message: "photo not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, f.svc.SetMain(ctx, f.owner.ID, tt.photoID), tt.kind, tt.message)
		})
	}
	assert.True(t, f.reload(t, main.ID).IsMain)
}

// failingRepo fails the nth Update inside a transaction.
type failingRepo struct {
	photoRepo.PhotoRepository
	failOn  int
	updates *int
}

func (r *failingRepo) Update(ctx context.Context, p *entity.Photo) error {
	*r.updates++
	if *r.updates == r.failOn {
		return errors.New("disk full")
	}
	return r.PhotoRepository.Update(ctx, p)
}

func (r *failingRepo) Transaction(ctx context.Context, fn func(photoRepo.PhotoRepository) error) error {
	return r.PhotoRepository.Transaction(ctx, func(tx photoRepo.PhotoRepository) error {
		return fn(&failingRepo{PhotoRepository: tx, failOn: r.failOn, updates: r.updates})
	})
}

func TestSetMain_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	main := testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)
	next := testutil.CreatePhoto(t, f.db, f.owner.ID, true, false)

	updates := 0
	repo := &failingRepo{PhotoRepository: photoRepo.NewPhotoRepository(f.db), failOn: 2, updates: &updates}
	svc := photo.NewPhotoService(repo, f.storage, "test")

	err := svc.SetMain(ctx, f.owner.ID, next.ID)
	assertKind(t, err, apperror.ErrDatabase, "failed to update main photo")

	assert.True(t, f.reload(t, main.ID).IsMain)
	assert.False(t, f.reload(t, next.ID).IsMain)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	main := testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)
	extra := testutil.CreatePhoto(t, f.db, f.owner.ID, true, false)
	foreign := testutil.CreatePhoto(t, f.db, f.other.ID, true, false)

	assertKind(t, f.svc.Delete(ctx, f.owner.ID, main.ID), apperror.ErrGeneric, "you cannot delete your main photo")
	assertKind(t, f.svc.Delete(ctx, f.owner.ID, foreign.ID), apperror.ErrUnauthorized, "photo not found")

	// a failing remote delete does not block the local delete
	f.storage.EXPECT().DeleteImage(gomock.Any(), *extra.PublicID).Return(errors.New("host down"))
	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, extra.ID))

	var count int64
	require.NoError(t, f.db.Model(&entity.Photo{}).Where("user_id = ?", f.owner.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(1), f.mainCount(t, f.owner.ID))
}

func TestListForModeration(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreatePhoto(t, f.db, f.owner.ID, true, true)
	pending := testutil.CreatePhoto(t, f.db, f.other.ID, false, false)

	queue, err := f.svc.ListForModeration(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, pending.ID, queue[0].ID)
	assert.Equal(t, "eko", queue[0].Username)
	assert.False(t, queue[0].IsApproved)
}

// recordingRepo records the calls made inside a transaction.
type recordingRepo struct {
	photoRepo.PhotoRepository
	calls *[]string
}

func (r *recordingRepo) LockOwner(ctx context.Context, userID uint) error {
	*r.calls = append(*r.calls, "LockOwner")
	return r.PhotoRepository.LockOwner(ctx, userID)
}

func (r *recordingRepo) FindMain(ctx context.Context, userID uint) (*entity.Photo, error) {
	*r.calls = append(*r.calls, "FindMain")
	return r.PhotoRepository.FindMain(ctx, userID)
}

func (r *recordingRepo) Transaction(ctx context.Context, fn func(photoRepo.PhotoRepository) error) error {
	return r.PhotoRepository.Transaction(ctx, func(tx photoRepo.PhotoRepository) error {
		return fn(&recordingRepo{PhotoRepository: tx, calls: r.calls})
	})
}

func TestMainPhotoChanges_LockOwnerFirst(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	pending := testutil.CreatePhoto(t, f.db, f.owner.ID, false, false)
	approved := testutil.CreatePhoto(t, f.db, f.owner.ID, true, false)

	var calls []string
	svc := photo.NewPhotoService(&recordingRepo{PhotoRepository: photoRepo.NewPhotoRepository(f.db), calls: &calls}, f.storage, "test")

	require.NoError(t, svc.Approve(ctx, pending.ID))
	assert.Equal(t, []string{"LockOwner", "FindMain"}, calls)

	calls = nil
	require.NoError(t, svc.SetMain(ctx, f.owner.ID, approved.ID))
	assert.Equal(t, []string{"LockOwner", "FindMain"}, calls)
	assert.Equal(t, int64(1), f.mainCount(t, f.owner.ID))
}
