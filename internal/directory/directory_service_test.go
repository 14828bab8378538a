package directory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-leaveflow/internal/directory"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeDirectoryRepository struct {
	getByIDFn        func(ctx context.Context, companyID, id string) (*directory.User, error)
	listByPositionFn func(ctx context.Context, companyID, positionID string) ([]directory.User, error)
	listByRoleFn     func(ctx context.Context, companyID, role string) ([]directory.User, error)
	listByRoleCalls  int
}

func (f *fakeDirectoryRepository) GetByID(ctx context.Context, companyID, id string) (*directory.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDirectoryRepository) ListByPosition(ctx context.Context, companyID, positionID string) ([]directory.User, error) {
	if f.listByPositionFn != nil {
		return f.listByPositionFn(ctx, companyID, positionID)
	}
	return nil, nil
}

func (f *fakeDirectoryRepository) ListByRole(ctx context.Context, companyID, role string) ([]directory.User, error) {
	f.listByRoleCalls++
	if f.listByRoleFn != nil {
		return f.listByRoleFn(ctx, companyID, role)
	}
	return nil, nil
}

func TestDirectoryService_GetUser(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	userID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		repo := &fakeDirectoryRepository{
			getByIDFn: func(ctx context.Context, cid, id string) (*directory.User, error) {
				return &directory.User{ID: uuid.MustParse(id), FullName: "Dina Rahma"}, nil
			},
		}
		svc := directory.NewService(repo, nil)

		u, err := svc.GetUser(ctx, companyID, userID)

		assert.NoError(t, err)
		assert.Equal(t, "Dina Rahma", u.FullName)
	})

	t.Run("negative not found", func(t *testing.T) {
		repo := &fakeDirectoryRepository{
			getByIDFn: func(ctx context.Context, cid, id string) (*directory.User, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := directory.NewService(repo, nil)

		_, err := svc.GetUser(ctx, companyID, userID)

		assert.ErrorIs(t, err, directory.ErrUserNotFound)
	})
}

func TestDirectoryService_ApproversByRole(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	role := "MANAGER"
	key := directory.GetApproverOptionsKey(companyID, role)

	managers := []directory.User{
		{ID: uuid.New(), FullName: "Mira Manager", Role: role, IsActive: true},
	}

	t.Run("cache miss falls back to db and caches", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeDirectoryRepository{
			listByRoleFn: func(ctx context.Context, cid, r string) ([]directory.User, error) {
				return managers, nil
			},
		}
		svc := directory.NewService(repo, rdb)

		redisMock.ExpectGet(key).RedisNil()
		redisMock.Regexp().ExpectSet(key, `.*`, 5*time.Minute).SetVal("OK")

		users, err := svc.ApproversByRole(ctx, companyID, role)

		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, 1, repo.listByRoleCalls)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips db", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeDirectoryRepository{}
		svc := directory.NewService(repo, rdb)

		payload, err := json.Marshal(managers)
		assert.NoError(t, err)
		redisMock.ExpectGet(key).SetVal(string(payload))

		users, err := svc.ApproversByRole(ctx, companyID, role)

		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "Mira Manager", users[0].FullName)
		assert.Equal(t, 0, repo.listByRoleCalls)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no redis client queries db directly", func(t *testing.T) {
		repo := &fakeDirectoryRepository{
			listByRoleFn: func(ctx context.Context, cid, r string) ([]directory.User, error) {
				return managers, nil
			},
		}
		svc := directory.NewService(repo, nil)

		users, err := svc.ApproversByRole(ctx, companyID, role)

		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestDirectoryService_InvalidateApproverCache(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	role := "HR"
	key := directory.GetApproverOptionsKey(companyID, role)

	rdb, redisMock := redismock.NewClientMock()
	svc := directory.NewService(&fakeDirectoryRepository{}, rdb)

	redisMock.ExpectDel(key).SetVal(1)

	svc.InvalidateApproverCache(ctx, companyID, role)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}
