package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestUserDocLowercasesKeys(t *testing.T) {
	u := domuser.New("u1", domuser.NewUserParams{Username: "Malbec_Fan", Email: "Fan@Example.com"}, "hash")
	d := toUserDoc(u)
	assert.Equal(t, "malbec_fan", d.UsernameLower)
	assert.Equal(t, "fan@example.com", d.Email)
	assert.Equal(t, "Malbec_Fan", d.domain().Username)
	assert.Equal(t, []domuser.Role{domuser.RoleCustomer}, d.domain().Roles)
}

func TestRequiredIndexesAreNamedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, idx := range requiredIndexes {
		require.NotNil(t, idx.IndexModel.Options)
		assert.NotEmpty(t, idx.CollectionName)
		assert.NotEmpty(t, idx.IndexModel.Keys)
		key := fmt.Sprintf("%s/%v", idx.CollectionName, idx.IndexModel.Keys)
		assert.False(t, seen[key], "duplicate index %s", key)
		seen[key] = true
	}
}

// testDatabase connects to MONGODB_TEST_URI and returns a throwaway database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri, 5*time.Second)
	require.NoError(t, err)
	db := client.Database(fmt.Sprintf("escabi_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db, nil))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestProductStockIntegration(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewProductRepository(db)

	p, err := domcatalog.New("p1", domcatalog.NewProductParams{Name: "Malbec", Price: 1000, Category: "red_wine", Stock: 1})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, p))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DecrementIfAvailable(ctx, "p1", 1); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, domcatalog.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	_, err = repo.DecrementIfAvailable(ctx, "missing", 1)
	assert.ErrorIs(t, err, domcatalog.ErrNotFound)
}

func TestOrderStatusCASIntegration(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	o, err := domorder.New("o1", "u1",
		[]domorder.Item{{ProductID: "p1", Name: "Malbec", Quantity: 1, PriceAtPurchase: 1000}},
		domorder.Address{Street: "s", City: "c", State: "st", ZipCode: "z", Country: "AR"})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, o))

	change := domorder.StatusChange{From: domorder.StatusPending, To: domorder.StatusProcessing, PaymentID: "pay-1", At: time.Now().UTC()}
	updated, err := repo.UpdateStatus(ctx, "o1", change)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusProcessing, updated.Status)
	assert.Equal(t, "pay-1", updated.PaymentID)

	_, err = repo.UpdateStatus(ctx, "o1", change)
	assert.ErrorIs(t, err, domorder.ErrStatusConflict)
	_, err = repo.UpdateStatus(ctx, "nope", change)
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestAlertDedupIntegration(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewAlertRepository(db)

	inserted, err := repo.InsertIfAbsent(ctx, dominv.NewAlert("a1", "p1", "Malbec", 9, 10))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(ctx, dominv.NewAlert("a2", "p1", "Malbec", 9, 10))
	require.NoError(t, err)
	assert.False(t, inserted)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
}

func TestUserDuplicateIntegration(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Insert(ctx, domuser.New("u1", domuser.NewUserParams{Username: "ana", Email: "ana@example.com"}, "h")))
	err := repo.Insert(ctx, domuser.New("u2", domuser.NewUserParams{Username: "ANA", Email: "other@example.com"}, "h"))
	assert.ErrorIs(t, err, domuser.ErrDuplicate)

	u, err := repo.FindByLogin(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}
