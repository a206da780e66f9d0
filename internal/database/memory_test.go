package database

import (
	"context"
	"testing"
	"time"

	"po-bridge-api-server/config"
	"po-bridge-api-server/internal/auth"
	"po-bridge-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newLine(owner, supplier, token string) models.PurchaseOrderLine {
	return models.PurchaseOrderLine{
		OwnerID:      owner,
		SupplierName: supplier,
		AccessToken:  token,
		Status:       models.StatusPendingUpload,
	}
}

func TestMemoryOrderStoreScopesByToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()

	a, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "tok-a"), newLine("o1", "A", "tok-a")})
	require.NoError(t, err)
	_, err = store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "B", "tok-b")})
	require.NoError(t, err)

	lines, err := store.FindByToken(ctx, "tok-a")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, a[0].ID, lines[0].ID)
	assert.Equal(t, a[1].ID, lines[1].ID)

	none, err := store.FindByToken(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryOrderStoreOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()

	first, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "t1")})
	require.NoError(t, err)
	second, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "B", "t2")})
	require.NoError(t, err)
	_, err = store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o2", "C", "t3")})
	require.NoError(t, err)

	lines, err := store.FindByOwner(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, second[0].ID, lines[0].ID)
	assert.Equal(t, first[0].ID, lines[1].ID)
}

func TestMemoryOrderStoreMarkSubmittedRequiresToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()
	inserted, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "tok-a")})
	require.NoError(t, err)
	id := inserted[0].ID

	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	file := models.SubmittedFile{URL: "https://cdn/x.pdf", Name: "x.pdf", ContentType: "application/pdf", At: at}

	_, err = store.MarkSubmitted(ctx, id, "tok-b", models.StatusDone, file)
	assert.ErrorIs(t, err, ErrNotFound)

	line, err := store.MarkSubmitted(ctx, id, "tok-a", models.StatusDone, file)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, line.Status)
	assert.Equal(t, "https://cdn/x.pdf", line.FileURL)
	require.NotNil(t, line.SubmittedAt)
	assert.True(t, at.Equal(*line.SubmittedAt))
}

func TestMemoryOrderStoreUpdateFieldsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()
	inserted, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "tok-a")})
	require.NoError(t, err)
	id := inserted[0].ID

	_, err = store.UpdateFields(ctx, id, "o2", map[string]interface{}{"lotNo": "L9"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	line, err := store.UpdateFields(ctx, id, "o1", map[string]interface{}{
		"lotNo":  "L9",
		"status": models.StatusDone,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "L9", line.LotNo)
	assert.Equal(t, models.StatusDone, line.Status)

	line, err = store.UpdateFields(ctx, id, "o1", map[string]interface{}{"status": models.StatusPendingUpload}, []string{"fileURL", "submittedAt"})
	require.NoError(t, err)
	assert.Empty(t, line.FileURL)
	assert.Nil(t, line.SubmittedAt)

	_, err = store.UpdateFields(ctx, id, "o1", map[string]interface{}{"accessToken": "x"}, nil)
	assert.Error(t, err)
}

func TestMemoryOrderStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()
	inserted, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "tok-a")})
	require.NoError(t, err)
	id := inserted[0].ID

	deleted, err := store.Delete(ctx, id, "o2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = store.Delete(ctx, id, "o1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, primitive.NewObjectID(), "o1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOrderStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOrderStore()
	inserted, err := store.InsertBatch(ctx, []models.PurchaseOrderLine{newLine("o1", "A", "tok-a")})
	require.NoError(t, err)

	line, err := store.FindByID(ctx, inserted[0].ID)
	require.NoError(t, err)
	line.SupplierName = "mutated"

	again, err := store.FindByID(ctx, inserted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.SupplierName)
}

func TestMemoryUserStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	require.NoError(t, store.Create(ctx, &models.User{Email: "Buyer@Example.com"}))
	err := store.Create(ctx, &models.User{Email: "buyer@example.com "})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	user, err := store.FindByEmail(ctx, "BUYER@example.com")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.False(t, user.ID.IsZero())
}

func TestSeedBuyerIsIdempotent(t *testing.T) {
	auth.PasswordCost = bcrypt.MinCost
	ctx := context.Background()
	store := NewMemoryUserStore()
	cfg := config.SeedConfig{BuyerEmail: "buyer@example.com", BuyerPassword: "pw", BuyerName: "Buyer"}

	created, err := SeedBuyer(ctx, store, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedBuyer(ctx, store, cfg)
	require.NoError(t, err)
	assert.False(t, created)

	user, err := store.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, auth.CheckPasswordHash("pw", user.Password))
}

func TestSeedBuyerSkipsWithoutCredentials(t *testing.T) {
	created, err := SeedBuyer(context.Background(), NewMemoryUserStore(), config.SeedConfig{})
	require.NoError(t, err)
	assert.False(t, created)
}
