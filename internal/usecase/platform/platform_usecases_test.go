package platform_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cryptopay-backend/internal/service"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/platform"
	"github.com/ignatzorin/cryptopay-backend/internal/usecase/usecasetest"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func admin() entity.Actor {
	return entity.NewActor(uuid.New(), entity.RoleAdmin)
}

func tether() platform.CreatePlatformInput {
	return platform.CreatePlatformInput{
		Kind:      "withdrawal",
		Name:      "Tether",
		Symbol:    "USDT",
		MinAmount: dec("10"),
		MaxAmount: dec("5000"),
		Fee:       dec("1"),
	}
}

func TestCreatePlatform_RoundTrip(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	ctx := context.Background()

	created, err := platform.NewCreatePlatformUseCase(repo, nil).Execute(ctx, admin(), tether())
	require.NoError(t, err)

	got, err := platform.NewGetPlatformUseCase(repo).Execute(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tether", got.Name)
	assert.Equal(t, "USDT", got.Symbol)
	assert.True(t, got.MinAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.MaxAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, got.Fee.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.IsActive)
}

func TestCreatePlatform_RequiresAdmin(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	user := entity.NewActor(uuid.New(), entity.RoleUser)

	_, err := platform.NewCreatePlatformUseCase(repo, nil).Execute(context.Background(), user, tether())
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreatePlatform_ValidationAndDuplicate(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	uc := platform.NewCreatePlatformUseCase(repo, nil)
	ctx := context.Background()

	bad := tether()
	bad.MinAmount = dec("100")
	bad.MaxAmount = dec("50")
	_, err := uc.Execute(ctx, admin(), bad)
	assert.Contains(t, apperror.ValidationFields(err), "maxAmount")

	_, err = uc.Execute(ctx, admin(), tether())
	require.NoError(t, err)

	dup := tether()
	dup.Name = "Tether TRC20"
	_, err = uc.Execute(ctx, admin(), dup)
	assert.True(t, apperror.IsDuplicate(err))

	// тот же символ, но другой вид платформы
	deposit := tether()
	deposit.Kind = "deposit"
	_, err = uc.Execute(ctx, admin(), deposit)
	assert.NoError(t, err)

	unknown := tether()
	unknown.Kind = "swap"
	_, err = uc.Execute(ctx, admin(), unknown)
	assert.Contains(t, apperror.ValidationFields(err), "kind")
}

func TestUpdatePlatform_PartialAndRevalidated(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	ctx := context.Background()
	created, err := platform.NewCreatePlatformUseCase(repo, nil).Execute(ctx, admin(), tether())
	require.NoError(t, err)

	uc := platform.NewUpdatePlatformUseCase(repo, nil)

	inactive := false
	updated, err := uc.Execute(ctx, admin(), platform.UpdatePlatformInput{ID: created.ID, IsActive: &inactive, Fee: dec("2.5")})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.Fee.Equal(*dec("2.5")))
	assert.Equal(t, "Tether", updated.Name)

	_, err = uc.Execute(ctx, admin(), platform.UpdatePlatformInput{ID: created.ID, MinAmount: dec("6000")})
	assert.Contains(t, apperror.ValidationFields(err), "maxAmount")

	_, err = uc.Execute(ctx, admin(), platform.UpdatePlatformInput{ID: 999})
	assert.True(t, apperror.IsNotFound(err))
}

func TestListPlatforms_CacheInvalidatedOnWrite(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	cache := service.NewCacheService()
	ctx := context.Background()

	list := platform.NewListPlatformsUseCase(repo, cache, time.Minute)
	create := platform.NewCreatePlatformUseCase(repo, cache)
	del := platform.NewDeletePlatformUseCase(repo, cache)

	created, err := create.Execute(ctx, admin(), tether())
	require.NoError(t, err)

	platforms, err := list.Execute(ctx, valueobject.PlatformKindWithdrawal, true)
	require.NoError(t, err)
	assert.Len(t, platforms, 1)

	require.NoError(t, del.Execute(ctx, admin(), created.ID))

	platforms, err = list.Execute(ctx, valueobject.PlatformKindWithdrawal, true)
	require.NoError(t, err)
	assert.Empty(t, platforms)
}

func TestListPlatforms_ActiveOnly(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	ctx := context.Background()
	create := platform.NewCreatePlatformUseCase(repo, nil)

	off := false
	btc := tether()
	btc.Symbol = "BTC"
	btc.IsActive = &off
	_, err := create.Execute(ctx, admin(), btc)
	require.NoError(t, err)
	_, err = create.Execute(ctx, admin(), tether())
	require.NoError(t, err)

	list := platform.NewListPlatformsUseCase(repo, nil, 0)
	active, err := list.Execute(ctx, valueobject.PlatformKindWithdrawal, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := list.Execute(ctx, valueobject.PlatformKindWithdrawal, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedPlatforms_Idempotent(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	seed := platform.NewSeedPlatformsUseCase(repo, nil)
	ctx := context.Background()

	btc := tether()
	btc.Symbol = "BTC"
	seeds := []platform.CreatePlatformInput{tether(), btc}

	created, err := seed.Execute(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = seed.Execute(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, repo.Platforms, 2)
}

func TestUpdatePlatform_ClearOptionalFields(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	ctx := context.Background()
	input := tether()
	network, icon := "TRC20", "fas fa-dollar-sign"
	input.Network, input.IconClass = &network, &icon
	created, err := platform.NewCreatePlatformUseCase(repo, nil).Execute(ctx, admin(), input)
	require.NoError(t, err)

	uc := platform.NewUpdatePlatformUseCase(repo, nil)
	updated, err := uc.Execute(ctx, admin(), platform.UpdatePlatformInput{
		ID:    created.ID,
		Clear: []string{platform.FieldMaxAmount, platform.FieldNetwork, platform.FieldIconClass},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxAmount)
	assert.Nil(t, updated.Network)
	assert.Nil(t, updated.IconClass)
	assert.True(t, updated.AcceptsAmount(*dec("1000000")))

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MaxAmount)
	assert.True(t, stored.MinAmount.Equal(*dec("10")))

	_, err = uc.Execute(ctx, admin(), platform.UpdatePlatformInput{
		ID:        created.ID,
		MaxAmount: dec("100"),
		Clear:     []string{platform.FieldMaxAmount},
	})
	assert.Contains(t, apperror.ValidationFields(err), "clear")

	_, err = uc.Execute(ctx, admin(), platform.UpdatePlatformInput{ID: created.ID, Clear: []string{"fee"}})
	assert.Contains(t, apperror.ValidationFields(err), "clear")
}

func TestCreatePlatform_SymbolMustBeUppercase(t *testing.T) {
	repo := usecasetest.PlatformRepo{Store: usecasetest.NewStore()}
	input := tether()
	input.Symbol = "usdt"

	_, err := platform.NewCreatePlatformUseCase(repo, nil).Execute(context.Background(), admin(), input)
	assert.Contains(t, apperror.ValidationFields(err), "symbol")
}
