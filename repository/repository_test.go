package repository

import (
	"context"
	"math/big"
	"testing"
	"time"

	"raffle/domain/entities"
	"raffle/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	t.Run("raffle not found", func(t *testing.T) {
		raffle, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, raffle)
	})

	t.Run("create and update", func(t *testing.T) {
		raffle := entities.NewRaffle(testutil.TestAddress(0))
		require.NoError(t, repo.Create(ctx, raffle))
		assert.NotZero(t, raffle.ID)
		assert.False(t, raffle.CreatedAt.IsZero())

		// Pool values beyond int64 must survive the NUMERIC round trip
		huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
		require.True(t, ok)
		require.NoError(t, raffle.Credit(huge))
		raffle.Round = 7
		require.NoError(t, repo.Update(ctx, raffle))

		got, err := repo.GetByIDForUpdate(ctx, raffle.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, raffle.Manager, got.Manager)
		assert.Equal(t, 0, huge.Cmp(got.Pool))
		assert.Equal(t, int64(7), got.Round)
	})

	t.Run("update missing raffle", func(t *testing.T) {
		err := repo.Update(ctx, &entities.Raffle{ID: 424242, Pool: new(big.Int), Round: 1})
		assert.Error(t, err)
	})
}

func TestEntryAndWinnerRepositories(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	raffleRepo := NewRaffleRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)
	winnerRepo := NewWinnerRepository(testDB.DB)
	ctx := context.Background()

	raffle := entities.NewRaffle(testutil.TestAddress(0))
	require.NoError(t, raffleRepo.Create(ctx, raffle))

	players := []entities.Address{testutil.TestAddress(1), testutil.TestAddress(2), testutil.TestAddress(1)}
	for i, player := range players {
		require.NoError(t, entryRepo.Append(ctx, &entities.Entry{
			RaffleID:    raffle.ID,
			Round:       1,
			Position:    i,
			Entrant:     player,
			Stake:       entities.Ether("0.02"),
			BlockNumber: int64(i + 1),
		}))
	}
	require.NoError(t, entryRepo.Append(ctx, &entities.Entry{
		RaffleID: raffle.ID,
		Round:    2,
		Position: 0,
		Entrant:  testutil.TestAddress(3),
		Stake:    entities.Ether("1"),
	}))

	t.Run("entries keep insertion order and duplicates", func(t *testing.T) {
		entries, err := entryRepo.ListForRound(ctx, raffle.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, players, entities.Entrants(entries))
		assert.Equal(t, 0, entities.Ether("0.02").Cmp(entries[0].Stake))
	})

	t.Run("rounds are separate", func(t *testing.T) {
		entries, err := entryRepo.ListForRound(ctx, raffle.ID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, testutil.TestAddress(3), entries[0].Entrant)
	})

	t.Run("duplicate position is rejected", func(t *testing.T) {
		err := entryRepo.Append(ctx, &entities.Entry{
			RaffleID: raffle.ID,
			Round:    1,
			Position: 0,
			Entrant:  testutil.TestAddress(4),
			Stake:    entities.Ether("0.02"),
		})
		assert.Error(t, err)
	})

	t.Run("winners newest first", func(t *testing.T) {
		for round := int64(1); round <= 2; round++ {
			require.NoError(t, winnerRepo.Create(ctx, &entities.RaffleWinner{
				RaffleID:     raffle.ID,
				Round:        round,
				Winner:       testutil.TestAddress(1),
				Amount:       entities.Ether("0.06"),
				WinningIndex: 1,
				EntrantCount: 3,
				Seed:         "0x01",
				BlockNumber:  10 + round,
			}))
		}

		winners, err := winnerRepo.ListByRaffle(ctx, raffle.ID, 10)
		require.NoError(t, err)
		require.Len(t, winners, 2)
		assert.Equal(t, int64(2), winners[0].Round)
		assert.Equal(t, 0, entities.Ether("0.06").Cmp(winners[0].Amount))
	})
}

func TestAccountRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()
	addr := testutil.TestAddress(9)

	account, err := repo.GetByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, account)

	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestAccount(addr, "100")))

	rejecting := testutil.CreateTestAccount(addr, "3")
	rejecting.RejectsPayments = true
	require.NoError(t, repo.Upsert(ctx, rejecting))

	account, err = repo.GetByAddress(ctx, addr)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, 0, entities.Ether("3").Cmp(account.Balance))
	assert.True(t, account.RejectsPayments)

	require.NoError(t, repo.UpdateBalance(ctx, addr, testutil.Wei(1)))
	account, err = repo.GetByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.Balance.Int64())

	assert.Error(t, repo.UpdateBalance(ctx, testutil.TestAddress(10), testutil.Wei(1)))
	assert.Error(t, repo.UpdateBalance(ctx, addr, testutil.Wei(-1)), "balance check constraint")
}

func TestBlockRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBlockRepository(testDB.DB)
	ctx := context.Background()

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Nil(t, head)

	genesis := entities.GenesisBlock()
	require.NoError(t, repo.Append(ctx, genesis))

	raffleID := int64(1)
	next := entities.NextBlockContext(genesis, time.Now()).Seal(testutil.TestAddress(0), entities.BlockActionDeploy, &raffleID)
	require.NoError(t, repo.Append(ctx, next))
	assert.Error(t, repo.Append(ctx, next), "block numbers are unique")

	head, err = repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.Hash, head.Hash)
	assert.Equal(t, next.ComputeHash(), head.ComputeHash(), "stored fields reproduce the hash")

	blocks, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.NoError(t, entities.VerifyChain(blocks))
}

func TestUnitOfWork(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB)
	ctx := context.Background()

	t.Run("rollback discards writes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		raffle := entities.NewRaffle(testutil.TestAddress(0))
		require.NoError(t, uow.RaffleRepository().Create(ctx, raffle))
		require.NoError(t, uow.Rollback())

		got, err := NewRaffleRepository(testDB.DB).GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		raffle := entities.NewRaffle(testutil.TestAddress(0))
		require.NoError(t, uow.RaffleRepository().Create(ctx, raffle))
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())

		got, err := NewRaffleRepository(testDB.DB).GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("chain lock serializes transactions", func(t *testing.T) {
		first := factory.Create()
		require.NoError(t, first.Begin(ctx))
		_, err := first.BlockRepository().LockHead(ctx)
		require.NoError(t, err)

		second := factory.Create()
		require.NoError(t, second.Begin(ctx))
		defer second.Rollback()

		waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		_, err = second.BlockRepository().LockHead(waitCtx)
		assert.Error(t, err, "second transaction must wait for the first")

		require.NoError(t, first.Rollback())
	})

	t.Run("getters panic before begin", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.RaffleRepository() })
	})
}
