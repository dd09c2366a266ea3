package application_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"raffle/application"
	"raffle/domain/entities"
	"raffle/domain/events"
	"raffle/domain/interfaces"
	"raffle/infrastructure"
	"raffle/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accounts = []entities.Address{
	entities.MustParseAddress("0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"),
	entities.MustParseAddress("0xffcf8fdee72ac11b5c542428b35eef5769c409f0"),
	entities.MustParseAddress("0x22d491bde2303f2f43325b2108d26f1eaba1e32b"),
	entities.MustParseAddress("0xe11ba2b4d45eaed5996cd0823791e0c93114882d"),
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, event := range p.events {
		if event.Type() == eventType {
			n++
		}
	}
	return n
}

type fixedSeedProvider struct{ seed int64 }

func (p fixedSeedProvider) Seed(context.Context, *entities.BlockContext, []entities.Address) (*big.Int, error) {
	return big.NewInt(p.seed), nil
}

type fixture struct {
	handler   *application.RaffleHandler
	publisher *recordingPublisher
	raffleID  int64
}

// newFixture deploys a raffle managed by accounts[0] and funds every test account with 100 ether
func newFixture(t *testing.T, seedProvider interfaces.SeedProvider) *fixture {
	t.Helper()
	ctx := context.Background()

	publisher := &recordingPublisher{}
	factory := infrastructure.NewUnitOfWorkFactory(memory.NewUnitOfWorkFactory(memory.NewStore()), publisher)
	handler := application.NewRaffleHandler(factory, seedProvider)

	for _, addr := range accounts {
		_, err := handler.Fund(ctx, addr, entities.Ether("100"), false)
		require.NoError(t, err)
	}

	raffle, err := handler.Deploy(ctx, accounts[0])
	require.NoError(t, err)
	assert.Equal(t, accounts[0], raffle.Manager)

	return &fixture{handler: handler, publisher: publisher, raffleID: raffle.ID}
}

func (f *fixture) balance(t *testing.T, addr entities.Address) *big.Int {
	t.Helper()
	account, err := f.handler.GetAccount(context.Background(), addr)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) pool(t *testing.T) *big.Int {
	t.Helper()
	info, err := f.handler.GetRaffle(context.Background(), f.raffleID)
	require.NoError(t, err)
	return info.Raffle.Pool
}

func (f *fixture) height(t *testing.T) int64 {
	t.Helper()
	status, err := f.handler.VerifyChain(context.Background())
	require.NoError(t, err)
	require.True(t, status.Valid, status.Error)
	return status.Height
}

func TestRaffleHandler_Scenarios(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("one entrant", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)

		_, err := f.handler.Enter(ctx, f.raffleID, accounts[0], entities.Ether("0.02"))
		require.NoError(t, err)

		players, err := f.handler.GetPlayers(ctx, f.raffleID)
		require.NoError(t, err)
		assert.Equal(t, []entities.Address{accounts[0]}, players)
	})

	t.Run("three entrants in order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)

		for _, addr := range accounts[:3] {
			_, err := f.handler.Enter(ctx, f.raffleID, addr, entities.Ether("0.02"))
			require.NoError(t, err)
		}

		players, err := f.handler.GetPlayers(ctx, f.raffleID)
		require.NoError(t, err)
		assert.Equal(t, accounts[:3], players)
	})

	t.Run("stake below minimum", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		heightBefore := f.height(t)

		_, err := f.handler.Enter(ctx, f.raffleID, accounts[0], big.NewInt(200))
		require.ErrorIs(t, err, entities.ErrInsufficientStake)

		players, err := f.handler.GetPlayers(ctx, f.raffleID)
		require.NoError(t, err)
		assert.Empty(t, players)
		assert.Equal(t, 0, f.pool(t).Sign())
		assert.Equal(t, 0, entities.Ether("100").Cmp(f.balance(t, accounts[0])))
		assert.Equal(t, heightBefore, f.height(t))
	})

	t.Run("non-manager cannot pick", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)

		_, err := f.handler.Enter(ctx, f.raffleID, accounts[1], entities.Ether("0.02"))
		require.NoError(t, err)
		heightBefore := f.height(t)

		_, err = f.handler.PickWinner(ctx, f.raffleID, accounts[1])
		require.ErrorIs(t, err, entities.ErrUnauthorized)

		players, err := f.handler.GetPlayers(ctx, f.raffleID)
		require.NoError(t, err)
		assert.Equal(t, []entities.Address{accounts[1]}, players)
		assert.Equal(t, 0, entities.Ether("0.02").Cmp(f.pool(t)))
		assert.Equal(t, heightBefore, f.height(t))
		assert.Zero(t, f.publisher.count(events.EventTypeWinnerPicked))
	})

	t.Run("winner is paid and round resets", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)

		_, err := f.handler.Enter(ctx, f.raffleID, accounts[0], entities.Ether("1"))
		require.NoError(t, err)
		before := f.balance(t, accounts[0])

		result, err := f.handler.PickWinner(ctx, f.raffleID, accounts[0])
		require.NoError(t, err)
		assert.Equal(t, accounts[0], result.Winner)
		assert.Equal(t, 0, result.WinningIndex)
		assert.Equal(t, 1, result.EntrantCount)

		gained := new(big.Int).Sub(f.balance(t, accounts[0]), before)
		assert.Equal(t, 0, entities.Ether("1").Cmp(gained))
		assert.Equal(t, 0, f.pool(t).Sign())

		_, err = f.handler.Enter(ctx, f.raffleID, accounts[1], entities.Ether("0.02"))
		require.NoError(t, err)

		players, err := f.handler.GetPlayers(ctx, f.raffleID)
		require.NoError(t, err)
		assert.Equal(t, []entities.Address{accounts[1]}, players)
		assert.Equal(t, 1, f.publisher.count(events.EventTypeWinnerPicked))
	})
}

func TestRaffleHandler_EnterAccumulatesPool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)

	stakes := []string{"0.01", "0.5", "0.01", "2"}
	entrants := []entities.Address{accounts[1], accounts[2], accounts[1], accounts[3]}
	expected := new(big.Int)

	for i, stake := range stakes {
		value := entities.Ether(stake)
		result, err := f.handler.Enter(ctx, f.raffleID, entrants[i], value)
		require.NoError(t, err)

		expected.Add(expected, value)
		assert.Equal(t, i+1, result.PlayerCount)
		assert.Equal(t, 0, expected.Cmp(result.Pool))
		assert.Equal(t, i, result.Entry.Position)
	}

	players, err := f.handler.GetPlayers(ctx, f.raffleID)
	require.NoError(t, err)
	assert.Equal(t, entrants, players, "duplicates are kept in call order")
	assert.Equal(t, 0, expected.Cmp(f.pool(t)))

	spent := new(big.Int).Sub(entities.Ether("100"), f.balance(t, accounts[1]))
	assert.Equal(t, 0, entities.Ether("0.02").Cmp(spent))
}

func TestRaffleHandler_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	stranger := entities.MustParseAddress("0x0000000000000000000000000000000000000123")

	tests := []struct {
		name    string
		run     func(f *fixture) error
		wantErr error
	}{
		{
			name: "pick on empty round",
			run: func(f *fixture) error {
				_, err := f.handler.PickWinner(ctx, f.raffleID, accounts[0])
				return err
			},
			wantErr: entities.ErrEmptyPool,
		},
		{
			name: "enter without funds",
			run: func(f *fixture) error {
				_, err := f.handler.Enter(ctx, f.raffleID, stranger, entities.Ether("0.02"))
				return err
			},
			wantErr: entities.ErrInsufficientFunds,
		},
		{
			name: "enter more than balance",
			run: func(f *fixture) error {
				_, err := f.handler.Enter(ctx, f.raffleID, accounts[2], entities.Ether("101"))
				return err
			},
			wantErr: entities.ErrInsufficientFunds,
		},
		{
			name: "enter unknown raffle",
			run: func(f *fixture) error {
				_, err := f.handler.Enter(ctx, f.raffleID+100, accounts[1], entities.Ether("0.02"))
				return err
			},
			wantErr: entities.ErrRaffleNotFound,
		},
		{
			name: "players of unknown raffle",
			run: func(f *fixture) error {
				_, err := f.handler.GetPlayers(ctx, f.raffleID+100)
				return err
			},
			wantErr: entities.ErrRaffleNotFound,
		},
		{
			name: "unknown account",
			run: func(f *fixture) error {
				_, err := f.handler.GetAccount(ctx, stranger)
				return err
			},
			wantErr: application.ErrAccountNotFound,
		},
		{
			name: "negative stake",
			run: func(f *fixture) error {
				_, err := f.handler.Enter(ctx, f.raffleID, accounts[1], big.NewInt(-1))
				return err
			},
			wantErr: entities.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)
			heightBefore := f.height(t)

			err := tt.run(f)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, application.IsRejection(err))
			assert.Equal(t, heightBefore, f.height(t))
			assert.Equal(t, 0, f.pool(t).Sign())
		})
	}
}

func TestRaffleHandler_PayoutRejectedRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, fixedSeedProvider{seed: 1})

	// accounts[2] refuses incoming transfers but can still spend
	_, err := f.handler.Fund(ctx, accounts[2], entities.Ether("5"), true)
	require.NoError(t, err)

	_, err = f.handler.Enter(ctx, f.raffleID, accounts[1], entities.Ether("0.5"))
	require.NoError(t, err)
	_, err = f.handler.Enter(ctx, f.raffleID, accounts[2], entities.Ether("0.5"))
	require.NoError(t, err)

	heightBefore := f.height(t)
	balancesBefore := []*big.Int{f.balance(t, accounts[1]), f.balance(t, accounts[2])}
	eventsBefore := len(f.publisher.events)

	_, err = f.handler.PickWinner(ctx, f.raffleID, accounts[0])
	require.ErrorIs(t, err, entities.ErrPayoutRejected)

	players, err := f.handler.GetPlayers(ctx, f.raffleID)
	require.NoError(t, err)
	assert.Equal(t, []entities.Address{accounts[1], accounts[2]}, players)
	assert.Equal(t, 0, entities.Ether("1").Cmp(f.pool(t)))
	assert.Equal(t, 0, balancesBefore[0].Cmp(f.balance(t, accounts[1])))
	assert.Equal(t, 0, balancesBefore[1].Cmp(f.balance(t, accounts[2])))
	assert.Equal(t, heightBefore, f.height(t))
	assert.Len(t, f.publisher.events, eventsBefore, "no events escape a rolled back draw")

	winners, err := f.handler.GetWinners(ctx, f.raffleID, 0)
	require.NoError(t, err)
	assert.Empty(t, winners)
}

func TestRaffleHandler_SeedSelectsIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for seed, want := range map[int64]int{0: 0, 1: 1, 2: 2, 5: 2, 7: 1} {
		f := newFixture(t, fixedSeedProvider{seed: seed})
		for _, addr := range accounts[1:4] {
			_, err := f.handler.Enter(ctx, f.raffleID, addr, entities.Ether("1"))
			require.NoError(t, err)
		}

		result, err := f.handler.PickWinner(ctx, f.raffleID, accounts[0])
		require.NoError(t, err)
		assert.Equal(t, want, result.WinningIndex, "seed %d", seed)
		assert.Equal(t, accounts[1+want], result.Winner)
		assert.Equal(t, 0, entities.Ether("3").Cmp(result.Amount))

		winners, err := f.handler.GetWinners(ctx, f.raffleID, 10)
		require.NoError(t, err)
		require.Len(t, winners, 1)
		assert.Equal(t, result.Winner, winners[0].Winner)
		assert.Equal(t, int64(1), winners[0].Round)
	}
}

func TestRaffleHandler_ConcurrentEntriesAreSerialized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)

	const perAccount = 10
	var wg sync.WaitGroup
	for _, addr := range accounts {
		wg.Add(1)
		go func(addr entities.Address) {
			defer wg.Done()
			for i := 0; i < perAccount; i++ {
				_, err := f.handler.Enter(ctx, f.raffleID, addr, entities.Ether("0.01"))
				assert.NoError(t, err)
			}
		}(addr)
	}
	wg.Wait()

	players, err := f.handler.GetPlayers(ctx, f.raffleID)
	require.NoError(t, err)
	assert.Len(t, players, perAccount*len(accounts))

	expected := new(big.Int).Mul(entities.Ether("0.01"), big.NewInt(int64(perAccount*len(accounts))))
	assert.Equal(t, 0, expected.Cmp(f.pool(t)))

	status, err := f.handler.VerifyChain(ctx)
	require.NoError(t, err)
	assert.True(t, status.Valid)
}

func TestRaffleHandler_EnsureGenesisIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)

	head, err := f.handler.EnsureGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.height(t), head.Number, "an existing chain keeps its head")
}
