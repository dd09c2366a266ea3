package services

import (
	"context"
	"math/big"
	"testing"
	"time"

	"raffle/domain/entities"
	"raffle/domain/events"
	"raffle/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAccountService() (*accountService, *testhelpers.MockAccountRepository, *testhelpers.MockBlockRepository, *testhelpers.MockEventPublisher) {
	accountRepo := new(testhelpers.MockAccountRepository)
	blockRepo := new(testhelpers.MockBlockRepository)
	publisher := new(testhelpers.MockEventPublisher)
	service := NewAccountService(accountRepo, blockRepo, publisher).(*accountService)
	service.now = func() time.Time { return testNow }
	return service, accountRepo, blockRepo, publisher
}

func TestAccountService_Fund_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    entities.Address
		balance *big.Int
		wantErr error
	}{
		{name: "missing address", addr: "", balance: big.NewInt(1), wantErr: entities.ErrInvalidAddress},
		{name: "negative balance", addr: testPlayer1, balance: big.NewInt(-1), wantErr: entities.ErrInvalidAmount},
		{name: "nil balance", addr: testPlayer1, balance: nil, wantErr: entities.ErrInvalidAmount},
		{name: "balance above max amount", addr: testPlayer1, balance: new(big.Int).Add(entities.MaxAmount(), big.NewInt(1)), wantErr: entities.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, _, blockRepo, _ := setupAccountService()
			_, err := service.Fund(context.Background(), tt.addr, tt.balance, false)
			assert.ErrorIs(t, err, tt.wantErr)
			blockRepo.AssertNotCalled(t, "LockHead", mock.Anything)
		})
	}
}

func TestAccountService_Fund(t *testing.T) {
	t.Parallel()

	service, accountRepo, blockRepo, publisher := setupAccountService()
	ctx := context.Background()
	existing := createTestAccount(testPlayer1, "2")

	blockRepo.On("LockHead", ctx).Return(entities.GenesisBlock(), nil)
	accountRepo.On("GetByAddress", ctx, testPlayer1).Return(existing, nil)
	accountRepo.On("Upsert", ctx, mock.MatchedBy(func(a *entities.Account) bool {
		return a.Balance.Cmp(entities.Ether("50")) == 0 && a.RejectsPayments
	})).Return(nil)
	blockRepo.On("Append", ctx, mock.MatchedBy(func(b *entities.Block) bool {
		return b.Action == entities.BlockActionFund && b.RaffleID == nil && b.Caller == testPlayer1
	})).Return(nil)
	publisher.On("Publish", events.BalanceChangeEvent{
		Address:       testPlayer1,
		OldBalanceWei: entities.Ether("2").String(),
		NewBalanceWei: entities.Ether("50").String(),
		Reason:        entities.BlockActionFund,
		BlockNumber:   1,
	}).Return(nil)

	account, err := service.Fund(ctx, testPlayer1, entities.Ether("50"), true)
	require.NoError(t, err)
	assert.True(t, account.RejectsPayments)
	accountRepo.AssertExpectations(t)
	blockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
