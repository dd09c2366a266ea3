package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"raffle/application"
	"raffle/domain/entities"
	"raffle/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Response is the envelope of every API reply
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	NATS string `json:"nats"` // connected, disconnected or disabled
}

// RaffleResponse describes a raffle and its current entrant list
type RaffleResponse struct {
	ID        int64              `json:"id"`
	Manager   entities.Address   `json:"manager"`
	PoolWei   string             `json:"pool_wei"`
	Pool      string             `json:"pool"`
	Round     int64              `json:"round"`
	Players   []entities.Address `json:"players"`
	CreatedAt string             `json:"created_at,omitempty"`
}

// EnterRequest is the body of POST /raffles/{id}/enter
type EnterRequest struct {
	Value string        `json:"value"`
	Unit  entities.Unit `json:"unit"`
}

// EnterResponse reports an accepted entry
type EnterResponse struct {
	Position    int    `json:"position"`
	StakeWei    string `json:"stake_wei"`
	PoolWei     string `json:"pool_wei"`
	Pool        string `json:"pool"`
	PlayerCount int    `json:"player_count"`
	BlockNumber int64  `json:"block_number"`
}

// DrawResponse reports a paid out round
type DrawResponse struct {
	Winner       entities.Address `json:"winner"`
	WinningIndex int              `json:"winning_index"`
	AmountWei    string           `json:"amount_wei"`
	Amount       string           `json:"amount"`
	Round        int64            `json:"round"`
	EntrantCount int              `json:"entrant_count"`
	Seed         string           `json:"seed"`
	BlockNumber  int64            `json:"block_number"`
}

// WinnerResponse is one entry of a raffle's payout history
type WinnerResponse struct {
	Round        int64            `json:"round"`
	Winner       entities.Address `json:"winner"`
	AmountWei    string           `json:"amount_wei"`
	WinningIndex int              `json:"winning_index"`
	EntrantCount int              `json:"entrant_count"`
	Seed         string           `json:"seed"`
	BlockNumber  int64            `json:"block_number"`
}

// FundRequest is the body of POST /accounts
type FundRequest struct {
	Address         string        `json:"address"`
	Balance         string        `json:"balance"`
	Unit            entities.Unit `json:"unit"`
	RejectsPayments bool          `json:"rejects_payments"`
}

// AccountResponse describes a host account
type AccountResponse struct {
	Address         entities.Address `json:"address"`
	BalanceWei      string           `json:"balance_wei"`
	Balance         string           `json:"balance"`
	RejectsPayments bool             `json:"rejects_payments"`
}

// ChainResponse reports the result of a chain verification
type ChainResponse struct {
	Height   int64  `json:"height"`
	HeadHash string `json:"head_hash"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

func newRaffleResponse(info *interfaces.RaffleInfo) RaffleResponse {
	resp := RaffleResponse{
		ID:      info.Raffle.ID,
		Manager: info.Raffle.Manager,
		PoolWei: info.Raffle.Pool.String(),
		Pool:    entities.FormatEther(info.Raffle.Pool),
		Round:   info.Raffle.Round,
		Players: info.Players,
	}
	if resp.Players == nil {
		resp.Players = []entities.Address{}
	}
	if !info.Raffle.CreatedAt.IsZero() {
		resp.CreatedAt = info.Raffle.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func newAccountResponse(account *entities.Account) AccountResponse {
	return AccountResponse{
		Address:         account.Address,
		BalanceWei:      account.Balance.String(),
		Balance:         entities.FormatEther(account.Balance),
		RejectsPayments: account.RejectsPayments,
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrInsufficientStake),
		errors.Is(err, entities.ErrInvalidAmount),
		errors.Is(err, entities.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, entities.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrRaffleNotFound), errors.Is(err, application.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrEmptyPool):
		return http.StatusConflict
	case errors.Is(err, entities.ErrPayoutRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Error("Failed to encode API response")
	}
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Error: message})
}

// writeDomainError reports err without leaking internal failure details
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("API request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
