package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"raffle/domain/entities"
	"raffle/domain/interfaces"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 16

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := HealthResponse{NATS: "disabled"}
	if s.nats == nil {
		writeData(w, http.StatusOK, "ok", health)
		return
	}
	if !s.nats.IsConnected() {
		health.NATS = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "event bus disconnected", Data: health})
		return
	}
	health.NATS = "connected"
	writeData(w, http.StatusOK, "ok", health)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	raffle, err := s.handler.Deploy(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusCreated, "raffle deployed", newRaffleResponse(&interfaces.RaffleInfo{Raffle: raffle}))
}

func (s *Server) handleGetRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID, ok := raffleIDFromPath(w, r)
	if !ok {
		return
	}

	info, err := s.handler.GetRaffle(r.Context(), raffleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "", newRaffleResponse(info))
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	raffleID, ok := raffleIDFromPath(w, r)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req EnterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	value, err := entities.ParseAmount(req.Value, req.Unit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := s.handler.Enter(r.Context(), raffleID, caller, value)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "entered", EnterResponse{
		Position:    result.Entry.Position,
		StakeWei:    result.Entry.Stake.String(),
		PoolWei:     result.Pool.String(),
		Pool:        entities.FormatEther(result.Pool),
		PlayerCount: result.PlayerCount,
		BlockNumber: result.Entry.BlockNumber,
	})
}

func (s *Server) handlePickWinner(w http.ResponseWriter, r *http.Request) {
	raffleID, ok := raffleIDFromPath(w, r)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	result, err := s.handler.PickWinner(r.Context(), raffleID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "winner picked", DrawResponse{
		Winner:       result.Winner,
		WinningIndex: result.WinningIndex,
		AmountWei:    result.Amount.String(),
		Amount:       entities.FormatEther(result.Amount),
		Round:        result.Round,
		EntrantCount: result.EntrantCount,
		Seed:         fmt.Sprintf("0x%x", result.Seed),
		BlockNumber:  result.BlockNumber,
	})
}

func (s *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	raffleID, ok := raffleIDFromPath(w, r)
	if !ok {
		return
	}

	players, err := s.handler.GetPlayers(r.Context(), raffleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if players == nil {
		players = []entities.Address{}
	}

	writeData(w, http.StatusOK, "", players)
}

func (s *Server) handleGetWinners(w http.ResponseWriter, r *http.Request) {
	raffleID, ok := raffleIDFromPath(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	winners, err := s.handler.GetWinners(r.Context(), raffleID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]WinnerResponse, 0, len(winners))
	for _, winner := range winners {
		resp = append(resp, WinnerResponse{
			Round:        winner.Round,
			Winner:       winner.Winner,
			AmountWei:    winner.Amount.String(),
			WinningIndex: winner.WinningIndex,
			EntrantCount: winner.EntrantCount,
			Seed:         winner.Seed,
			BlockNumber:  winner.BlockNumber,
		})
	}

	writeData(w, http.StatusOK, "", resp)
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req FundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	addr, err := entities.ParseAddress(req.Address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	balance, err := entities.ParseAmount(req.Balance, req.Unit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := s.handler.Fund(r.Context(), addr, balance, req.RejectsPayments)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "account funded", newAccountResponse(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := entities.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := s.handler.GetAccount(r.Context(), addr)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "", newAccountResponse(account))
}

func (s *Server) handleVerifyChain(w http.ResponseWriter, r *http.Request) {
	status, err := s.handler.VerifyChain(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "", ChainResponse{
		Height:   status.Height,
		HeadHash: status.HeadHash,
		Valid:    status.Valid,
		Error:    status.Error,
	})
}

func requireCaller(w http.ResponseWriter, r *http.Request) (entities.Address, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, CallerHeader+" header is required")
		return "", false
	}
	caller, err := entities.ParseAddress(raw)
	if err != nil {
		writeDomainError(w, err)
		return "", false
	}
	return caller, true
}

func raffleIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid raffle id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
