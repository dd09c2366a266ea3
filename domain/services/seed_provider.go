package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"raffle/domain/entities"
	"raffle/domain/interfaces"

	"golang.org/x/crypto/sha3"
)

// Seed sources selectable from configuration
const (
	SeedSourceBlock  = "block"
	SeedSourceCrypto = "crypto"
)

// NewSeedProvider returns the seed provider named by source
func NewSeedProvider(source string) (interfaces.SeedProvider, error) {
	switch source {
	case "", SeedSourceBlock:
		return NewBlockHashSeedProvider(), nil
	case SeedSourceCrypto:
		return NewCryptoSeedProvider(rand.Reader), nil
	default:
		return nil, fmt.Errorf("unknown seed source: %s", source)
	}
}

// blockHashSeedProvider derives the seed from the pending block and the entrant list.
//
// The seed is Keccak-256(parentHash || number || timestamp || players...).
// Whoever controls when the draw is sealed can predict or grind the result,
// so this is only fit for raffles where nobody has that influence.
type blockHashSeedProvider struct{}

// NewBlockHashSeedProvider creates the default, deterministic seed provider
func NewBlockHashSeedProvider() interfaces.SeedProvider {
	return &blockHashSeedProvider{}
}

func (p *blockHashSeedProvider) Seed(ctx context.Context, block *entities.BlockContext, players []entities.Address) (*big.Int, error) {
	if block == nil {
		return nil, fmt.Errorf("block context is required")
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(entities.HashBytes(block.ParentHash))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(block.Number))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(block.Timestamp.Unix()))
	h.Write(buf[:])

	for _, player := range players {
		h.Write(player.Bytes())
	}

	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// cryptoSeedProvider reads 32 bytes from a random source and ignores the block
type cryptoSeedProvider struct {
	reader io.Reader
}

// NewCryptoSeedProvider creates a seed provider backed by reader, usually crypto/rand.Reader
func NewCryptoSeedProvider(reader io.Reader) interfaces.SeedProvider {
	return &cryptoSeedProvider{reader: reader}
}

func (p *cryptoSeedProvider) Seed(ctx context.Context, block *entities.BlockContext, players []entities.Address) (*big.Int, error) {
	var buf [32]byte
	if _, err := io.ReadFull(p.reader, buf[:]); err != nil {
		return nil, fmt.Errorf("random generation failed: %w", err)
	}
	return new(big.Int).SetBytes(buf[:]), nil
}
